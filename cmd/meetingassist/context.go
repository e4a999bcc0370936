package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"meetingassist/internal/api"
	"meetingassist/internal/config"
	"meetingassist/internal/logging"
	"meetingassist/internal/selection"
	"meetingassist/internal/workflow"
	"meetingassist/internal/workspace"
)

type globalFlags struct {
	config  string
	yes     bool
	json    bool
	verbose bool
}

type commandContext struct {
	flags *globalFlags

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{
		flags:  flags,
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

func (c *commandContext) bind(cmd *cobra.Command) {
	c.in = cmd.InOrStdin()
	c.out = cmd.OutOrStdout()
	c.errOut = cmd.ErrOrStderr()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger writes debug JSON to the log file. The console only shows
// warnings unless --verbose is set; console=false discards it entirely.
func (c *commandContext) newLogger(cfg *config.Config, console bool) (*slog.Logger, error) {
	opts, err := logging.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	switch {
	case c.flags.verbose:
		opts.Level = "debug"
	case !strings.EqualFold(opts.Level, "error"):
		opts.Level = "warn"
	}
	if !console {
		opts.OutputPaths = []string{os.DevNull}
	}
	return logging.New(opts)
}

type sessionOptions struct {
	confirm selection.Confirmer
	quiet   bool
}

type session struct {
	cfg     *config.Config
	ws      *workspace.Session
	client  *api.Client
	manager *workflow.Manager
	logger  *slog.Logger
}

func (s *session) state() *workspace.State { return s.ws.State }

// withSession opens the workspace, runs fn, and saves the workspace even when
// fn fails so that status messages and drafts survive.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(context.Context, *session) error) error {
	return c.withSessionOptions(cmd, sessionOptions{}, fn)
}

func (c *commandContext) withSessionOptions(cmd *cobra.Command, opts sessionOptions, fn func(context.Context, *session) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger(cfg, !opts.quiet)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	ws, err := workspace.OpenFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	client, err := api.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	confirm := opts.confirm
	if confirm == nil {
		confirm = c.confirmer()
	}
	manager := workflow.NewManager(ws.State, client, confirm, logger, workflow.WithConfig(cfg))
	return fn(ctx, &session{cfg: cfg, ws: ws, client: client, manager: manager, logger: logger})
}

// confirmer answers prompts on the terminal. Without one, prompts are
// declined unless --yes was given.
func (c *commandContext) confirmer() selection.Confirmer {
	if c.flags.yes {
		return selection.AlwaysConfirm
	}
	if !c.interactive() {
		return selection.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
			fmt.Fprintf(c.errOut, "%s\nDeclined: no terminal to confirm on (re-run with --yes).\n", prompt)
			return false, nil
		})
	}
	reader := bufio.NewReader(c.in)
	return selection.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		return promptYesNo(ctx, reader, c.errOut, prompt)
	})
}

// interactive reports whether prompts can be answered on the input stream.
func (c *commandContext) interactive() bool {
	file, ok := c.in.(*os.File)
	return ok && isTerminal(file)
}

func promptYesNo(ctx context.Context, reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
