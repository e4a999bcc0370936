package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"meetingassist/internal/config"
	"meetingassist/internal/logging"
	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

const (
	DefaultTimeout  = 120 * time.Second
	DefaultInterval = 2500 * time.Millisecond
)

// ErrAbandoned is returned when the guard reports the watched meeting is no
// longer relevant. Callers treat it as a silent stop.
var ErrAbandoned = errors.New("poll abandoned")

// Fetcher returns the current meeting list for the watched client.
type Fetcher func(ctx context.Context) ([]meeting.Meeting, error)

// Watch names the meeting and status field to observe.
type Watch struct {
	MeetingID string
	Field     string
	Value     func(meeting.Meeting) string
	Success   []string
	Failure   []string
}

// Hooks are optional callbacks invoked during a poll.
type Hooks struct {
	// OnTick receives every fetched meeting list before the terminal check.
	OnTick func([]meeting.Meeting)
	// Guard is consulted before each state application. Returning false stops
	// the poll with ErrAbandoned.
	Guard func() bool
}

// Poller re-fetches meetings until a watched status field is terminal.
type Poller struct {
	fetch    Fetcher
	timeout  time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// Option customizes a Poller.
type Option func(*Poller)

// WithTimeout overrides the wall-clock limit.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithInterval overrides the delay between fetches.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logging.NewComponentLogger(logger, "poller")
	}
}

// WithConfig applies the poll section of the application config.
func WithConfig(cfg *config.Config) Option {
	return func(p *Poller) {
		if cfg == nil {
			return
		}
		WithTimeout(cfg.PollTimeout())(p)
		WithInterval(cfg.PollInterval())(p)
	}
}

// New constructs a Poller around fetch.
func New(fetch Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetch:    fetch,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then on every interval until the watched field
// reaches a success value, a failure value, the timeout, or ctx is cancelled.
// A fetch that returns after cancellation is discarded without invoking hooks.
func (p *Poller) Run(ctx context.Context, watch Watch, hooks Hooks) (meeting.Meeting, error) {
	if p.fetch == nil {
		return meeting.Meeting{}, services.Invalid("fetch", "is required")
	}
	if strings.TrimSpace(watch.MeetingID) == "" {
		return meeting.Meeting{}, services.Invalid("meeting_id", "is required")
	}
	if watch.Value == nil {
		return meeting.Meeting{}, services.Invalid("field", "selector is required")
	}

	logger := logging.WithContext(ctx, p.logger).With(
		logging.String(logging.FieldMeetingID, watch.MeetingID),
		logging.String("field", watch.Field),
	)
	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	started := time.Now()
	lastStatus := ""
	attempt := 0
	for {
		attempt++
		meetings, err := p.fetch(pollCtx)
		if ctx.Err() != nil {
			return meeting.Meeting{}, ctx.Err()
		}
		switch {
		case err == nil:
		case pollCtx.Err() != nil:
			return meeting.Meeting{}, p.timeoutError(watch, lastStatus)
		case errors.Is(err, services.ErrUnavailable) || errors.Is(err, services.ErrTransport):
			logger.Debug("poll fetch failed; retrying", logging.Int("attempt", attempt), logging.Error(err))
		default:
			return meeting.Meeting{}, err
		}

		if err == nil {
			if hooks.Guard != nil && !hooks.Guard() {
				logger.Debug("poll abandoned", logging.Int("attempt", attempt))
				return meeting.Meeting{}, ErrAbandoned
			}
			if hooks.OnTick != nil {
				hooks.OnTick(meetings)
			}
			if current, ok := meeting.Find(meetings, watch.MeetingID); ok {
				status := strings.ToUpper(strings.TrimSpace(watch.Value(current)))
				if status != lastStatus {
					logger.Debug("poll observed status", logging.String("status", status), logging.Int("attempt", attempt))
				}
				lastStatus = status
				if slices.Contains(watch.Success, status) {
					logger.Info("poll reached terminal status",
						logging.String("status", status),
						logging.Duration("elapsed", time.Since(started)),
					)
					return current, nil
				}
				if slices.Contains(watch.Failure, status) {
					return current, &GenerationFailedError{MeetingID: watch.MeetingID, Field: watch.Field, Status: status}
				}
			}
		}

		select {
		case <-ctx.Done():
			return meeting.Meeting{}, ctx.Err()
		case <-pollCtx.Done():
			return meeting.Meeting{}, p.timeoutError(watch, lastStatus)
		case <-ticker.C:
		}
	}
}

func (p *Poller) timeoutError(watch Watch, lastStatus string) error {
	p.logger.Warn("poll timed out",
		logging.String(logging.FieldMeetingID, watch.MeetingID),
		logging.String("field", watch.Field),
		logging.String("last_status", lastStatus),
		logging.Duration("timeout", p.timeout),
		logging.String(logging.FieldEventType, "poll_timeout"),
		logging.String(logging.FieldErrorHint, "refresh later; the backend may still finish"),
		logging.Alert("poll_timeout"),
	)
	return &TimeoutError{MeetingID: watch.MeetingID, Field: watch.Field, LastStatus: lastStatus, Timeout: p.timeout}
}

// GenerationFailedError reports that the watched field reached a failure value.
type GenerationFailedError struct {
	MeetingID string
	Field     string
	Status    string
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("%s reached %s for meeting %s", e.Field, e.Status, e.MeetingID)
}

func (e *GenerationFailedError) Unwrap() error { return services.ErrGenerationFailed }

// TimeoutError reports that no terminal value was observed in time. LastStatus
// is the most recent value seen, or empty when the meeting never appeared.
type TimeoutError struct {
	MeetingID  string
	Field      string
	LastStatus string
	Timeout    time.Duration
}

func (e *TimeoutError) Error() string {
	last := e.LastStatus
	if last == "" {
		last = "not observed"
	}
	return fmt.Sprintf("timed out after %s waiting for %s (last status: %s)", e.Timeout, e.Field, last)
}

func (e *TimeoutError) Unwrap() error { return services.ErrPollTimeout }
