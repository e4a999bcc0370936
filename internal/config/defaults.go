package config

const (
	defaultConfigPath            = "~/.config/meetingassist/config.toml"
	projectConfigName            = "meetingassist.toml"
	defaultStateDir              = "~/.local/share/meetingassist"
	defaultLogDir                = "~/.local/share/meetingassist/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultRequestTimeoutSeconds = 30
	defaultPollTimeoutSeconds    = 120
	defaultPollIntervalMillis    = 2500
	defaultDashboardRefresh      = 10

	envAPIBaseURL        = "MEETINGASSIST_API_BASE_URL"
	envClientsAPIBaseURL = "MEETINGASSIST_CLIENTS_API_BASE_URL"
)

// Default returns a Config populated with repository defaults. The API base
// URLs have no default; they must come from the config file or environment.
func Default() Config {
	return Config{
		API: API{
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Poll: Poll{
			TimeoutSeconds: defaultPollTimeoutSeconds,
			IntervalMillis: defaultPollIntervalMillis,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Dashboard: Dashboard{
			RefreshSeconds: defaultDashboardRefresh,
		},
	}
}
