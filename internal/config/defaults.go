package config

import "os"

const (
	defaultDataDir              = "~/.local/share/marquee"
	defaultLogDir               = "~/.local/share/marquee/logs"
	defaultBaseURL              = "http://localhost:4000/"
	defaultRequestTimeout       = 10
	defaultDownloadTimeout      = 60
	defaultStateTimeout         = 2
	defaultScreenWidth          = 1920
	defaultScreenHeight         = 1080
	defaultPollInterval         = 5
	defaultTickIntervalMillis   = 100
	defaultHeartbeatInterval    = 60
	defaultErrorBackoffSeconds  = 2
	defaultImageDuration        = 5
	defaultTickerText           = "WELCOME"
	defaultTickerSpeed          = 2
	defaultTickerMargin         = 100
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return Config{
		CMS: CMS{
			BaseURL:         defaultBaseURL,
			RequestTimeout:  defaultRequestTimeout,
			DownloadTimeout: defaultDownloadTimeout,
			StateTimeout:    defaultStateTimeout,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Player: Player{
			Name:                 "Display-" + hostname,
			Location:             "Unknown Location",
			ScreenWidth:          defaultScreenWidth,
			ScreenHeight:         defaultScreenHeight,
			PollInterval:         defaultPollInterval,
			TickIntervalMillis:   defaultTickIntervalMillis,
			HeartbeatInterval:    defaultHeartbeatInterval,
			ErrorBackoffSeconds:  defaultErrorBackoffSeconds,
			DefaultImageDuration: defaultImageDuration,
		},
		Ticker: Ticker{
			Text:   defaultTickerText,
			Speed:  defaultTickerSpeed,
			Margin: defaultTickerMargin,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
