package internal

import "time"

// Config holds every tunable of the chat server, loaded from the
// environment. Values without a default are required at startup.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	// HistoryWindow bounds how far back the history sent on join reaches.
	HistoryWindow time.Duration `env:"HISTORY_WINDOW,default=24h"`

	AuthTokenSecret   string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	// ConnectionBufferSize is the per-connection outbound queue; a client
	// further behind than this starts losing events.
	ConnectionBufferSize int `env:"CONNECTION_BUFFER_SIZE,default=256"`
	IndexBufferSize      int `env:"INDEX_BUFFER_SIZE,default=1024"`
	MaxMessageSize       int64 `env:"MAX_MESSAGE_SIZE,default=8192"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=10s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	// DebugPort serves the storage inspect page; 0 disables it.
	DebugPort int `env:"DEBUG_PORT,default=0"`
}
