package logger

import "time"

// Console implements a console based logger.
type Console struct {
	Enabled          bool `toml:"enabled" mapstructure:"enabled"`
	UseConsoleWriter bool
}

// LogFile implements a file based logger.
type LogFile struct {
	// Legacy non docker env file logging.
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`

	AccessLog        string `toml:"access" mapstructure:"access"`
	AccessMaxSize    int    `toml:"accessMaxSize" mapstructure:"accessMaxSize"`
	AccessMaxBackups int    `toml:"accessMaxBackups" mapstructure:"accessMaxBackups"`
	AccessMaxAge     int    `toml:"accessMaxAge" mapstructure:"accessMaxAge"`

	ErrorLog        string `toml:"error" mapstructure:"error"`
	ErrorMaxSize    int    `toml:"errorMaxSize" mapstructure:"errorMaxSize"`
	ErrorMaxBackups int    `toml:"errorMaxBackups" mapstructure:"errorMaxBackups"`
	ErrorMaxAge     int    `toml:"errorMaxAge" mapstructure:"errorMaxAge"`

	InfoLog        string `toml:"info" mapstructure:"info"`
	InfoMaxSize    int    `toml:"infoMaxSize" mapstructure:"infoMaxSize"`
	InfoMaxBackups int    `toml:"infoMaxBackups" mapstructure:"infoMaxBackups"`
	InfoMaxAge     int    `toml:"infoMaxAge" mapstructure:"infoMaxAge"`

	TraceLog        string `toml:"trace" mapstructure:"trace"`
	TraceMaxSize    int    `toml:"traceMaxSize" mapstructure:"traceMaxSize"`
	TraceMaxBackups int    `toml:"traceMaxBackups" mapstructure:"traceMaxBackups"`
	TraceMaxAge     int    `toml:"traceMaxAge" mapstructure:"traceMaxAge"`

	WarnLog        string `toml:"warn" mapstructure:"warn"`
	WarnMaxSize    int    `toml:"warnMaxSize" mapstructure:"warnMaxSize"`
	WarnMaxBackups int    `toml:"warnMaxBackups" mapstructure:"warnMaxBackups"`
	WarnMaxAge     int    `toml:"warnMaxAge" mapstructure:"warnMaxAge"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole if true any feed service having a webservice, will start to log to console.
	// Does not overrule flag Console.Enabled!
	// If Console.Enabled is false, still no access log output to the console will be shown.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	// Console used mainly for docker and dev.
	Console Console

	// Legacy non docker env file logging.
	File LogFile `toml:"file" mapstructure:"file"`

	// SQL configures the gorm adapter.
	SQL SQL
}

// SQL implements the database statement logging config.
type SQL struct {
	// Enabled logs every statement at debug level.
	Enabled bool
	// SlowThreshold logs statements running longer at warn level; 0 disables it.
	SlowThreshold time.Duration
}
