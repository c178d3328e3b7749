package config

const (
	defaultDataDir   = "data"
	defaultDBName    = "catalog.db"
	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
	defaultTimeZone  = "UTC"
)

// Default returns a Config populated with repository defaults. Every
// catalog flag starts off.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Catalog: Catalog{
			TimeZone: defaultTimeZone,
		},
	}
}
