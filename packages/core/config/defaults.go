package config

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		AssertReceiveTimeout: 100,
		RefuteReceiveTimeout: 100,
		Parallel:             BoolPtr(false),
		Concurrency:          5,
		Bail:                 BoolPtr(false),
		Verbose:              BoolPtr(false),
		NoColor:              BoolPtr(false),
		Reporters:            []string{"console"},
		OutputDir:            "",
		HistoryDB:            "",
	}
}
