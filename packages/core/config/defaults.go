package config

// DefaultHistoryPath is relative to the user's home directory.
const DefaultHistoryPath = ".rq/history.db"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: boolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     boolPtr(true),
		Proxy:           "",
		Headers:         nil,
		Parallel:        boolPtr(false),
		Concurrency:     5,
		Rate:            0,
		History:         boolPtr(true),
		HistoryPath:     DefaultHistoryPath,
		NoColor:         boolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		len(c.Variables) == 0 &&
		len(c.EnvFiles) == 0 &&
		c.GetParallel() == defaults.GetParallel() &&
		c.Concurrency == defaults.Concurrency &&
		c.Rate == defaults.Rate &&
		c.GetHistory() == defaults.GetHistory() &&
		c.HistoryPath == defaults.HistoryPath &&
		c.GetNoColor() == defaults.GetNoColor()
}
