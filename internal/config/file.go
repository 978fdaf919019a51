package config

// ServerSection configures the HTTP API.
type ServerSection struct {
	// Listen is the "host:port" to bind, for example ":8000".
	Listen string `yaml:"listen,omitempty"`

	// CORSOrigins lists allowed origins. Use ["*"] to allow any origin.
	CORSOrigins []string `yaml:"corsOrigins,omitempty"`

	// RateLimitPerMinute caps requests per client address.
	// A pointer so that an explicit 0 can disable the limit.
	RateLimitPerMinute *int `yaml:"rateLimitPerMinute,omitempty"`
}

// AnalysisSection configures batch analysis.
type AnalysisSection struct {
	// MaxBulkURLs is the largest list accepted by bulk analysis.
	MaxBulkURLs int `yaml:"maxBulkUrls,omitempty"`

	// Concurrency is the number of URLs analyzed at once.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// DatabaseSection configures scan persistence.
type DatabaseSection struct {
	// Dir is the directory holding phishguard.db.
	Dir string `yaml:"dir,omitempty"`

	// Disabled turns persistence off.
	Disabled bool `yaml:"disabled,omitempty"`
}

// File represents the structure of the .phishguard configuration file.
type File struct {
	Server   ServerSection   `yaml:"server,omitempty"`
	Analysis AnalysisSection `yaml:"analysis,omitempty"`
	Database DatabaseSection `yaml:"database,omitempty"`
}

// ApplyFile copies every value set in f over the current configuration.
// Zero values in f leave the configuration unchanged.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	if f.Server.Listen != "" {
		c.ListenAddress = f.Server.Listen
	}
	if len(f.Server.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), f.Server.CORSOrigins...)
	}
	if f.Server.RateLimitPerMinute != nil {
		c.RateLimitPerMinute = *f.Server.RateLimitPerMinute
	}

	if f.Analysis.MaxBulkURLs != 0 {
		c.MaxBulkURLs = f.Analysis.MaxBulkURLs
	}
	if f.Analysis.Concurrency != 0 {
		c.BatchSize = f.Analysis.Concurrency
	}

	if f.Database.Dir != "" {
		c.DBDir = f.Database.Dir
	}
	if f.Database.Disabled {
		c.SaveToDB = false
	}
}
