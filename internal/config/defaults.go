package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shirabe/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/shirabe/data/indices/bleve"
	}
	if cfg.Storage.FilesDir == "" {
		cfg.Storage.FilesDir = "/usr/local/var/shirabe/data/files"
	}
	if cfg.Storage.LinkTTLSeconds == 0 {
		cfg.Storage.LinkTTLSeconds = 3600
	}
	if cfg.Retrieval.ExactMatchThreshold == 0 {
		cfg.Retrieval.ExactMatchThreshold = 3
	}
	if cfg.Retrieval.PrecisionLimit == 0 {
		cfg.Retrieval.PrecisionLimit = 50
	}
	if cfg.Retrieval.RecallLimit == 0 {
		cfg.Retrieval.RecallLimit = 10
	}
	if cfg.Retrieval.ForcedLimit == 0 {
		cfg.Retrieval.ForcedLimit = 10
	}
	if cfg.Retrieval.SearchTimeoutSeconds == 0 {
		cfg.Retrieval.SearchTimeoutSeconds = 15
	}
	if cfg.Assembly.PageBudget == 0 {
		cfg.Assembly.PageBudget = 25
	}
	if cfg.Assembly.CharBudget == 0 {
		cfg.Assembly.CharBudget = 8000
	}
	if cfg.Assembly.Policy == "" {
		cfg.Assembly.Policy = "diversity"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".xlsx", ".docx", ".odt", ".rtf", ".txt", ".md"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
