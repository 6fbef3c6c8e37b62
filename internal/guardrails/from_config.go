package guardrails

import "github.com/vexsearch/vexdb/internal/config"

// FromConfig creates Limits from a config.WriteConfig.
func FromConfig(cfg config.WriteConfig) Limits {
	return Limits{
		MaxWriteBatchSize:     cfg.GetMaxBatchSize(),
		MaxMessageSizeBytes:   cfg.MaxMessageSizeBytes(),
		MaxDocumentSizeBytes:  cfg.MaxDocumentSizeBytes(),
		MaxConcurrentRequests: cfg.GetMaxConcurrentRequests(),
	}
}
