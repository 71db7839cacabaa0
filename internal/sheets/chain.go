package sheets

import (
	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/config"
)

// NewDefaultChain builds credential -> API key -> published export from configuration.
// defaultCredential is the content of the configured credentials file, if any.
func NewDefaultChain(cfg config.SheetsConfig, defaultCredential []byte, log zerolog.Logger) *Chain {
	return NewChain(log,
		NewCredentialFetcher(defaultCredential, GoogleTokenSource, cfg.APIBaseURL),
		NewAPIKeyFetcher(cfg.APIKey, cfg.APIBaseURL),
		NewExportFetcher(cfg.ExportBaseURL, cfg.HTTPTimeout, cfg.ExportFallback, log),
	)
}
