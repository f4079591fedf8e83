package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/postbrowser/internal/adapter"
	"github.com/mmcdole/postbrowser/internal/domain"
)

// Ensure Client satisfies the repository the UI depends on
var _ domain.PostRepository = (*Client)(nil)

// NewClientFromConfig creates a collection client from the application config
func NewClientFromConfig(cfg *adapter.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.Source.URL == "" {
		return nil, fmt.Errorf("source URL is required")
	}
	return NewClient(cfg.Source.URL, cfg.Source.Timeout, logger), nil
}
