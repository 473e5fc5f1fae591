package httpserver

import (
	"net/http"
	"time"

	"talaty/internal/platform/config"
)

// readHeaderTimeout is fixed; slow header senders are never legitimate.
const readHeaderTimeout = 5 * time.Second

// New builds the API server from the configured timeouts. Zero values fall
// back to net/http behaviour (no timeout).
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
