package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaronzipp/echo-chamber/internal/metrics"
	"github.com/aaronzipp/echo-chamber/internal/store"
	"github.com/aaronzipp/echo-chamber/internal/ws"
)

// Context holds shared application dependencies
type Context struct {
	Registry *store.Registry
	Hub      *ws.Hub
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// PublicURL is the base of the join link encoded in QR codes
	PublicURL string
	// AllowedOrigins are extra origin patterns accepted on upgrade
	AllowedOrigins []string
}

// Routes registers every endpoint on a new mux
func (ctx *Context) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", ctx.HandleWS)
	mux.HandleFunc("GET /healthz", ctx.HandleHealth)
	mux.HandleFunc("GET /qr/{code}", ctx.HandleQR)
	return mux
}
