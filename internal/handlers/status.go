package handlers

import (
	"net/http"
	"net/url"

	"github.com/skip2/go-qrcode"

	"github.com/aaronzipp/echo-chamber/internal/metrics"
	"github.com/aaronzipp/echo-chamber/internal/store"
)

// QRSize is the edge length of join QR codes in pixels
const QRSize = 256

// HandleHealth reports server metrics; 503 once capacity is critical
func (ctx *Context) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := ctx.Metrics.Snapshot()

	status := http.StatusOK
	if snapshot.HealthStatus == metrics.StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, snapshot)
}

// HandleQR serves a PNG QR code of a live room's join link
func (ctx *Context) HandleQR(w http.ResponseWriter, r *http.Request) {
	code := store.NormalizeCode(r.PathValue("code"))
	if !ctx.Registry.Exists(code) {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(ctx.JoinURL(code), qrcode.Medium, QRSize)
	if err != nil {
		ctx.Logger.Error("encoding qr code", "room", code, "error", err)
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// JoinURL is the link participants open to join a room
func (ctx *Context) JoinURL(code string) string {
	return ctx.PublicURL + "/?room=" + url.QueryEscape(code)
}
