package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"go.uber.org/zap"
	"scribbly/internal/store"
)

// RoomQR serves a PNG QR code that links to the room's invite URL
func (h *Handler) RoomQR(w http.ResponseWriter, r *http.Request) {
	code := store.NormalizeCode(chi.URLParam(r, "code"))
	if _, err := h.store.GetRoom(code); err != nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	png, err := generateQRCode(h.inviteURL(r, code))
	if err != nil {
		h.log.Error("failed to generate QR code", zap.String("room", code), zap.Error(err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// inviteURL is where a scanned code sends a player
func (h *Handler) inviteURL(r *http.Request, code string) string {
	base := strings.TrimRight(h.config.Server.PublicURL, "/")
	if base == "" {
		base = getBaseURL(r)
	}
	return base + "/?room=" + url.QueryEscape(code)
}

// generateQRCode renders url as a PNG
func generateQRCode(url string) ([]byte, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	tmp, err := os.CreateTemp("", "scribbly-qr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	w, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	// Save closes the writer
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	return data, nil
}

// getBaseURL constructs the base URL from the request
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}
	return scheme + "://" + host
}
