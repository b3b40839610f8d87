// Package views renders the operator status page.
package views

//go:generate templ generate

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/a-h/templ"
	"scribbly/internal/game"
)

// Stats are the server-wide figures shown above the room table
type Stats struct {
	Rooms       int
	Connections int
	Uptime      time.Duration
	Version     string
}

// Render renders a component to a string
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func uptime(s Stats) string {
	return s.Uptime.Truncate(time.Second).String()
}

func roundLabel(r game.RoomSummary) string {
	if r.Round == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", r.Round, r.TotalRounds)
}

func playerLabel(r game.RoomSummary) string {
	return fmt.Sprintf("%d/%d", r.Connected, r.Players)
}

func age(r game.RoomSummary) string {
	return time.Since(r.CreatedAt).Truncate(time.Second).String()
}
