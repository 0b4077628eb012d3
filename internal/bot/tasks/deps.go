// Package tasks implements the bot's scheduled maintenance tasks.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/telesco/internal/config"
	"github.com/edgard/telesco/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
	Now    func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
