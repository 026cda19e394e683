package app

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/murmurlabs/murmur/internal/config"
)

// notifier returns a desktop notification function. Notifications are
// best effort; a failed popup never changes the session outcome.
func notifier(cfg config.Config, log *slog.Logger) func(title, message string) {
	if !cfg.Notify.Enabled {
		return func(string, string) {}
	}
	return func(title, message string) {
		if err := beeep.Notify(title, message, ""); err != nil {
			log.Warn("desktop notification failed",
				slog.String("title", title),
				slog.String("error", err.Error()))
		}
	}
}
