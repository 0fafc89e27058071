package api

import "github.com/rs/zerolog"

// Notifier receives exactly one user-visible message per unrecoverable
// request failure. The presentation channel (toast, status line) is a
// caller concern.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

// NewLogNotifier returns a Notifier that writes messages to the logger
// at warn level. Used as the default when no UI channel is wired.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	logger = logger.With().Str("component", "notifier").Logger()
	return NotifierFunc(func(message string) {
		logger.Warn().Str("message", message).Msg("request failed")
	})
}
