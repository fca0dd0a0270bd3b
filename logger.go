package signup

import "github.com/rs/zerolog"

// ZerologLogger adapts a zerolog.Logger to the Logger interface so
// embedding applications with structured logging can reuse it here.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps the given zerolog logger.
func NewZerologLogger(log zerolog.Logger) ZerologLogger {
	return ZerologLogger{log: log}
}

// Debug implements Logger.
func (z ZerologLogger) Debug(format string, args ...any) {
	z.log.Debug().Msgf(format, args...)
}

// Info implements Logger.
func (z ZerologLogger) Info(format string, args ...any) {
	z.log.Info().Msgf(format, args...)
}

// Warn implements Logger.
func (z ZerologLogger) Warn(format string, args ...any) {
	z.log.Warn().Msgf(format, args...)
}

// Error implements Logger.
func (z ZerologLogger) Error(format string, args ...any) {
	z.log.Error().Msgf(format, args...)
}
