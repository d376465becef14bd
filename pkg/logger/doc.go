// Package logger builds configured log/slog loggers with environment
// presets and optional context attribute extraction.
//
// The service entrypoint typically creates one logger and installs it as
// the default:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, "pulse"),
//		logger.WithContextExtractors(requestIDExtractor),
//	)
//	logger.SetAsDefault(log)
package logger
