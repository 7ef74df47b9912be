// Package logger builds the slog loggers used across the subsystem and
// provides typed attribute helpers so log keys stay consistent between the
// notification service, the gateway and the HTTP layer.
package logger
