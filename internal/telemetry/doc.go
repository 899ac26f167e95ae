// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//
// Prometheus метрики живут рядом с кодом, который их считает
// (см. internal/scheduler/metrics.go); daemon экспортирует их
// на /metrics endpoint.
package telemetry
