package postgres

import (
	"context"
	"sort"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
)

func newQueryTracer() pgx.QueryTracer {
	return &tracelog.TraceLog{
		Logger:   tracelog.LoggerFunc(logQuery),
		LogLevel: tracelog.LogLevelDebug,
	}
}

// logQuery forwards pgx trace events to the application logger.
func logQuery(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys)+2)
	kv = append(kv, "component", "pgx")
	for _, k := range keys {
		kv = append(kv, k, data[k])
	}

	switch level {
	case tracelog.LogLevelError:
		log.Errorw(msg, kv...)
	case tracelog.LogLevelWarn:
		log.Warnw(msg, kv...)
	case tracelog.LogLevelInfo:
		log.Infow(msg, kv...)
	default:
		log.Debugw(msg, kv...)
	}
}
