package history

import (
	"context"
	"database/sql/driver"
	"log/slog"
	"time"

	"github.com/networkteam/go-sqllogger"
)

// queryLogger writes executed statements to a slog logger at debug level.
type queryLogger struct {
	logger *slog.Logger
}

func newQueryLogger(logger *slog.Logger) sqllogger.SQLLogger {
	return &queryLogger{logger: logger.With("component", "history")}
}

var _ sqllogger.SQLLogger = &queryLogger{}

func (l *queryLogger) log(ctx context.Context, query string, args []driver.NamedValue) {
	_, duration := timingFromContext(ctx)
	l.logger.DebugContext(ctx, "SQL statement",
		slog.String("query", query),
		slog.Int("args", len(args)),
		slog.Duration("duration", duration),
	)
}

func (l *queryLogger) ConnBegin(ctx context.Context, connID int64, txID int64, opts driver.TxOptions) {
}

func (l *queryLogger) ConnClose(ctx context.Context, connID int64) {
}

func (l *queryLogger) ConnExec(ctx context.Context, connID int64, query string, args []driver.Value) {
	l.log(ctx, query, toNamedValues(args))
}

func (l *queryLogger) ConnExecContext(ctx context.Context, connID int64, query string, args []driver.NamedValue) {
	l.log(ctx, query, args)
}

func (l *queryLogger) ConnPrepare(ctx context.Context, connID int64, stmtID int64, query string) {
}

func (l *queryLogger) ConnPrepareContext(ctx context.Context, connID int64, stmtID int64, query string) {
}

func (l *queryLogger) ConnQuery(ctx context.Context, connID int64, rowsID int64, query string, args []driver.Value) {
	l.log(ctx, query, toNamedValues(args))
}

func (l *queryLogger) ConnQueryContext(ctx context.Context, connID int64, rowsID int64, query string, args []driver.NamedValue) {
	l.log(ctx, query, args)
}

func (l *queryLogger) Connect(ctx context.Context, connID int64) {
}

func (l *queryLogger) RowsClose(ctx context.Context, rowsID int64) {
}

func (l *queryLogger) StmtClose(ctx context.Context, stmtID int64) {
}

func (l *queryLogger) StmtExec(ctx context.Context, stmtID int64, query string, args []driver.Value) {
	l.log(ctx, query, toNamedValues(args))
}

func (l *queryLogger) StmtExecContext(ctx context.Context, stmtID int64, query string, args []driver.NamedValue) {
	l.log(ctx, query, args)
}

func (l *queryLogger) StmtQuery(ctx context.Context, stmtID int64, rowsID int64, query string, args []driver.Value) {
	l.log(ctx, query, toNamedValues(args))
}

func (l *queryLogger) StmtQueryContext(ctx context.Context, stmtID int64, rowsID int64, query string, args []driver.NamedValue) {
	l.log(ctx, query, args)
}

func (l *queryLogger) TxCommit(ctx context.Context, txID int64) {
	l.logger.DebugContext(ctx, "SQL commit", slog.Int64("tx", txID))
}

func (l *queryLogger) TxRollback(ctx context.Context, txID int64) {
	l.logger.DebugContext(ctx, "SQL rollback", slog.Int64("tx", txID))
}

func toNamedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}
	return named
}

func timingFromContext(ctx context.Context) (time.Time, time.Duration) {
	timing, ok := sqllogger.GetTiming(ctx)
	if !ok {
		return time.Now(), 0
	}
	return timing.Start, timing.End.Sub(timing.Start)
}
