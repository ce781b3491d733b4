// Package audit records chat function usage in a relational table so
// per-user consumption can be accounted for server-side. The trail is an
// optional feature: without a database URL the service runs without it.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ChatUsage is one audited chat function invocation
type ChatUsage struct {
	UserID           string
	ThreadID         string
	Model            string
	Provider         string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	LatencyMS        int64
	Timestamp        time.Time
}

// Logger handles chat usage audit logging
type Logger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(db *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the usage table when it does not exist yet
func (l *Logger) EnsureSchema(ctx context.Context) error {
	_, err := l.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_usage (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			thread_id TEXT,
			model TEXT NOT NULL,
			provider TEXT NOT NULL,
			prompt_tokens BIGINT NOT NULL DEFAULT 0,
			completion_tokens BIGINT NOT NULL DEFAULT 0,
			total_tokens BIGINT NOT NULL DEFAULT 0,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Log records one chat invocation
func (l *Logger) Log(ctx context.Context, entry ChatUsage) error {
	// Set timestamp if not provided
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// Log to structured logger first
	l.logger.Info("Chat usage entry",
		zap.String("user_id", entry.UserID),
		zap.String("thread_id", entry.ThreadID),
		zap.String("model", entry.Model),
		zap.String("provider", entry.Provider),
		zap.Int64("total_tokens", entry.TotalTokens),
		zap.Int64("latency_ms", entry.LatencyMS),
	)

	// Store in database
	query := `
		INSERT INTO chat_usage (
			user_id, thread_id, model, provider,
			prompt_tokens, completion_tokens, total_tokens,
			latency_ms, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := l.db.Exec(ctx, query,
		entry.UserID,
		entry.ThreadID,
		entry.Model,
		entry.Provider,
		entry.PromptTokens,
		entry.CompletionTokens,
		entry.TotalTokens,
		entry.LatencyMS,
		entry.Timestamp,
	)

	if err != nil {
		l.logger.Error("Failed to write chat usage to database",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("model", entry.Model),
		)
		return err
	}

	return nil
}

// UsageToday returns how many invocations a user made since local midnight.
// The daily message limit check in the chat function uses this.
func (l *Logger) UsageToday(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM chat_usage
		WHERE user_id = $1 AND timestamp >= date_trunc('day', NOW())
	`

	var count int
	if err := l.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
