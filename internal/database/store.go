package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/edgard/botwarden/internal/errors"
	"github.com/edgard/botwarden/internal/groupme"
	"github.com/edgard/botwarden/internal/migration"
)

// Store defines the persistence operations. All methods accept a context.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Token returns the stored access token, or groupme.ErrNoToken when none is saved.
	Token(ctx context.Context) (string, error)

	// SaveToken stores the access token, replacing any previous one.
	SaveToken(ctx context.Context, token string) error

	// ClearToken removes the stored access token.
	ClearToken(ctx context.Context) error

	// SaveBotSnapshot replaces the stored bot list with bots, keeping their order.
	SaveBotSnapshot(ctx context.Context, bots []groupme.Bot) error

	// ListBotSnapshot returns the stored bot list in display order.
	ListBotSnapshot(ctx context.Context) ([]BotSnapshot, error)

	// RecordMigration appends a finished run to the journal.
	RecordMigration(ctx context.Context, rec migration.Record) error

	// ListMigrations returns the most recent journal entries, newest first.
	ListMigrations(ctx context.Context, limit int) ([]MigrationEntry, error)

	// RunSQLMaintenance prunes old journal entries and runs VACUUM.
	RunSQLMaintenance(ctx context.Context, keep int) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) Token(ctx context.Context) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM credentials WHERE key = ?`, TokenKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", groupme.ErrNoToken
	case err != nil:
		return "", apperrors.NewDatabaseError("failed to read access token", err)
	case value == "":
		return "", groupme.ErrNoToken
	}
	return value, nil
}

func (s *sqlxStore) SaveToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewValidationError("token", "access token must not be empty")
	}

	cred := Credential{Key: TokenKey, Value: token, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at)
		VALUES (:key, :value, :updated_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, cred)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save access token", "error", err)
		return apperrors.NewDatabaseError("failed to save access token", err)
	}
	s.logger.InfoContext(ctx, "Access token saved")
	return nil
}

func (s *sqlxStore) ClearToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, TokenKey); err != nil {
		return apperrors.NewDatabaseError("failed to clear access token", err)
	}
	s.logger.InfoContext(ctx, "Access token cleared")
	return nil
}

func (s *sqlxStore) SaveBotSnapshot(ctx context.Context, bots []groupme.Bot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bot_snapshots`); err != nil {
		return apperrors.NewDatabaseError("failed to clear bot snapshot", err)
	}

	now := time.Now().UTC()
	for i, b := range bots {
		row := BotSnapshot{
			BotID:          b.ID,
			Name:           b.Name,
			GroupID:        b.GroupID,
			GroupName:      b.GroupName,
			AvatarURL:      b.AvatarURL,
			CallbackURL:    b.CallbackURL,
			DMNotification: b.DMNotification,
			Position:       i,
			RefreshedAt:    now,
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO bot_snapshots (
				bot_id, name, group_id, group_name, avatar_url, callback_url,
				dm_notification, position, refreshed_at
			) VALUES (
				:bot_id, :name, :group_id, :group_name, :avatar_url, :callback_url,
				:dm_notification, :position, :refreshed_at
			)
		`, row)
		if err != nil {
			return apperrors.NewDatabaseError(fmt.Sprintf("failed to store bot %s", b.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewDatabaseError("failed to commit bot snapshot", err)
	}
	s.logger.DebugContext(ctx, "Bot snapshot saved", "count", len(bots))
	return nil
}

func (s *sqlxStore) ListBotSnapshot(ctx context.Context) ([]BotSnapshot, error) {
	var rows []BotSnapshot
	err := s.db.SelectContext(ctx, &rows, `
		SELECT bot_id, name, group_id, group_name, avatar_url, callback_url,
		       dm_notification, position, refreshed_at
		FROM bot_snapshots
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to list bot snapshot", err)
	}
	return rows, nil
}

func (s *sqlxStore) RecordMigration(ctx context.Context, rec migration.Record) error {
	entry := MigrationEntry{
		RunID:         rec.RunID,
		BotID:         rec.BotID,
		RequestName:   rec.Request.Name,
		RequestGroup:  rec.Request.GroupID,
		Kind:          string(rec.Outcome.Kind),
		Stage:         string(rec.Outcome.Stage),
		OldBotID:      rec.Outcome.OldBotID,
		NewBotID:      rec.Outcome.NewBotID,
		AvatarCarried: rec.Outcome.AvatarCarried,
		StartedAt:     rec.StartedAt.UTC(),
		FinishedAt:    rec.FinishedAt.UTC(),
	}
	if rec.Outcome.Err != nil {
		entry.ErrorMessage = rec.Outcome.Err.Error()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO migration_journal (
			run_id, bot_id, request_name, request_group, kind, stage,
			old_bot_id, new_bot_id, avatar_carried, error_message, started_at, finished_at
		) VALUES (
			:run_id, :bot_id, :request_name, :request_group, :kind, :stage,
			:old_bot_id, :new_bot_id, :avatar_carried, :error_message, :started_at, :finished_at
		)
	`, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to journal run", "run_id", rec.RunID, "error", err)
		return apperrors.NewDatabaseError("failed to record migration", err)
	}
	return nil
}

func (s *sqlxStore) ListMigrations(ctx context.Context, limit int) ([]MigrationEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	var rows []MigrationEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, run_id, bot_id, request_name, request_group, kind, stage,
		       old_bot_id, new_bot_id, avatar_carried, error_message, started_at, finished_at
		FROM migration_journal
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to list migrations", err)
	}
	return rows, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context, keep int) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	if keep > 0 {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM migration_journal
			WHERE id NOT IN (SELECT id FROM migration_journal ORDER BY id DESC LIMIT ?)
		`, keep)
		if err != nil {
			return apperrors.NewDatabaseError("failed to prune migration journal", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			s.logger.InfoContext(ctx, "Pruned migration journal", "removed", n)
		}
	}

	// VACUUM must run outside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return apperrors.NewDatabaseError("failed to execute VACUUM", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
