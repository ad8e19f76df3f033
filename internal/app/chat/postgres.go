package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gmpro/internal/app/db"
	"gmpro/internal/pkg/randx"
)

const (
	appendRetries = 3
	updateRetries = 3
)

const messageColumns = `key, text, image, user_id, timestamp, reply_id, reactions, is_edited, edited_text, edit_timestamp, is_super_only`

// PostgresStore keeps messages in the chat_messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, meetID string, msg Message) (Message, error) {
	reactions, err := encodeReactions(msg.Reactions)
	if err != nil {
		return Message{}, err
	}

	for attempt := 1; ; attempt++ {
		key, err := randx.MessageKey(time.UnixMilli(msg.Timestamp))
		if err != nil {
			return Message{}, err
		}
		msg.Key = key

		_, err = s.pool.Exec(ctx, `
			INSERT INTO chat_messages (meet_id, `+messageColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12)`,
			meetID, msg.Key, msg.Text, msg.Image, msg.UserID, msg.Timestamp, msg.ReplyID,
			reactions, msg.IsEdited, msg.EditedText, msg.EditTimestamp, msg.IsSuperOnly,
		)
		if err == nil {
			return msg, nil
		}
		if !db.IsUniqueViolation(err) || attempt >= appendRetries {
			return Message{}, fmt.Errorf("insert chat message: %w", err)
		}
	}
}

// Update runs fn on the locked row and writes the result back. Transactions aborted by a
// concurrent writer are retried.
func (s *PostgresStore) Update(ctx context.Context, meetID, key string, fn func(*Message) error) (Message, error) {
	for attempt := 1; ; attempt++ {
		msg, err := s.updateOnce(ctx, meetID, key, fn)
		if err == nil || !db.IsRetryable(err) || attempt >= updateRetries {
			return msg, err
		}
	}
}

func (s *PostgresStore) updateOnce(ctx context.Context, meetID, key string, fn func(*Message) error) (Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE meet_id = $1 AND key = $2
		FOR UPDATE`, meetID, key)

	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrMessageNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("select chat message: %w", err)
	}

	if err := fn(&msg); err != nil {
		return Message{}, err
	}

	reactions, err := encodeReactions(msg.Reactions)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE chat_messages
		SET text = $3, image = $4, reply_id = $5, reactions = $6::jsonb, is_edited = $7,
		    edited_text = $8, edit_timestamp = $9, is_super_only = $10
		WHERE meet_id = $1 AND key = $2`,
		meetID, key, msg.Text, msg.Image, msg.ReplyID, reactions, msg.IsEdited,
		msg.EditedText, msg.EditTimestamp, msg.IsSuperOnly,
	)
	if err != nil {
		return Message{}, fmt.Errorf("update chat message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, fmt.Errorf("commit chat message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) List(ctx context.Context, meetID string, since int64) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE meet_id = $1 AND timestamp >= $2
		ORDER BY key`, meetID, since)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		msg       Message
		reactions []byte
	)

	err := row.Scan(
		&msg.Key, &msg.Text, &msg.Image, &msg.UserID, &msg.Timestamp, &msg.ReplyID,
		&reactions, &msg.IsEdited, &msg.EditedText, &msg.EditTimestamp, &msg.IsSuperOnly,
	)
	if err != nil {
		return Message{}, err
	}

	if len(reactions) > 0 {
		if err := json.Unmarshal(reactions, &msg.Reactions); err != nil {
			return Message{}, fmt.Errorf("decode reactions: %w", err)
		}
		if len(msg.Reactions) == 0 {
			msg.Reactions = nil
		}
	}
	return msg, nil
}

func encodeReactions(reactions map[string][]string) (string, error) {
	if len(reactions) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(reactions)
	if err != nil {
		return "", fmt.Errorf("encode reactions: %w", err)
	}
	return string(b), nil
}
