package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/xid"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/sentiment"
)

const entryColumns = `id, owner_id, text, selected_mood, sentiment_score, sentiment_label, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (model.JournalEntry, error) {
	var (
		e     model.JournalEntry
		mood  string
		label string
	)
	err := s.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Text,
		&mood,
		&e.SentimentScore,
		&label,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	e.SelectedMood = model.Mood(mood)
	e.SentimentLabel = sentiment.Label(label)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, err
}

// Insert stores a new entry. ID and timestamps are only written back to the
// caller's struct once the row is committed.
func (db *DB) Insert(ctx context.Context, entry *model.JournalEntry) error {
	id := xid.New().String()
	now := db.clock.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO journal_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		entry.OwnerID,
		entry.Text,
		string(entry.SelectedMood),
		entry.SentimentScore,
		string(entry.SentimentLabel),
		now,
		now,
	)
	if err != nil {
		return apperror.StorageFailure("insert journal entry", err)
	}

	entry.ID = id
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// FindByOwner returns the owner's entries, newest first. The id tiebreak keeps
// the order stable when two entries share a timestamp.
func (db *DB) FindByOwner(ctx context.Context, ownerID string) ([]model.JournalEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+entryColumns+`
		 FROM journal_entries
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, apperror.StorageFailure("list journal entries", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.StorageFailure("list journal entries", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageFailure("list journal entries", err)
	}

	return entries, nil
}

func (db *DB) FindOwned(ctx context.Context, ownerID, id string) (*model.JournalEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+entryColumns+`
		 FROM journal_entries
		 WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("journal entry", id)
		}
		return nil, apperror.StorageFailure("get journal entry", err)
	}

	return &e, nil
}

// ReplaceOwned rewrites the mutable columns of one entry.
//
// The UPDATE is filtered by id AND owner_id, so a foreign entry simply
// matches zero rows and reports NotFound. The follow-up SELECT runs in the
// same transaction and only reads created_at back for the response.
func (db *DB) ReplaceOwned(ctx context.Context, entry *model.JournalEntry) error {
	now := db.clock.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StorageFailure("update journal entry", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx,
		`UPDATE journal_entries
		 SET text = ?, selected_mood = ?, sentiment_score = ?, sentiment_label = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		entry.Text,
		string(entry.SelectedMood),
		entry.SentimentScore,
		string(entry.SentimentLabel),
		now,
		entry.ID,
		entry.OwnerID,
	)
	if err != nil {
		return apperror.StorageFailure("update journal entry", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperror.StorageFailure("update journal entry", err)
	}
	if n == 0 {
		return apperror.NotFound("journal entry", entry.ID)
	}

	var createdAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT created_at FROM journal_entries WHERE id = ?`, entry.ID,
	).Scan(&createdAt)
	if err != nil {
		return apperror.StorageFailure("update journal entry", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.StorageFailure("update journal entry", err)
	}

	entry.CreatedAt = createdAt.Time.UTC()
	entry.UpdatedAt = now
	return nil
}

func (db *DB) DeleteOwned(ctx context.Context, ownerID, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return apperror.StorageFailure("delete journal entry", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperror.StorageFailure("delete journal entry", err)
	}
	if n == 0 {
		return apperror.NotFound("journal entry", id)
	}

	return nil
}
