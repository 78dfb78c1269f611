package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/sentiment"
)

const entryColumns = `id, owner_id, text, selected_mood, sentiment_score, sentiment_label, created_at, updated_at`

func scanEntry(row pgx.Row) (model.JournalEntry, error) {
	var (
		e     model.JournalEntry
		mood  string
		label string
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Text, &mood, &e.SentimentScore, &label, &e.CreatedAt, &e.UpdatedAt)
	e.SelectedMood = model.Mood(mood)
	e.SentimentLabel = sentiment.Label(label)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, err
}

func (db *DB) Insert(ctx context.Context, entry *model.JournalEntry) error {
	id := xid.New().String()
	now := db.clock.Now().UTC()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO journal_entries (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, entry.OwnerID, entry.Text, string(entry.SelectedMood),
		entry.SentimentScore, string(entry.SentimentLabel), now, now,
	)
	if err != nil {
		return apperror.StorageFailure("insert journal entry", err)
	}

	entry.ID = id
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (db *DB) FindByOwner(ctx context.Context, ownerID string) ([]model.JournalEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+entryColumns+`
		 FROM journal_entries
		 WHERE owner_id = $1
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
	e, err := scanEntry(db.pool.QueryRow(ctx,
		`SELECT `+entryColumns+`
		 FROM journal_entries
		 WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("journal entry", id)
		}
		return nil, apperror.StorageFailure("get journal entry", err)
	}
	return &e, nil
}

// ReplaceOwned is one UPDATE ... RETURNING statement, so the filter, the
// write and the read of created_at happen atomically.
func (db *DB) ReplaceOwned(ctx context.Context, entry *model.JournalEntry) error {
	now := db.clock.Now().UTC()

	err := db.pool.QueryRow(ctx,
		`UPDATE journal_entries
		 SET text = $1, selected_mood = $2, sentiment_score = $3, sentiment_label = $4, updated_at = $5
		 WHERE id = $6 AND owner_id = $7
		 RETURNING created_at`,
		entry.Text, string(entry.SelectedMood), entry.SentimentScore,
		string(entry.SentimentLabel), now, entry.ID, entry.OwnerID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("journal entry", entry.ID)
		}
		return apperror.StorageFailure("update journal entry", err)
	}

	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = now
	return nil
}

func (db *DB) DeleteOwned(ctx context.Context, ownerID, id string) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM journal_entries WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return apperror.StorageFailure("delete journal entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("journal entry", id)
	}
	return nil
}
