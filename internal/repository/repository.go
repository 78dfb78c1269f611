// Package repository declares the persistence seams the services depend on.
//
// Implementations live in sub-packages (sqlite, postgres, mongostore) and are
// chosen at startup by the backend package. Every implementation:
//   - assigns IDs and timestamps itself (timestamps in UTC, from a clock)
//   - returns apperror.NotFound when a lookup matches nothing
//   - returns apperror.Conflict on unique-key violations
//   - wraps every other driver error in apperror.StorageFailure
package repository

import (
	"context"

	"github.com/sakif/mood-journal/internal/model"
)

// EntryRepository stores journal entries. Every read and write except Insert
// is filtered by (id, ownerID) together, so an entry belonging to someone else
// looks exactly like one that does not exist.
type EntryRepository interface {
	// Insert assigns ID, CreatedAt and UpdatedAt, then stores the entry.
	Insert(ctx context.Context, entry *model.JournalEntry) error

	// FindByOwner returns all of the owner's entries, newest CreatedAt first.
	FindByOwner(ctx context.Context, ownerID string) ([]model.JournalEntry, error)

	// FindOwned returns one entry matching both id and ownerID.
	FindOwned(ctx context.Context, ownerID, id string) (*model.JournalEntry, error)

	// ReplaceOwned overwrites text, mood, score and label of the entry
	// matching entry.ID and entry.OwnerID in a single statement. It refreshes
	// UpdatedAt and fills CreatedAt from the stored row.
	ReplaceOwned(ctx context.Context, entry *model.JournalEntry) error

	// DeleteOwned permanently removes the entry matching both id and ownerID.
	DeleteOwned(ctx context.Context, ownerID, id string) error
}

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertGitHub creates the user on first GitHub login and refreshes the
	// profile fields afterwards, keeping the internal ID stable.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

// Store is a complete backend: both repositories plus lifecycle hooks.
type Store interface {
	EntryRepository
	UserRepository

	Ping(ctx context.Context) error
	Close() error
}
