package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/rs/xid"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
)

const userColumns = `id, username, email, password_hash, github_id, login, avatar_url, created_at, updated_at`

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&githubID,
		&u.Login,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func nullableGitHubID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// Create inserts a new account. A duplicate email is reported as Conflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	id := xid.New().String()
	now := db.clock.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.Login,
		user.AvatarURL,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return apperror.StorageFailure("create user", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.StorageFailure("get user", err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND email <> ''`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, apperror.StorageFailure("get user by email", err)
	}
	return u, nil
}

// UpsertGitHub keys on github_id. An existing row keeps its internal ID and
// CreatedAt; only login, email and avatar are refreshed. Lookup and write run
// in one transaction so two concurrent first logins cannot both insert.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return apperror.ValidationFailed("githubId", "GitHub ID is required")
	}
	key := strconv.FormatInt(*user.GitHubID, 10)
	now := db.clock.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StorageFailure("upsert GitHub user", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	existing, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, *user.GitHubID,
	))
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET login = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Login, user.Email, user.AvatarURL, now, existing.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Email)
			}
			return apperror.StorageFailure("upsert GitHub user", err)
		}
		user.ID = existing.ID
		user.Username = existing.Username
		user.CreatedAt = existing.CreatedAt

	case errors.Is(err, sql.ErrNoRows):
		user.ID = xid.New().String()
		user.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Username, user.Email, user.PasswordHash,
			nullableGitHubID(user.GitHubID), user.Login, user.AvatarURL, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", "github:"+key)
			}
			return apperror.StorageFailure("upsert GitHub user", err)
		}

	default:
		return apperror.StorageFailure("upsert GitHub user", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.StorageFailure("upsert GitHub user", err)
	}
	user.UpdatedAt = now
	return nil
}
