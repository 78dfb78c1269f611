package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
)

const userColumns = `id, username, email, password_hash, github_id, login, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.GitHubID,
		&u.Login, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (db *DB) Create(ctx context.Context, user *model.User) error {
	id := xid.New().String()
	now := db.clock.Now().UTC()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, user.Username, user.Email, user.PasswordHash, user.GitHubID,
		user.Login, user.AvatarURL, now, now,
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
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.StorageFailure("get user", err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND email <> ''`, email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, apperror.StorageFailure("get user by email", err)
	}
	return u, nil
}

// UpsertGitHub relies on ON CONFLICT (github_id): the first login inserts,
// later ones refresh the profile while keeping id and created_at.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return apperror.ValidationFailed("githubId", "GitHub ID is required")
	}
	now := db.clock.Now().UTC()

	u, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, '', $2, '', $3, $4, $5, $6, $6)
		 ON CONFLICT (github_id) DO UPDATE
		 SET login = EXCLUDED.login, email = EXCLUDED.email,
		     avatar_url = EXCLUDED.avatar_url, updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		xid.New().String(), user.Email, *user.GitHubID, user.Login, user.AvatarURL, now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "github:"+strconv.FormatInt(*user.GitHubID, 10))
		}
		return apperror.StorageFailure("upsert GitHub user", err)
	}

	*user = *u
	return nil
}
