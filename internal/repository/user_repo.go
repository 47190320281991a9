package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

var _ service.UserRepository = (*UserRepository)(nil)

const userColumns = `id, username, password_hash, first_name, last_name, age, height_cm, gender, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		u.Username, u.PasswordHash,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if created == nil {
		return fmt.Errorf("user %d vanished after insert", id)
	}
	*u = *created
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateProfile writes only the fields set in p.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, p domain.ProfileUpdate) error {
	q := sq.Update("users").Where(sq.Eq{"id": id})
	if p.FirstName != nil {
		q = q.Set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		q = q.Set("last_name", *p.LastName)
	}
	if p.Age != nil {
		q = q.Set("age", *p.Age)
	}
	if p.HeightCM != nil {
		q = q.Set("height_cm", *p.HeightCM)
	}
	if p.Gender != nil {
		q = q.Set("gender", *p.Gender)
	}
	if p.IsEmpty() {
		return nil
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build profile update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes the user; weights and metric entries follow through
// ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return nil
}
