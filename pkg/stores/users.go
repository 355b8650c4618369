package stores

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/greener-project/greener/pkg/db"
	"github.com/greener-project/greener/pkg/model"
)

type UserStore struct {
	db *bun.DB
}

func NewUserStore(bdb *bun.DB) *UserStore {
	return &UserStore{db: bdb}
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	_, err := s.db.NewInsert().Model(user).Exec(ctx)
	if db.IsDuplicateKey(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "inserting user")
}

func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user := &model.User{}
	err := s.db.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting user")
	}
	return user, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := s.db.NewSelect().Model(user).Where("username = ?", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting user by username")
	}
	return user, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, salt, hash []byte) error {
	res, err := s.db.NewUpdate().Model((*model.User)(nil)).
		Set("password_salt = ?", salt).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
