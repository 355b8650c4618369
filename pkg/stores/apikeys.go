package stores

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/greener-project/greener/pkg/model"
)

type APIKeyStore struct {
	db *bun.DB
}

func NewAPIKeyStore(bdb *bun.DB) *APIKeyStore {
	return &APIKeyStore{db: bdb}
}

func (s *APIKeyStore) Create(ctx context.Context, key *model.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = now()
	key.UpdatedAt = key.CreatedAt

	_, err := s.db.NewInsert().Model(key).Exec(ctx)
	return errors.Wrap(err, "inserting api key")
}

func (s *APIKeyStore) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.APIKey, int, error) {
	var keys []model.APIKey
	total, err := s.db.NewSelect().Model(&keys).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing api keys")
	}
	return keys, total, nil
}

func (s *APIKeyStore) Get(ctx context.Context, userID, id uuid.UUID) (*model.APIKey, error) {
	key := &model.APIKey{}
	err := s.db.NewSelect().Model(key).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting api key")
	}
	return key, nil
}

// GetAny looks an API key up by id alone. It backs X-API-Key
// verification, which happens before any user is known.
func (s *APIKeyStore) GetAny(ctx context.Context, id uuid.UUID) (*model.APIKey, error) {
	key := &model.APIKey{}
	err := s.db.NewSelect().Model(key).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting api key")
	}
	return key, nil
}

func (s *APIKeyStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.NewDelete().Model((*model.APIKey)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "deleting api key")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
