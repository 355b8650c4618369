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

type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(bdb *bun.DB) *SessionStore {
	return &SessionStore{db: bdb}
}

// Create inserts a session. The id may be client-supplied; a colliding
// id is reported as ErrDuplicate.
func (s *SessionStore) Create(ctx context.Context, session *model.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = now()
	session.UpdatedAt = session.CreatedAt

	_, err := s.db.NewInsert().Model(session).Exec(ctx)
	if db.IsDuplicateKey(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "inserting session")
}

func (s *SessionStore) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.Session, int, error) {
	var sessions []model.Session
	total, err := s.db.NewSelect().Model(&sessions).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing sessions")
	}
	return sessions, total, nil
}

func (s *SessionStore) Get(ctx context.Context, userID, id uuid.UUID) (*model.Session, error) {
	session := &model.Session{}
	err := s.db.NewSelect().Model(session).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting session")
	}
	return session, nil
}

// GetAny looks a session up by id alone. Ingress uses it to
// distinguish an unknown session from one owned by another user.
func (s *SessionStore) GetAny(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session := &model.Session{}
	err := s.db.NewSelect().Model(session).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting session")
	}
	return session, nil
}
