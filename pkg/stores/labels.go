package stores

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/greener-project/greener/pkg/model"
)

type LabelStore struct {
	db *bun.DB
}

func NewLabelStore(bdb *bun.DB) *LabelStore {
	return &LabelStore{db: bdb}
}

// InsertMany inserts labels in a single multi-row statement. Callers
// scope labels to a session they already created; duplicates of
// (session_id, key) are permitted.
func (s *LabelStore) InsertMany(ctx context.Context, labels []model.Label) error {
	if len(labels) == 0 {
		return nil
	}
	created := now()
	for i := range labels {
		labels[i].CreatedAt = created
		labels[i].UpdatedAt = created
	}
	_, err := s.db.NewInsert().Model(&labels).Exec(ctx)
	return errors.Wrap(err, "inserting labels")
}

// ListBySession returns the labels of one session, oldest first. The
// caller is responsible for verifying session ownership.
func (s *LabelStore) ListBySession(ctx context.Context, sessionID uuid.UUID, offset, limit int) ([]model.Label, int, error) {
	var labels []model.Label
	total, err := s.db.NewSelect().Model(&labels).
		Where("session_id = ?", sessionID).
		OrderExpr("created_at ASC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing labels")
	}
	return labels, total, nil
}
