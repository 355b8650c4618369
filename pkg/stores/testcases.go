package stores

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/otel"
	"github.com/greener-project/greener/pkg/query"
	"github.com/greener-project/greener/pkg/query/compile"
)

type TestcaseStore struct {
	db *bun.DB
}

func NewTestcaseStore(bdb *bun.DB) *TestcaseStore {
	return &TestcaseStore{db: bdb}
}

// InsertMany inserts testcases in a single multi-row statement.
func (s *TestcaseStore) InsertMany(ctx context.Context, testcases []model.Testcase) error {
	if len(testcases) == 0 {
		return nil
	}
	created := now()
	for i := range testcases {
		if testcases[i].ID == uuid.Nil {
			testcases[i].ID = uuid.New()
		}
		testcases[i].CreatedAt = created
		testcases[i].UpdatedAt = created
	}
	_, err := s.db.NewInsert().Model(&testcases).Exec(ctx)
	return errors.Wrap(err, "inserting testcases")
}

func (s *TestcaseStore) Get(ctx context.Context, userID, id uuid.UUID) (*model.Testcase, error) {
	testcase := &model.Testcase{}
	err := s.db.NewSelect().Model(testcase).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting testcase")
	}
	return testcase, nil
}

// ListOptions narrow a testcase listing. Query is the parsed filter
// (nil for none); GroupID is the drill-down selector of a grouping
// query, already validated against the query's group-by clause. The
// date window is half-open: created_at >= StartDate and < EndDate.
type ListOptions struct {
	Query     query.Query
	GroupID   *compile.GroupID
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// TestcaseList is one page of testcases plus the aggregates computed
// over the full filtered set. AggregatedStatus is nil when no row
// matched.
type TestcaseList struct {
	Items            []model.Testcase
	Total            int
	AggregatedStatus *model.Status
}

// List runs a compiled filter query: the filtered rows form a CTE
// ordered by created_at descending, and the outer query pages it
// while computing COUNT and MIN(status) window aggregates over the
// whole set in the same round trip.
func (s *TestcaseStore) List(ctx context.Context, userID uuid.UUID, opts ListOptions) (*TestcaseList, error) {
	ctx, span := otel.Tracer.Start(ctx, "TestcaseStore.List")
	defer span.End()

	cte := s.db.NewSelect().Model((*model.Testcase)(nil)).
		Where("testcases.user_id = ?", userID)

	var err error
	if opts.Query != nil {
		if cte, err = compile.Conditions(cte, opts.Query); err != nil {
			return nil, err
		}
	}
	if opts.StartDate != nil {
		cte = cte.Where("testcases.created_at >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		cte = cte.Where("testcases.created_at < ?", *opts.EndDate)
	}

	if opts.GroupID != nil {
		gq, ok := opts.Query.(query.QueryWithGroupBy)
		if !ok {
			return nil, errors.New("group filter requires a grouping query")
		}
		if cte, err = compile.GroupFilter(cte, gq.GroupBy, opts.GroupID.Values); err != nil {
			return nil, err
		}
	}

	cte = cte.OrderExpr("testcases.created_at DESC")

	// The ORDER BY is repeated on the outer query: row order out of a
	// bare CTE scan is engine-dependent.
	q := s.db.NewSelect().
		With("cte", cte).
		Table("cte").
		ColumnExpr("cte.*").
		ColumnExpr("COUNT(1) OVER () AS total_count").
		ColumnExpr("MIN(cte.status) OVER () AS aggregated_status").
		OrderExpr("cte.created_at DESC").
		Offset(opts.Offset).
		Limit(opts.Limit)

	type row struct {
		model.Testcase
		TotalCount       int `bun:"total_count"`
		AggregatedStatus int `bun:"aggregated_status"`
	}

	var rows []row
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "listing testcases")
	}

	result := &TestcaseList{Items: make([]model.Testcase, 0, len(rows))}
	for _, r := range rows {
		if result.AggregatedStatus == nil {
			result.Total = r.TotalCount
			status := model.Status(r.AggregatedStatus)
			result.AggregatedStatus = &status
		}
		result.Items = append(result.Items, r.Testcase)
	}
	return result, nil
}

// GroupItem is one row of a grouping query: the group column values
// in token order (nil for a valueless label) and the worst status
// among the group's testcases.
type GroupItem struct {
	Columns []*string
	Status  model.Status
}

// GroupList is one page of groups plus the header naming the group
// columns and the aggregates over the full result set.
type GroupList struct {
	Items            []GroupItem
	Total            int
	Header           []string
	AggregatedStatus *model.Status
}

// ListGroups runs a grouping query. The CTE projects the group
// columns and MIN(status) per group; the outer query pages it and
// rolls COUNT and MIN(group_status) windows over the full set.
func (s *TestcaseStore) ListGroups(ctx context.Context, userID uuid.UUID, gq query.QueryWithGroupBy, opts ListOptions) (*GroupList, error) {
	ctx, span := otel.Tracer.Start(ctx, "TestcaseStore.ListGroups")
	defer span.End()

	cte := s.db.NewSelect().Table("testcases")
	cte = compile.Grouping(cte, gq.GroupBy)
	cte = cte.Where("testcases.user_id = ?", userID)

	cte, err := compile.Conditions(cte, gq.MainQuery)
	if err != nil {
		return nil, err
	}
	if opts.StartDate != nil {
		cte = cte.Where("testcases.created_at >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		cte = cte.Where("testcases.created_at < ?", *opts.EndDate)
	}

	q := s.db.NewSelect().
		With("cte", cte).
		Table("cte").
		ColumnExpr("cte.*").
		ColumnExpr("COUNT(1) OVER () AS total_count").
		ColumnExpr("MIN(cte.group_status) OVER () AS aggregated_status").
		Offset(opts.Offset).
		Limit(opts.Limit)
	for i := range gq.GroupBy.Tokens {
		q = q.OrderExpr("cte.?", bun.Ident(compile.GroupColumn(i)))
	}

	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing groups")
	}
	defer rows.Close()

	tokens := gq.GroupBy.Tokens
	result := &GroupList{
		Items:  []GroupItem{},
		Header: compile.GroupKeys(gq.GroupBy),
	}

	for rows.Next() {
		// Row layout mirrors the CTE projection: the group columns in
		// token order, then group_status, total_count,
		// aggregated_status.
		columns := make([]sql.NullString, len(tokens))
		dest := make([]any, 0, len(tokens)+3)
		for i := range columns {
			dest = append(dest, &columns[i])
		}
		var groupStatus, totalCount, aggregatedStatus int
		dest = append(dest, &groupStatus, &totalCount, &aggregatedStatus)

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "scanning group row")
		}

		if result.AggregatedStatus == nil {
			result.Total = totalCount
			status := model.Status(aggregatedStatus)
			result.AggregatedStatus = &status
		}

		item := GroupItem{
			Columns: make([]*string, len(columns)),
			Status:  model.Status(groupStatus),
		}
		for i, col := range columns {
			if col.Valid {
				value := col.String
				item.Columns[i] = &value
			}
		}
		result.Items = append(result.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating group rows")
	}
	return result, nil
}
