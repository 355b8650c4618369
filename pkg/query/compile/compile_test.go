package compile

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/query"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bdb.Close() })
	return bdb
}

func testcaseSelect(bdb *bun.DB) *bun.SelectQuery {
	return bdb.NewSelect().Model((*model.Testcase)(nil))
}

func TestConditionsRendering(t *testing.T) {
	bdb := newTestDB(t)

	tests := []struct {
		name     string
		queryStr string
		contains []string
	}{
		{
			name:     "name equality",
			queryStr: `name = "alpha"`,
			contains: []string{`"testcases"."name" = 'alpha'`},
		},
		{
			name:     "name inequality",
			queryStr: `name != "alpha"`,
			contains: []string{`"testcases"."name" != 'alpha'`},
		},
		{
			name:     "status maps to enum value",
			queryStr: `status = "pass"`,
			contains: []string{`"testcases"."status" = 2`},
		},
		{
			name:     "tag presence",
			queryStr: `#"smoke"`,
			contains: []string{
				`testcases.session_id IN (SELECT labels.session_id FROM labels WHERE labels."key" = 'smoke')`,
			},
		},
		{
			name:     "tag absence",
			queryStr: `!#"smoke"`,
			contains: []string{
				`testcases.session_id NOT IN (SELECT labels.session_id FROM labels WHERE labels."key" = 'smoke')`,
			},
		},
		{
			name:     "tag value",
			queryStr: `#"os" = "linux"`,
			contains: []string{
				`SELECT labels.session_id FROM labels WHERE labels."key" = 'os' AND labels."value" = 'linux'`,
			},
		},
		{
			name:     "left to right nesting",
			queryStr: `name = "a" or name = "b" and name = "c"`,
			contains: []string{
				`("testcases"."name" = 'a' OR "testcases"."name" = 'b')`,
				`AND "testcases"."name" = 'c'`,
			},
		},
		{
			name:     "grouping query contributes its main query",
			queryStr: `status = "fail" group_by(session_id)`,
			contains: []string{`"testcases"."status" = 1`},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			parsed, err := query.Parse(test.queryStr)
			require.NoError(t, err)

			sq, err := Conditions(testcaseSelect(bdb), parsed)
			require.NoError(t, err)

			rendered := sq.String()
			for _, fragment := range test.contains {
				assert.Contains(t, rendered, fragment)
			}
		})
	}
}

func TestConditionsEmptyQuery(t *testing.T) {
	bdb := newTestDB(t)

	sq, err := Conditions(testcaseSelect(bdb), query.EmptyQuery{})
	require.NoError(t, err)
	assert.NotContains(t, sq.String(), "WHERE")
}

func TestConditionsStatusErrors(t *testing.T) {
	bdb := newTestDB(t)

	tests := []struct {
		name    string
		q       query.Query
		wantErr string
	}{
		{
			name:    "empty status",
			q:       query.StatusQuery{Status: ""},
			wantErr: "status value cannot be empty",
		},
		{
			name:    "unknown status",
			q:       query.StatusQuery{Status: "bogus"},
			wantErr: "Unknown status: bogus",
		},
		{
			name: "error inside compound",
			q: query.CompoundQuery{
				Queries:   []query.Query{query.NameQuery{Name: "a"}, query.StatusQuery{Status: "bogus"}},
				Operators: []query.LogicalOp{query.LogicalAnd},
			},
			wantErr: "Unknown status: bogus",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Conditions(testcaseSelect(bdb), test.q)
			require.Error(t, err)
			var compileErr *Error
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, test.wantErr, compileErr.Message)
		})
	}
}

func TestAliases(t *testing.T) {
	assert.Equal(t, "label_0", LabelAlias(0))
	assert.Equal(t, "label_2", LabelAlias(2))
	assert.Equal(t, "group_0", GroupColumn(0))
	assert.Equal(t, "group_1", GroupColumn(1))
}

func TestGroupingRendering(t *testing.T) {
	bdb := newTestDB(t)

	clause := query.GroupByClause{Tokens: []query.GroupByToken{
		{Kind: query.GroupBySessionID},
		{Kind: query.GroupByTag, Value: "os"},
	}}

	sq := Grouping(bdb.NewSelect().Table("testcases"), clause)
	rendered := sq.String()

	assert.Contains(t, rendered, `sessions.id AS "group_0"`)
	assert.Contains(t, rendered, `"label_1".value AS "group_1"`)
	assert.Contains(t, rendered, `JOIN sessions ON testcases.session_id = sessions.id`)
	assert.Contains(t, rendered, `JOIN labels AS "label_1" ON testcases.session_id = "label_1".session_id AND "label_1"."key" = 'os'`)
	assert.Contains(t, rendered, `MIN(testcases.status) AS group_status`)
}

func TestGroupFilterErrors(t *testing.T) {
	bdb := newTestDB(t)

	sessionClause := query.GroupByClause{Tokens: []query.GroupByToken{
		{Kind: query.GroupBySessionID},
	}}

	tests := []struct {
		name    string
		clause  query.GroupByClause
		values  []*string
		wantErr string
	}{
		{
			name:    "length mismatch",
			clause:  sessionClause,
			values:  []*string{strptr("x"), strptr("y")},
			wantErr: "group values and group_by tokens must have the same length",
		},
		{
			name:    "null session id",
			clause:  sessionClause,
			values:  []*string{nil},
			wantErr: "session_id group value cannot be null",
		},
		{
			name:    "malformed session id",
			clause:  sessionClause,
			values:  []*string{strptr("not-a-uuid")},
			wantErr: "Invalid UUID format for session_id: not-a-uuid",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := GroupFilter(testcaseSelect(bdb), test.clause, test.values)
			require.Error(t, err)
			var compileErr *Error
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, test.wantErr, compileErr.Message)
		})
	}
}

func TestGroupFilterNullLabel(t *testing.T) {
	bdb := newTestDB(t)

	clause := query.GroupByClause{Tokens: []query.GroupByToken{
		{Kind: query.GroupByTag, Value: "triaged"},
	}}

	sq, err := GroupFilter(testcaseSelect(bdb), clause, []*string{nil})
	require.NoError(t, err)
	assert.Contains(t, sq.String(), `"label_0".value IS NULL`)

	sq, err = GroupFilter(testcaseSelect(bdb), clause, []*string{strptr("yes")})
	require.NoError(t, err)
	assert.Contains(t, sq.String(), `"label_0".value = 'yes'`)
}
