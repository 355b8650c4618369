// Package compile translates parsed filter queries into bun SELECT
// statements over the testcases table. It produces the WHERE
// conditions for atomic and compound queries, the join/projection set
// for grouping queries, and the drill-down filter that narrows a
// testcase listing to one group row.
package compile

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/query"
)

// Error is a compile failure caused by the query itself rather than
// the database. The HTTP layer reports it as a validation error.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Conditions appends the WHERE conditions for q to sq. A grouping
// query contributes the conditions of its main query; EmptyQuery
// contributes nothing.
//
// Compound queries nest strictly left to right. AND and OR carry
// equal precedence in the filter language, so every fold step is
// emitted as its own parenthesized group instead of relying on SQL
// operator precedence.
func Conditions(sq *bun.SelectQuery, q query.Query) (*bun.SelectQuery, error) {
	if gq, ok := q.(query.QueryWithGroupBy); ok {
		q = gq.MainQuery
	}
	if _, ok := q.(query.EmptyQuery); ok {
		return sq, nil
	}
	return apply(sq, q, false)
}

// apply emits q into sq, joined to the preceding conditions with OR
// when useOr is set and AND otherwise.
func apply(sq *bun.SelectQuery, q query.Query, useOr bool) (*bun.SelectQuery, error) {
	if c, ok := q.(query.CompoundQuery); ok {
		return applyCompound(sq, c, useOr)
	}
	return applyAtomic(sq, q, useOr)
}

// applyCompound folds (((Q0 op0 Q1) op1 Q2) ...) by splitting off the
// last element and grouping the prefix recursively.
func applyCompound(sq *bun.SelectQuery, c query.CompoundQuery, useOr bool) (*bun.SelectQuery, error) {
	n := len(c.Queries)
	if n == 1 {
		return apply(sq, c.Queries[0], useOr)
	}

	var left query.Query
	if n == 2 {
		left = c.Queries[0]
	} else {
		left = query.CompoundQuery{Queries: c.Queries[:n-1], Operators: c.Operators[:n-2]}
	}
	last := c.Queries[n-1]
	lastOr := c.Operators[n-2] == query.LogicalOr

	sep := " AND "
	if useOr {
		sep = " OR "
	}

	var applyErr error
	sq = sq.WhereGroup(sep, func(inner *bun.SelectQuery) *bun.SelectQuery {
		out, err := apply(inner, left, false)
		if err != nil {
			applyErr = err
			return inner
		}
		out, err = apply(out, last, lastOr)
		if err != nil {
			applyErr = err
			return inner
		}
		return out
	})
	if applyErr != nil {
		return nil, applyErr
	}
	return sq, nil
}

func applyAtomic(sq *bun.SelectQuery, q query.Query, useOr bool) (*bun.SelectQuery, error) {
	where := sq.Where
	if useOr {
		where = sq.WhereOr
	}

	switch v := q.(type) {
	case query.SessionQuery:
		return equality(where, "testcases.session_id", v.Operator, v.SessionID), nil

	case query.IDQuery:
		return equality(where, "testcases.id", v.Operator, v.ID), nil

	case query.NameQuery:
		return equality(where, "testcases.name", v.Operator, v.Name), nil

	case query.ClassnameQuery:
		return equality(where, "testcases.classname", v.Operator, v.Classname), nil

	case query.TestsuiteQuery:
		return equality(where, "testcases.testsuite", v.Operator, v.Testsuite), nil

	case query.FileQuery:
		return equality(where, "testcases.file", v.Operator, v.File), nil

	case query.StatusQuery:
		if v.Status == "" {
			return nil, errorf("status value cannot be empty")
		}
		status, err := model.ParseStatus(v.Status)
		if err != nil {
			return nil, &Error{Message: err.Error()}
		}
		return equality(where, "testcases.status", v.Operator, int(status)), nil

	case query.TagQuery:
		// Tag presence is session-scoped: the negated form selects
		// testcases whose session has no such label at all.
		if v.Operator == query.OpNotEquals {
			return where("testcases.session_id NOT IN (SELECT labels.session_id FROM labels WHERE labels.? = ?)",
				bun.Ident("key"), v.Tag), nil
		}
		return where("testcases.session_id IN (SELECT labels.session_id FROM labels WHERE labels.? = ?)",
			bun.Ident("key"), v.Tag), nil

	case query.TagValueQuery:
		if v.Operator == query.OpNotEquals {
			return where("testcases.session_id NOT IN (SELECT labels.session_id FROM labels WHERE labels.? = ? AND labels.? = ?)",
				bun.Ident("key"), v.Tag, bun.Ident("value"), v.Value), nil
		}
		return where("testcases.session_id IN (SELECT labels.session_id FROM labels WHERE labels.? = ? AND labels.? = ?)",
			bun.Ident("key"), v.Tag, bun.Ident("value"), v.Value), nil
	}

	return nil, errorf("unsupported query node %T", q)
}

func equality(where func(string, ...any) *bun.SelectQuery, column string, op query.Operator, value any) *bun.SelectQuery {
	if op == query.OpNotEquals {
		return where("? != ?", bun.Ident(column), value)
	}
	return where("? = ?", bun.Ident(column), value)
}

// LabelAlias names the labels join for the group-by token at index i.
// Deriving the alias from the token index keeps a grouping query and
// its drill-down filter in agreement.
func LabelAlias(i int) string {
	return fmt.Sprintf("label_%d", i)
}

// GroupColumn names the projected group column for token index i.
func GroupColumn(i int) string {
	return fmt.Sprintf("group_%d", i)
}

// Grouping projects the group columns for clause onto sq, in token
// order, joining sessions or one labels alias per tag token. The last
// projected column is MIN(testcases.status) AS group_status, which by
// the status encoding is the worst status present in the group. The
// result is grouped and ordered by the group columns so listings are
// deterministic.
func Grouping(sq *bun.SelectQuery, clause query.GroupByClause) *bun.SelectQuery {
	for i, tok := range clause.Tokens {
		out := GroupColumn(i)
		switch tok.Kind {
		case query.GroupBySessionID:
			sq = sq.ColumnExpr("sessions.id AS ?", bun.Ident(out)).
				Join("JOIN sessions ON testcases.session_id = sessions.id").
				GroupExpr("sessions.id").
				OrderExpr("sessions.id")
		case query.GroupByTag:
			alias := LabelAlias(i)
			sq = sq.ColumnExpr("?.value AS ?", bun.Ident(alias), bun.Ident(out)).
				Join("JOIN labels AS ? ON testcases.session_id = ?.session_id AND ?.? = ?",
					bun.Ident(alias), bun.Ident(alias), bun.Ident(alias), bun.Ident("key"), tok.Value).
				GroupExpr("?.value", bun.Ident(alias)).
				OrderExpr("?.value", bun.Ident(alias))
		}
	}
	return sq.ColumnExpr("MIN(testcases.status) AS group_status")
}

// GroupFilter narrows a testcase listing to the rows belonging to one
// group produced by clause. Values align with the clause tokens; a
// nil value selects rows whose label alias carries no value (IS NULL,
// never = NULL).
func GroupFilter(sq *bun.SelectQuery, clause query.GroupByClause, values []*string) (*bun.SelectQuery, error) {
	if len(values) != len(clause.Tokens) {
		return nil, errorf("group values and group_by tokens must have the same length")
	}

	for i, tok := range clause.Tokens {
		value := values[i]
		switch tok.Kind {
		case query.GroupBySessionID:
			if value == nil {
				return nil, errorf("session_id group value cannot be null")
			}
			id, err := uuid.Parse(*value)
			if err != nil {
				return nil, errorf("Invalid UUID format for session_id: %s", *value)
			}
			sq = sq.Join("JOIN sessions ON testcases.session_id = sessions.id").
				Where("sessions.id = ?", id)

		case query.GroupByTag:
			alias := LabelAlias(i)
			if value == nil {
				sq = sq.Join("JOIN labels AS ? ON testcases.session_id = ?.session_id AND ?.? = ? AND ?.value IS NULL",
					bun.Ident(alias), bun.Ident(alias), bun.Ident(alias), bun.Ident("key"), tok.Value, bun.Ident(alias))
			} else {
				sq = sq.Join("JOIN labels AS ? ON testcases.session_id = ?.session_id AND ?.? = ? AND ?.value = ?",
					bun.Ident(alias), bun.Ident(alias), bun.Ident(alias), bun.Ident("key"), tok.Value, bun.Ident(alias), *value)
			}
		}
	}
	return sq, nil
}
