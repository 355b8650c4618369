// Package query implements the test case filter DSL: lexing, parsing
// and the AST consumed by the SQL compiler.
package query

import (
	"fmt"

	"github.com/google/uuid"
)

// Operator is the comparison carried by every simple query.
type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
)

func (o Operator) String() string {
	if o == OpNotEquals {
		return "!="
	}
	return "="
}

// LogicalOp joins adjacent queries inside a CompoundQuery.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

func (o LogicalOp) String() string {
	if o == LogicalOr {
		return "or"
	}
	return "and"
}

// Query is implemented by every node a filter string can parse into.
type Query interface {
	isQuery()
}

// EmptyQuery is produced by an empty or whitespace-only filter and
// matches everything.
type EmptyQuery struct{}

// SessionQuery filters on the owning session id.
type SessionQuery struct {
	SessionID uuid.UUID
	Operator  Operator
}

// IDQuery filters on the test case id.
type IDQuery struct {
	ID       uuid.UUID
	Operator Operator
}

// NameQuery filters on the test case name.
type NameQuery struct {
	Name     string
	Operator Operator
}

// ClassnameQuery filters on the class name. The empty string is a
// legal value.
type ClassnameQuery struct {
	Classname string
	Operator  Operator
}

// TestsuiteQuery filters on the suite name. The empty string is a
// legal value.
type TestsuiteQuery struct {
	Testsuite string
	Operator  Operator
}

// FileQuery filters on the source file. The empty string is a legal
// value.
type FileQuery struct {
	File     string
	Operator Operator
}

// StatusQuery filters on the test case status. The value is kept as
// the raw string and mapped onto the stored enum by the compiler.
type StatusQuery struct {
	Status   string
	Operator Operator
}

// TagQuery filters on label presence. The OpNotEquals form selects
// test cases whose session has no such label.
type TagQuery struct {
	Tag      string
	Operator Operator
}

// TagValueQuery filters on a label key/value pair.
type TagValueQuery struct {
	Tag      string
	Value    string
	Operator Operator
}

// CompoundQuery is two or more queries joined strictly left to right.
// AND and OR have equal precedence. Operators holds exactly
// len(Queries)-1 entries.
type CompoundQuery struct {
	Queries   []Query
	Operators []LogicalOp
}

// GroupByTokenKind distinguishes the two grouping dimensions.
type GroupByTokenKind int

const (
	GroupBySessionID GroupByTokenKind = iota
	GroupByTag
)

// GroupByToken is one grouping dimension. Value is the tag name for
// GroupByTag tokens and empty for GroupBySessionID.
type GroupByToken struct {
	Kind  GroupByTokenKind
	Value string
}

// String renders the token the way it is written in a query. The same
// form is used for group listing headers.
func (t GroupByToken) String() string {
	if t.Kind == GroupByTag {
		return fmt.Sprintf("#%q", t.Value)
	}
	return "session_id"
}

// GroupByClause holds the grouping dimensions in query order.
type GroupByClause struct {
	Tokens []GroupByToken
}

// QueryWithGroupBy pairs a filter with a grouping clause. MainQuery is
// EmptyQuery when the filter part was omitted.
type QueryWithGroupBy struct {
	MainQuery Query
	GroupBy   GroupByClause
}

func (EmptyQuery) isQuery()       {}
func (SessionQuery) isQuery()     {}
func (IDQuery) isQuery()          {}
func (NameQuery) isQuery()        {}
func (ClassnameQuery) isQuery()   {}
func (TestsuiteQuery) isQuery()   {}
func (FileQuery) isQuery()        {}
func (StatusQuery) isQuery()      {}
func (TagQuery) isQuery()         {}
func (TagValueQuery) isQuery()    {}
func (CompoundQuery) isQuery()    {}
func (QueryWithGroupBy) isQuery() {}
