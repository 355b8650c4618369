package query

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUUID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t", "\n", "\r\n", "  \t  \n  "} {
		q, err := Parse(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, EmptyQuery{}, q, "input %q", input)
	}
}

func TestParseSimpleQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{
			name:  "session equals",
			input: fmt.Sprintf(`session_id = "%s"`, testUUID),
			want:  SessionQuery{SessionID: testUUID, Operator: OpEquals},
		},
		{
			name:  "session not equals",
			input: fmt.Sprintf(`session_id != "%s"`, testUUID),
			want:  SessionQuery{SessionID: testUUID, Operator: OpNotEquals},
		},
		{
			name:  "session keyword uppercase",
			input: fmt.Sprintf(`SESSION_ID = "%s"`, testUUID),
			want:  SessionQuery{SessionID: testUUID, Operator: OpEquals},
		},
		{
			name:  "session keyword mixed case",
			input: fmt.Sprintf(`session_ID = "%s"`, testUUID),
			want:  SessionQuery{SessionID: testUUID, Operator: OpEquals},
		},
		{
			name:  "id equals",
			input: fmt.Sprintf(`id = "%s"`, testUUID),
			want:  IDQuery{ID: testUUID, Operator: OpEquals},
		},
		{
			name:  "id not equals",
			input: fmt.Sprintf(`ID != "%s"`, testUUID),
			want:  IDQuery{ID: testUUID, Operator: OpNotEquals},
		},
		{
			name:  "name equals",
			input: `name = "test_name"`,
			want:  NameQuery{Name: "test_name", Operator: OpEquals},
		},
		{
			name:  "name not equals",
			input: `name != "unwanted_name"`,
			want:  NameQuery{Name: "unwanted_name", Operator: OpNotEquals},
		},
		{
			name:  "classname equals",
			input: `classname = "TestClass"`,
			want:  ClassnameQuery{Classname: "TestClass", Operator: OpEquals},
		},
		{
			name:  "classname empty value allowed",
			input: `classname = ""`,
			want:  ClassnameQuery{Classname: "", Operator: OpEquals},
		},
		{
			name:  "classname keyword mixed case",
			input: `ClassName = "MyClass"`,
			want:  ClassnameQuery{Classname: "MyClass", Operator: OpEquals},
		},
		{
			name:  "testsuite equals",
			input: `testsuite = "integration"`,
			want:  TestsuiteQuery{Testsuite: "integration", Operator: OpEquals},
		},
		{
			name:  "testsuite empty value allowed",
			input: `testsuite = ""`,
			want:  TestsuiteQuery{Testsuite: "", Operator: OpEquals},
		},
		{
			name:  "file equals",
			input: `file = "test_file.py"`,
			want:  FileQuery{File: "test_file.py", Operator: OpEquals},
		},
		{
			name:  "file empty value allowed",
			input: `file = ""`,
			want:  FileQuery{File: "", Operator: OpEquals},
		},
		{
			name:  "status pass",
			input: `status = "pass"`,
			want:  StatusQuery{Status: "pass", Operator: OpEquals},
		},
		{
			name:  "status fail",
			input: `status = "fail"`,
			want:  StatusQuery{Status: "fail", Operator: OpEquals},
		},
		{
			name:  "status error",
			input: `status = "error"`,
			want:  StatusQuery{Status: "error", Operator: OpEquals},
		},
		{
			name:  "status skip",
			input: `status = "skip"`,
			want:  StatusQuery{Status: "skip", Operator: OpEquals},
		},
		{
			name:  "status empty value allowed",
			input: `status = ""`,
			want:  StatusQuery{Status: "", Operator: OpEquals},
		},
		{
			name:  "status not equals",
			input: `status != "skip"`,
			want:  StatusQuery{Status: "skip", Operator: OpNotEquals},
		},
		{
			name:  "tag presence",
			input: `#"a"`,
			want:  TagQuery{Tag: "a", Operator: OpEquals},
		},
		{
			name:  "tag presence longer",
			input: `#"my-tag"`,
			want:  TagQuery{Tag: "my-tag", Operator: OpEquals},
		},
		{
			name:  "tag presence dotted",
			input: `#"log.level"`,
			want:  TagQuery{Tag: "log.level", Operator: OpEquals},
		},
		{
			name:  "tag absence",
			input: `!#"environment"`,
			want:  TagQuery{Tag: "environment", Operator: OpNotEquals},
		},
		{
			name:  "tag value equals",
			input: `#"a" = "bcd"`,
			want:  TagValueQuery{Tag: "a", Value: "bcd", Operator: OpEquals},
		},
		{
			name:  "tag value empty",
			input: `#"tag" = ""`,
			want:  TagValueQuery{Tag: "tag", Value: "", Operator: OpEquals},
		},
		{
			name:  "tag value not equals",
			input: `#"environment" != "development"`,
			want:  TagValueQuery{Tag: "environment", Value: "development", Operator: OpNotEquals},
		},
		{
			name:  "tag value not equals empty",
			input: `#"status" != ""`,
			want:  TagValueQuery{Tag: "status", Value: "", Operator: OpNotEquals},
		},
		{
			name:  "tag value special characters",
			input: `#"tag-with_special.chars" = "value with spaces!"`,
			want:  TagValueQuery{Tag: "tag-with_special.chars", Value: "value with spaces!", Operator: OpEquals},
		},
		{
			name:  "surrounding whitespace",
			input: `  #"tag"  `,
			want:  TagQuery{Tag: "tag", Operator: OpEquals},
		},
		{
			name:  "no whitespace around equals",
			input: fmt.Sprintf(`session_id="%s"`, testUUID),
			want:  SessionQuery{SessionID: testUUID, Operator: OpEquals},
		},
		{
			name:  "no whitespace around not equals",
			input: `name!="unwanted"`,
			want:  NameQuery{Name: "unwanted", Operator: OpNotEquals},
		},
		{
			name:  "no whitespace tag value",
			input: `#"tag"="value"`,
			want:  TagValueQuery{Tag: "tag", Value: "value", Operator: OpEquals},
		},
		{
			name:  "no whitespace tag value not equals",
			input: `#"env"!="dev"`,
			want:  TagValueQuery{Tag: "env", Value: "dev", Operator: OpNotEquals},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(test.input)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParseCompoundQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  CompoundQuery
	}{
		{
			name:  "and",
			input: fmt.Sprintf(`session_id = "%s" and #"tag" = "value"`, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					TagValueQuery{Tag: "tag", Value: "value", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalAnd},
			},
		},
		{
			name:  "or",
			input: `#"tag1" or #"tag2"`,
			want: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "tag1", Operator: OpEquals},
					TagQuery{Tag: "tag2", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalOr},
			},
		},
		{
			name:  "uppercase AND operator",
			input: `#"tag1" AND #"tag2"`,
			want: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "tag1", Operator: OpEquals},
					TagQuery{Tag: "tag2", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalAnd},
			},
		},
		{
			name:  "mixed case Or operator",
			input: `#"tag1" Or #"tag2"`,
			want: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "tag1", Operator: OpEquals},
					TagQuery{Tag: "tag2", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalOr},
			},
		},
		{
			name:  "multiple ands",
			input: fmt.Sprintf(`session_id = "%s" and #"tag1" and #"tag2" = "value"`, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					TagQuery{Tag: "tag1", Operator: OpEquals},
					TagValueQuery{Tag: "tag2", Value: "value", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalAnd, LogicalAnd},
			},
		},
		{
			name:  "multiple ors",
			input: `#"tag1" or #"tag2" or #"tag3"`,
			want: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "tag1", Operator: OpEquals},
					TagQuery{Tag: "tag2", Operator: OpEquals},
					TagQuery{Tag: "tag3", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalOr, LogicalOr},
			},
		},
		{
			name:  "negated tag inside compound",
			input: fmt.Sprintf(`session_id = "%s" and !#"debug" or #"prod"`, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					TagQuery{Tag: "debug", Operator: OpNotEquals},
					TagQuery{Tag: "prod", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalAnd, LogicalOr},
			},
		},
		{
			name:  "four predicates mixed kinds",
			input: fmt.Sprintf(`session_id = "%s" and #"env" = "prod" and file = "test.py" and status != "skip"`, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					TagValueQuery{Tag: "env", Value: "prod", Operator: OpEquals},
					FileQuery{File: "test.py", Operator: OpEquals},
					StatusQuery{Status: "skip", Operator: OpNotEquals},
				},
				Operators: []LogicalOp{LogicalAnd, LogicalAnd, LogicalAnd},
			},
		},
		{
			name:  "operators abut quoted strings",
			input: fmt.Sprintf(`session_id="%s"and name="test"and status="pass"`, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					NameQuery{Name: "test", Operator: OpEquals},
					StatusQuery{Status: "pass", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalAnd, LogicalAnd},
			},
		},
		{
			name:  "mixed whitespace patterns",
			input: fmt.Sprintf(`session_id= "%s" and name="test"and status !="skip"`, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					NameQuery{Name: "test", Operator: OpEquals},
					StatusQuery{Status: "skip", Operator: OpNotEquals},
				},
				Operators: []LogicalOp{LogicalAnd, LogicalAnd},
			},
		},
		{
			name:  "no precedence between and and or",
			input: `#"A" or #"B" and #"C" or #"D"`,
			want: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "A", Operator: OpEquals},
					TagQuery{Tag: "B", Operator: OpEquals},
					TagQuery{Tag: "C", Operator: OpEquals},
					TagQuery{Tag: "D", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalOr, LogicalAnd, LogicalOr},
			},
		},
		{
			name:  "five predicates",
			input: fmt.Sprintf(`#"tag1" or session_id = "%s" and id = "%s" or #"tag2" or #"tag3"`, testUUID, testUUID),
			want: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "tag1", Operator: OpEquals},
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					IDQuery{ID: testUUID, Operator: OpEquals},
					TagQuery{Tag: "tag2", Operator: OpEquals},
					TagQuery{Tag: "tag3", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalOr, LogicalAnd, LogicalOr, LogicalOr},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(test.input)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParseGroupBy(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMain Query
		wantGB   []GroupByToken
	}{
		{
			name:     "session id only",
			input:    `group_by(session_id)`,
			wantMain: EmptyQuery{},
			wantGB:   []GroupByToken{{Kind: GroupBySessionID}},
		},
		{
			name:     "tag only",
			input:    `group_by(#"environment")`,
			wantMain: EmptyQuery{},
			wantGB:   []GroupByToken{{Kind: GroupByTag, Value: "environment"}},
		},
		{
			name:     "multiple tokens",
			input:    `group_by(session_id, #"env", #"user")`,
			wantMain: EmptyQuery{},
			wantGB: []GroupByToken{
				{Kind: GroupBySessionID},
				{Kind: GroupByTag, Value: "env"},
				{Kind: GroupByTag, Value: "user"},
			},
		},
		{
			name:     "keyword uppercase",
			input:    `GROUP_BY(session_id)`,
			wantMain: EmptyQuery{},
			wantGB:   []GroupByToken{{Kind: GroupBySessionID}},
		},
		{
			name:     "keyword mixed case",
			input:    `Group_By(session_id)`,
			wantMain: EmptyQuery{},
			wantGB:   []GroupByToken{{Kind: GroupBySessionID}},
		},
		{
			name:  "with main query",
			input: fmt.Sprintf(`session_id = "%s" and #"status" = "active" group_by(session_id, #"env")`, testUUID),
			wantMain: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpEquals},
					TagValueQuery{Tag: "status", Value: "active", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalAnd},
			},
			wantGB: []GroupByToken{
				{Kind: GroupBySessionID},
				{Kind: GroupByTag, Value: "env"},
			},
		},
		{
			name:  "with or main query",
			input: `#"debug" or #"trace" = "enabled" group_by(#"level")`,
			wantMain: CompoundQuery{
				Queries: []Query{
					TagQuery{Tag: "debug", Operator: OpEquals},
					TagValueQuery{Tag: "trace", Value: "enabled", Operator: OpEquals},
				},
				Operators: []LogicalOp{LogicalOr},
			},
			wantGB: []GroupByToken{{Kind: GroupByTag, Value: "level"}},
		},
		{
			name:  "with not equals main query",
			input: fmt.Sprintf(`session_id != "%s" and #"env" != "development" group_by(session_id)`, testUUID),
			wantMain: CompoundQuery{
				Queries: []Query{
					SessionQuery{SessionID: testUUID, Operator: OpNotEquals},
					TagValueQuery{Tag: "env", Value: "development", Operator: OpNotEquals},
				},
				Operators: []LogicalOp{LogicalAnd},
			},
			wantGB: []GroupByToken{{Kind: GroupBySessionID}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(test.input)
			require.NoError(t, err)

			withGroupBy, ok := got.(QueryWithGroupBy)
			require.True(t, ok, "expected QueryWithGroupBy, got %T", got)
			assert.Equal(t, test.wantMain, withGroupBy.MainQuery)
			assert.Equal(t, test.wantGB, withGroupBy.GroupBy.Tokens)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:  "unknown identifier",
			input: "invalid query",
		},
		{
			name:  "missing comparison",
			input: `session_id "no equals"`,
		},
		{
			name:  "unquoted tag",
			input: "#tag_without_quotes",
		},
		{
			name:  "double equals",
			input: `#"tag" == "double_equals"`,
		},
		{
			name:  "unquoted value",
			input: "session_id = unquoted_value",
		},
		{
			name:  "dangling operator",
			input: "status =",
		},
		{
			name:  "keyword in value position",
			input: "status = AND group_by",
		},
		{
			name:  "unterminated string",
			input: `status = "unclosed quote`,
		},
		{
			name:    "empty session id",
			input:   `session_id = ""`,
			wantMsg: "session_id cannot be empty",
		},
		{
			name:    "empty session id not equals",
			input:   `session_id != ""`,
			wantMsg: "session_id cannot be empty",
		},
		{
			name:    "invalid session uuid",
			input:   `session_id = "invalid-uuid"`,
			wantMsg: "Invalid UUID format for session_id: invalid-uuid",
		},
		{
			name:    "empty id",
			input:   `id = ""`,
			wantMsg: "id cannot be empty",
		},
		{
			name:    "invalid id uuid",
			input:   `id != "invalid-uuid"`,
			wantMsg: "Invalid UUID format for id: invalid-uuid",
		},
		{
			name:    "empty name",
			input:   `name = ""`,
			wantMsg: "Name must be non-empty",
		},
		{
			name:    "invalid status",
			input:   `status = "invalid"`,
			wantMsg: "Invalid status 'invalid'. Must be one of: ['pass', 'fail', 'error', 'skip']",
		},
		{
			name:    "empty tag",
			input:   `#""`,
			wantMsg: "Tag must be non-empty",
		},
		{
			name:    "empty negated tag",
			input:   `!#""`,
			wantMsg: "Tag must be non-empty",
		},
		{
			name:    "empty tag with value",
			input:   `#"" = "value"`,
			wantMsg: "Tag must be non-empty",
		},
		{
			name:  "trailing atom",
			input: `name = "x" name = "y"`,
		},
		{
			name:  "empty group by",
			input: "group_by()",
		},
		{
			name:    "empty group by tag",
			input:   `group_by(#"")`,
			wantMsg: "TAG tokens must have a non-empty value",
		},
		{
			name:    "duplicate group by tag",
			input:   `group_by(#"env", #"env")`,
			wantMsg: `Duplicate group_by token: #"env"`,
		},
		{
			name:    "duplicate group by session id",
			input:   "group_by(session_id, session_id)",
			wantMsg: "Duplicate group_by token: session_id",
		},
		{
			name:  "unclosed group by",
			input: "group_by(session_id",
		},
		{
			name:  "group by followed by garbage",
			input: `group_by(session_id) #"tag"`,
		},
		{
			name:  "group by in atom position",
			input: `name = "x" and group_by(session_id)`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.input)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, test.input, parseErr.Query)
			assert.Contains(t, err.Error(), fmt.Sprintf("Failed to parse query '%s':", test.input))
			if test.wantMsg != "" {
				assert.Contains(t, err.Error(), test.wantMsg)
			}
		})
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	_, err := Parse(`name = ""`)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.EqualError(t, parseErr.Err, "Name must be non-empty")
}
