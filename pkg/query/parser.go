package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// validStatusValues is the status vocabulary accepted by status
// predicates, in the order reported to clients.
var validStatusValues = []string{"pass", "fail", "error", "skip"}

// ParseError wraps any lexical, syntactic or semantic failure from
// Parse together with the offending query string.
type ParseError struct {
	Query string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse query '%s': %s", e.Query, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse turns a filter string into its AST. Empty and whitespace-only
// input parses to EmptyQuery. Every failure is reported as a
// *ParseError. Parse is safe for concurrent use.
func Parse(input string) (Query, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return EmptyQuery{}, nil
	}

	q, err := parse(trimmed)
	if err != nil {
		return nil, &ParseError{Query: input, Err: err}
	}
	return q, nil
}

func parse(input string) (Query, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	var main Query = EmptyQuery{}
	if kind := p.peek().kind; kind != tokGroupBy && kind != tokEOF {
		if main, err = p.parseCompound(); err != nil {
			return nil, err
		}
	}

	if p.peek().kind == tokGroupBy {
		p.next()
		clause, err := p.parseGroupBy()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokEOF); err != nil {
			return nil, err
		}
		return QueryWithGroupBy{MainQuery: main, GroupBy: clause}, nil
	}

	if _, err := p.expect(tokEOF); err != nil {
		return nil, err
	}
	return main, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

// next returns the current token and advances, except at EOF where it
// stays put so callers can keep asking.
func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return token{}, errors.Errorf("expected %s, got %s", kind, tok.kind)
	}
	return tok, nil
}

// parseCompound parses one or more atomic queries joined by and/or.
// A single atom collapses to the atom itself.
func (p *parser) parseCompound() (Query, error) {
	first, err := p.parseAtomic()
	if err != nil {
		return nil, err
	}

	queries := []Query{first}
	var operators []LogicalOp
	for {
		switch p.peek().kind {
		case tokAnd:
			operators = append(operators, LogicalAnd)
		case tokOr:
			operators = append(operators, LogicalOr)
		default:
			if len(queries) == 1 {
				return queries[0], nil
			}
			return CompoundQuery{Queries: queries, Operators: operators}, nil
		}
		p.next()

		q, err := p.parseAtomic()
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
}

func (p *parser) parseAtomic() (Query, error) {
	tok := p.next()
	switch tok.kind {
	case tokSessionID:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if value == "" {
			return nil, errors.New("session_id cannot be empty")
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.Errorf("Invalid UUID format for session_id: %s", value)
		}
		return SessionQuery{SessionID: id, Operator: op}, nil

	case tokID:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if value == "" {
			return nil, errors.New("id cannot be empty")
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.Errorf("Invalid UUID format for id: %s", value)
		}
		return IDQuery{ID: id, Operator: op}, nil

	case tokName:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if value == "" {
			return nil, errors.New("Name must be non-empty")
		}
		return NameQuery{Name: value, Operator: op}, nil

	case tokClassname:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return ClassnameQuery{Classname: value, Operator: op}, nil

	case tokTestsuite:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return TestsuiteQuery{Testsuite: value, Operator: op}, nil

	case tokFile:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return FileQuery{File: value, Operator: op}, nil

	case tokStatus:
		op, value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if value != "" && !isValidStatus(value) {
			return nil, invalidStatusError(value)
		}
		return StatusQuery{Status: value, Operator: op}, nil

	case tokHash:
		return p.parseTag(false)

	case tokBang:
		if _, err := p.expect(tokHash); err != nil {
			return nil, err
		}
		return p.parseTag(true)
	}

	return nil, errors.Errorf("unexpected %s", tok.kind)
}

// parseComparison parses '= "value"' or '!= "value"'.
func (p *parser) parseComparison() (Operator, string, error) {
	opTok := p.next()
	var op Operator
	switch opTok.kind {
	case tokEQ:
		op = OpEquals
	case tokNEQ:
		op = OpNotEquals
	default:
		return 0, "", errors.Errorf("expected = or !=, got %s", opTok.kind)
	}

	valueTok, err := p.expect(tokString)
	if err != nil {
		return 0, "", err
	}
	return op, valueTok.text, nil
}

// parseTag parses the remainder of a tag query after '#'. The negated
// '!#"tag"' form cannot take a value comparison.
func (p *parser) parseTag(negated bool) (Query, error) {
	tagTok, err := p.expect(tokString)
	if err != nil {
		return nil, err
	}
	if tagTok.text == "" {
		return nil, errors.New("Tag must be non-empty")
	}
	if negated {
		return TagQuery{Tag: tagTok.text, Operator: OpNotEquals}, nil
	}

	switch p.peek().kind {
	case tokEQ, tokNEQ:
		op := OpEquals
		if p.next().kind == tokNEQ {
			op = OpNotEquals
		}
		valueTok, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return TagValueQuery{Tag: tagTok.text, Value: valueTok.text, Operator: op}, nil
	}
	return TagQuery{Tag: tagTok.text, Operator: OpEquals}, nil
}

// parseGroupBy parses '(token, token, ...)' after the group_by
// keyword. Tokens must be unique by kind and value.
func (p *parser) parseGroupBy() (GroupByClause, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return GroupByClause{}, err
	}

	var tokens []GroupByToken
	seen := map[GroupByToken]struct{}{}
	for {
		tok, err := p.parseGroupByToken()
		if err != nil {
			return GroupByClause{}, err
		}
		if _, dup := seen[tok]; dup {
			return GroupByClause{}, errors.Errorf("Duplicate group_by token: %s", tok)
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)

		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}

	if _, err := p.expect(tokRParen); err != nil {
		return GroupByClause{}, err
	}
	return GroupByClause{Tokens: tokens}, nil
}

func (p *parser) parseGroupByToken() (GroupByToken, error) {
	tok := p.next()
	switch tok.kind {
	case tokSessionID:
		return GroupByToken{Kind: GroupBySessionID}, nil
	case tokHash:
		tagTok, err := p.expect(tokString)
		if err != nil {
			return GroupByToken{}, err
		}
		if tagTok.text == "" {
			return GroupByToken{}, errors.New("TAG tokens must have a non-empty value")
		}
		return GroupByToken{Kind: GroupByTag, Value: tagTok.text}, nil
	}
	return GroupByToken{}, errors.Errorf("expected session_id or tag, got %s", tok.kind)
}

func isValidStatus(value string) bool {
	for _, s := range validStatusValues {
		if s == value {
			return true
		}
	}
	return false
}

func invalidStatusError(value string) error {
	quoted := make([]string, len(validStatusValues))
	for i, s := range validStatusValues {
		quoted[i] = "'" + s + "'"
	}
	return errors.Errorf("Invalid status '%s'. Must be one of: [%s]", value, strings.Join(quoted, ", "))
}
