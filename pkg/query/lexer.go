package query

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString

	tokEQ     // =
	tokNEQ    // !=
	tokBang   // !
	tokHash   // #
	tokComma  // ,
	tokLParen // (
	tokRParen // )

	tokAnd
	tokOr
	tokGroupBy
	tokSessionID
	tokID
	tokName
	tokClassname
	tokTestsuite
	tokFile
	tokStatus
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of query",
	tokString:    "quoted string",
	tokEQ:        "=",
	tokNEQ:       "!=",
	tokBang:      "!",
	tokHash:      "#",
	tokComma:     ",",
	tokLParen:    "(",
	tokRParen:    ")",
	tokAnd:       "and",
	tokOr:        "or",
	tokGroupBy:   "group_by",
	tokSessionID: "session_id",
	tokID:        "id",
	tokName:      "name",
	tokClassname: "classname",
	tokTestsuite: "testsuite",
	tokFile:      "file",
	tokStatus:    "status",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

// keywords maps lowercase identifiers to token kinds. Keywords match
// case-insensitively.
var keywords = map[string]tokenKind{
	"and":        tokAnd,
	"or":         tokOr,
	"group_by":   tokGroupBy,
	"session_id": tokSessionID,
	"id":         tokID,
	"name":       tokName,
	"classname":  tokClassname,
	"testsuite":  tokTestsuite,
	"file":       tokFile,
	"status":     tokStatus,
}

// token is one lexeme. text carries the unquoted contents for
// tokString and is unset otherwise.
type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	input []rune
	pos   int
}

// lex tokenizes the whole input. The returned slice always ends with a
// tokEOF token.
func lex(input string) ([]token, error) {
	l := &lexer{input: []rune(input)}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return token{kind: tokEOF}, nil
	}

	ch := l.input[l.pos]
	switch {
	case ch == '"':
		text, err := l.readString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text}, nil

	case ch == '=':
		l.pos++
		return token{kind: tokEQ}, nil

	case ch == '!':
		if l.peek(1) == '=' {
			l.pos += 2
			return token{kind: tokNEQ}, nil
		}
		l.pos++
		return token{kind: tokBang}, nil

	case ch == '#':
		l.pos++
		return token{kind: tokHash}, nil

	case ch == ',':
		l.pos++
		return token{kind: tokComma}, nil

	case ch == '(':
		l.pos++
		return token{kind: tokLParen}, nil

	case ch == ')':
		l.pos++
		return token{kind: tokRParen}, nil

	case unicode.IsLetter(ch):
		ident := l.readIdentifier()
		kind, ok := keywords[strings.ToLower(ident)]
		if !ok {
			return token{}, errors.Errorf("unknown identifier: %s", ident)
		}
		return token{kind: kind}, nil
	}

	return token{}, errors.Errorf("unexpected character: %c", ch)
}

func (l *lexer) peek(offset int) rune {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

// readString consumes a double-quoted string. There is no escape
// syntax; the value is everything up to the next quote.
func (l *lexer) readString() (string, error) {
	l.pos++
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return "", errors.New("unterminated quoted string")
	}
	text := string(l.input[start:l.pos])
	l.pos++
	return text, nil
}

func (l *lexer) readIdentifier() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		l.pos++
	}
	return string(l.input[start:l.pos])
}
