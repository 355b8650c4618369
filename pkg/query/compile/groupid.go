package compile

import (
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/query"
)

// GroupID is the decoded form of the group query parameter: the
// [keys, values] tuple identifying one row of a grouping query. Keys
// are the group column names as written in the query ("session_id" or
// `#"name"`); a nil value stands for a valueless label.
type GroupID struct {
	Keys   []string
	Values []*string
}

// ParseGroupID decodes a URL-encoded JSON [keys, values] tuple.
func ParseGroupID(raw string) (*GroupID, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, errors.Wrap(err, "undecodable group parameter")
	}

	var parsed any
	if err := json.Unmarshal([]byte(decoded), &parsed); err != nil {
		return nil, err
	}

	tuple, ok := parsed.([]any)
	if !ok || len(tuple) != 2 {
		return nil, errors.New("Group identifier must be a tuple/array with exactly 2 elements")
	}

	rawKeys, keysOK := tuple[0].([]any)
	rawValues, valuesOK := tuple[1].([]any)
	if !keysOK || !valuesOK {
		return nil, errors.New("Both elements must be arrays/lists")
	}
	if len(rawKeys) != len(rawValues) {
		return nil, errors.New("Group keys and values must have the same length")
	}

	keys := make([]string, len(rawKeys))
	for i, k := range rawKeys {
		s, ok := k.(string)
		if !ok {
			return nil, errors.New("All group keys must be strings")
		}
		keys[i] = s
	}

	values := make([]*string, len(rawValues))
	for i, v := range rawValues {
		switch s := v.(type) {
		case string:
			values[i] = &s
		case nil:
		default:
			return nil, errors.New("All group values must be strings or None")
		}
	}

	return &GroupID{Keys: keys, Values: values}, nil
}

// GroupKeys returns the group column names of clause the way they are
// written in a query. The same strings serve as the header of a group
// listing and as the keys a drill-down identifier must match.
func GroupKeys(clause query.GroupByClause) []string {
	keys := make([]string, len(clause.Tokens))
	for i, tok := range clause.Tokens {
		keys[i] = tok.String()
	}
	return keys
}

// MatchesClause reports whether the identifier keys equal the keys
// induced by clause, in order.
func (g *GroupID) MatchesClause(clause query.GroupByClause) bool {
	expected := GroupKeys(clause)
	if len(g.Keys) != len(expected) {
		return false
	}
	for i, key := range g.Keys {
		if key != expected[i] {
			return false
		}
	}
	return true
}
