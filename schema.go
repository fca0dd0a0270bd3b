package signup

import (
	"regexp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ColumnType is the declared attribute type of a schema column.
type ColumnType string

const (
	ColumnString   ColumnType = "string"
	ColumnBoolean  ColumnType = "boolean"
	ColumnInteger  ColumnType = "integer"
	ColumnFloat    ColumnType = "float"
	ColumnDateTime ColumnType = "datetime"
	ColumnJSON     ColumnType = "json"
)

// ValidationRule pairs a regular expression with the message shown when a
// value does not match. Patterns are compiled once during binding.
type ValidationRule struct {
	Pattern string
	Message string

	compiled *regexp.Regexp
}

// Compile parses the rule pattern. It is idempotent and safe to call more
// than once.
func (r *ValidationRule) Compile() error {
	if r.compiled != nil {
		return nil
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid validation rule pattern").
			WithMetadata(map[string]any{"pattern": r.Pattern})
	}
	r.compiled = re
	return nil
}

// Matches reports whether the value satisfies the rule, compiling the
// pattern on first use.
func (r *ValidationRule) Matches(value string) (bool, error) {
	if err := r.Compile(); err != nil {
		return false, err
	}
	return r.compiled.MatchString(value), nil
}

// Column describes one attribute of a host resource as exposed by schema
// discovery. MinLength and MaxLength are only meaningful on string columns.
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	Virtual    bool
	MinLength  int
	MaxLength  int
	Validation []*ValidationRule
}

// Resource is the host's view of one stored entity.
type Resource struct {
	ResourceID string
	Columns    []*Column
}

// Column finds a column by name, returning nil when absent.
func (r *Resource) Column(name string) *Column {
	for _, col := range r.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// PrimaryKeyColumn returns the column flagged as primary key, or nil.
func (r *Resource) PrimaryKeyColumn() *Column {
	for _, col := range r.Columns {
		if col.PrimaryKey {
			return col
		}
	}
	return nil
}

// ColumnNames lists the resource's column names in declaration order.
func (r *Resource) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for _, col := range r.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Schema is the slice of host resources the workflow can bind against,
// plus the id of the resource that owns authentication.
type Schema struct {
	Resources      []*Resource
	AuthResourceID string
}

// AuthResource resolves the authentication resource, or nil when the
// configured id does not exist.
func (s *Schema) AuthResource() *Resource {
	for _, r := range s.Resources {
		if r.ResourceID == s.AuthResourceID {
			return r
		}
	}
	return nil
}

// SuggestIfTypo returns the candidate closest to input when the distance is
// small enough to look like a typo, otherwise the empty string.
func SuggestIfTypo(candidates []string, input string) string {
	best := ""
	bestDistance := -1

	for _, candidate := range candidates {
		d := editDistance(strings.ToLower(candidate), strings.ToLower(input))
		if bestDistance == -1 || d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}

	if best == "" {
		return ""
	}

	// Anything further than a third of the input away is not a typo.
	threshold := len(input) / 3
	if threshold < 2 {
		threshold = 2
	}
	if bestDistance > threshold {
		return ""
	}
	return best
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
