package media

import (
	"regexp"
	"strconv"
	"strings"
)

// Type is the media type a query applies to.
type Type string

const (
	TypeAll    Type = "all"
	TypeScreen Type = "screen"
	TypePrint  Type = "print"
)

// Operator is the comparison a condition applies.
type Operator string

const (
	OperatorMin   Operator = "min"
	OperatorMax   Operator = "max"
	OperatorExact Operator = "exact"
)

// Value holds a condition value. Numeric values carry a unit; everything else
// is kept verbatim in Raw.
type Value struct {
	Number  float64 `json:"number,omitempty" yaml:"number,omitempty"`
	Raw     string  `json:"raw,omitempty" yaml:"raw,omitempty"`
	Numeric bool    `json:"numeric" yaml:"numeric"`
}

// Num returns a numeric Value.
func Num(n float64) Value { return Value{Number: n, Numeric: true} }

// Str returns a raw string Value.
func Str(s string) Value { return Value{Raw: s} }

func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Raw
}

// Condition is a single feature/operator/value/unit tuple.
type Condition struct {
	Feature  string   `json:"feature" yaml:"feature"`
	Value    Value    `json:"value" yaml:"value"`
	Operator Operator `json:"operator" yaml:"operator"`
	Unit     string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Query is a parsed media query. All conditions must hold for it to match.
type Query struct {
	Type       Type        `json:"type" yaml:"type"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

var (
	typePattern    = regexp.MustCompile(`^(all|screen|print)\s+and\s+`)
	clausePattern  = regexp.MustCompile(`\(([^)]+)\)`)
	minMaxPattern  = regexp.MustCompile(`^(min|max)-([\w-]+):\s*(.+)$`)
	exactPattern   = regexp.MustCompile(`^([\w-]+):\s*(.+)$`)
	numericPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)(px|em|rem|vw|vh|%)?$`)
)

// Parse turns a media query string into a Query. It never fails: clauses it
// cannot read are dropped, which only makes the query more permissive.
func Parse(query string) Query {
	q := Query{Type: TypeAll, Conditions: []Condition{}}

	query = strings.ToLower(strings.TrimSpace(query))
	if m := typePattern.FindStringSubmatch(query); m != nil {
		q.Type = Type(m[1])
		query = query[len(m[0]):]
	}

	for _, clause := range clausePattern.FindAllStringSubmatch(query, -1) {
		if c, ok := parseClause(strings.TrimSpace(clause[1])); ok {
			q.Conditions = append(q.Conditions, c)
		}
	}

	return q
}

func parseClause(clause string) (Condition, bool) {
	if m := minMaxPattern.FindStringSubmatch(clause); m != nil {
		value, unit := parseValue(m[3])
		return Condition{Feature: m[2], Value: value, Operator: Operator(m[1]), Unit: unit}, true
	}

	if m := exactPattern.FindStringSubmatch(clause); m != nil {
		value, unit := parseValue(m[2])
		return Condition{Feature: m[1], Value: value, Operator: OperatorExact, Unit: unit}, true
	}

	return Condition{}, false
}

func parseValue(raw string) (Value, string) {
	raw = strings.TrimSpace(raw)

	m := numericPattern.FindStringSubmatch(raw)
	if m == nil {
		return Str(raw), ""
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Str(raw), ""
	}
	unit := m[2]
	if unit == "" {
		unit = "px"
	}
	return Num(n), unit
}
