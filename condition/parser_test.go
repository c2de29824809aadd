package condition

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cmp(op Operator, variable string, value string) *Node {
	return &Node{Operator: op, Operands: []Expr{Variable{Name: variable}, Literal{Value: value}}}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected Expr
	}{
		{
			name:     "single comparison",
			in:       `request.verb = "GET"`,
			expected: cmp(Equals, "request.verb", "GET"),
		},
		{
			name: "verb and path",
			in:   `(proxy.pathsuffix MatchesPath "/foo") and (request.verb = "GET")`,
			expected: &Node{Operator: And, Operands: []Expr{
				cmp(MatchesPath, "proxy.pathsuffix", "/foo"),
				cmp(Equals, "request.verb", "GET"),
			}},
		},
		{
			name: "single quotes and symbols",
			in:   `(proxy.pathsuffix ~/ '/users/*') && (request.verb == 'POST')`,
			expected: &Node{Operator: And, Operands: []Expr{
				cmp(MatchesPath, "proxy.pathsuffix", "/users/*"),
				cmp(Equals, "request.verb", "POST"),
			}},
		},
		{
			name:     "non-ascii bare word",
			in:       `request.header.city = Åre`,
			expected: cmp(Equals, "request.header.city", "Åre"),
		},
		{
			name:     "non-breaking space",
			in:       "request.verb\u00a0= \"GET\"",
			expected: cmp(Equals, "request.verb", "GET"),
		},
		{
			name: "chain flattens",
			in:   `a = "1" and b = "2" AND c = "3"`,
			expected: &Node{Operator: And, Operands: []Expr{
				cmp(Equals, "a", "1"),
				cmp(Equals, "b", "2"),
				cmp(Equals, "c", "3"),
			}},
		},
		{
			name: "and binds tighter than or",
			in:   `a = "1" or b = "2" and c = "3"`,
			expected: &Node{Operator: Or, Operands: []Expr{
				cmp(Equals, "a", "1"),
				&Node{Operator: And, Operands: []Expr{
					cmp(Equals, "b", "2"),
					cmp(Equals, "c", "3"),
				}},
			}},
		},
		{
			name: "parentheses group",
			in:   `(a = "1" or b = "2") and c = "3"`,
			expected: &Node{Operator: And, Operands: []Expr{
				&Node{Operator: Or, Operands: []Expr{
					cmp(Equals, "a", "1"),
					cmp(Equals, "b", "2"),
				}},
				cmp(Equals, "c", "3"),
			}},
		},
		{
			name: "not",
			in:   `not (request.header.x-api-key = null)`,
			expected: &Node{Operator: Not, Operands: []Expr{
				cmp(Equals, "request.header.x-api-key", "null"),
			}},
		},
		{
			name: "bang",
			in:   `!(request.verb != "OPTIONS")`,
			expected: &Node{Operator: Not, Operands: []Expr{
				cmp(NotEquals, "request.verb", "OPTIONS"),
			}},
		},
		{
			name:     "bare variable",
			in:       `(request.queryparam.debug)`,
			expected: Variable{Name: "request.queryparam.debug"},
		},
		{
			name:     "numeric literal",
			in:       `response.status.code >= 400`,
			expected: cmp(GreaterThanOrEquals, "response.status.code", "400"),
		},
		{
			name:     "unquoted path literal",
			in:       `proxy.pathsuffix MatchesPath /items/**`,
			expected: cmp(MatchesPath, "proxy.pathsuffix", "/items/**"),
		},
		{
			name:     "variable on the right",
			in:       `request.header.origin = flow.allowed.origin`,
			expected: &Node{Operator: Equals, Operands: []Expr{Variable{Name: "request.header.origin"}, Variable{Name: "flow.allowed.origin"}}},
		},
		{
			name:     "no spaces",
			in:       `request.verb="PUT"`,
			expected: cmp(Equals, "request.verb", "PUT"),
		},
		{
			name:     "case insensitive operator words",
			in:       `request.path startswith "/v1"`,
			expected: cmp(StartsWith, "request.path", "/v1"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e, err := Parse(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.expected, e)
		})
	}
}

func TestParse_Operators(t *testing.T) {
	tests := []struct {
		spelling string
		op       Operator
	}{
		{"=", Equals}, {"==", Equals}, {"Equals", Equals}, {"Is", Equals},
		{"!=", NotEquals}, {"NotEquals", NotEquals}, {"IsNot", NotEquals},
		{":=", EqualsCaseInsensitive}, {"EqualsCaseInsensitive", EqualsCaseInsensitive},
		{">", GreaterThan}, {"GreaterThan", GreaterThan},
		{">=", GreaterThanOrEquals}, {"GreaterThanOrEquals", GreaterThanOrEquals},
		{"<", LesserThan}, {"LesserThan", LesserThan},
		{"<=", LesserThanOrEquals}, {"LesserThanOrEquals", LesserThanOrEquals},
		{"~", Matches}, {"Matches", Matches}, {"Like", Matches},
		{"~~", JavaRegex}, {"JavaRegex", JavaRegex},
		{"~/", MatchesPath}, {"MatchesPath", MatchesPath}, {"LikePath", MatchesPath},
		{"=|", StartsWith}, {"StartsWith", StartsWith},
	}
	for _, test := range tests {
		t.Run(test.spelling, func(t *testing.T) {
			e, err := Parse(`v ` + test.spelling + ` "x"`)
			require.NoError(t, err)
			assert.Equal(t, cmp(test.op, "v", "x"), e)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		in     string
		msg    string
		offset int
	}{
		{``, "empty condition", 0},
		{`   `, "empty condition", 0},
		{`request.verb = "GET`, "unterminated string", 15},
		{`(request.verb = "GET"`, "missing closing parenthesis", 21},
		{`request.verb =`, "unexpected end of condition", 14},
		{`a = "1" and`, "unexpected end of condition", 11},
		{`a = "1" )`, `unexpected ")"`, 8},
		{`and a = "1"`, `operator "and" where an operand was expected`, 0},
		{`a = = "1"`, `unexpected "="`, 4},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			_, err := Parse(test.in)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Contains(t, syntaxErr.Msg, test.msg)
			assert.Equal(t, test.offset, syntaxErr.Offset)
		})
	}
}

func TestExpr_StringRoundTrip(t *testing.T) {
	inputs := []string{
		`(proxy.pathsuffix MatchesPath "/foo") and (request.verb = "GET")`,
		`a = "1" or b = "2" and not c ~~ "x.*"`,
		`(request.queryparam.debug)`,
		`!(a =| "/v1") || b <= 3`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			e, err := Parse(in)
			require.NoError(t, err)
			again, err := Parse(e.String())
			require.NoError(t, err)
			assert.Equal(t, e, again)
		})
	}
}

func TestExpr_String(t *testing.T) {
	e, err := Parse(`(proxy.pathsuffix ~/ "/foo") && (request.verb == "GET")`)
	require.NoError(t, err)
	assert.Equal(t, `(proxy.pathsuffix MatchesPath "/foo") and (request.verb Equals "GET")`, e.String())
}

func TestExpr_JSON(t *testing.T) {
	e, err := Parse(`(proxy.pathsuffix MatchesPath "/foo") and not (request.verb = "GET")`)
	require.NoError(t, err)
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"operator": "AND",
		"operands": [
			{"operator": "MatchesPath", "operands": ["proxy.pathsuffix", "\"/foo\""]},
			{"operator": "NOT", "operands": [
				{"operator": "Equals", "operands": ["request.verb", "\"GET\""]}
			]}
		]
	}`, string(b))
}
