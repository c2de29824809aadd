// Package condition parses Apigee flow conditions such as
//
//	(proxy.pathsuffix MatchesPath "/foo") and (request.verb = "GET")
//
// into an expression tree of operators and operands.
package condition

import (
	"encoding/json"
	"strings"
)

type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
	Not Operator = "NOT"

	Equals                Operator = "Equals"
	NotEquals             Operator = "NotEquals"
	EqualsCaseInsensitive Operator = "EqualsCaseInsensitive"
	GreaterThan           Operator = "GreaterThan"
	GreaterThanOrEquals   Operator = "GreaterThanOrEquals"
	LesserThan            Operator = "LesserThan"
	LesserThanOrEquals    Operator = "LesserThanOrEquals"
	Matches               Operator = "Matches"
	JavaRegex             Operator = "JavaRegex"
	MatchesPath           Operator = "MatchesPath"
	StartsWith            Operator = "StartsWith"
)

func (o Operator) IsBoolean() bool {
	return o == And || o == Or || o == Not
}

type Expr interface {
	String() string
	expr()
}

// Node is an operator applied to its operands. Comparisons have exactly two
// operands, NOT has one, AND and OR have two or more.
type Node struct {
	Operator Operator
	Operands []Expr
}

type Variable struct {
	Name string
}

// Literal is a constant operand with its quotes removed.
type Literal struct {
	Value string
}

func (*Node) expr()    {}
func (Variable) expr() {}
func (Literal) expr()  {}

func (v Variable) String() string {
	return v.Name
}

func (l Literal) String() string {
	return `"` + l.Value + `"`
}

func (n *Node) String() string {
	switch n.Operator {
	case Not:
		return "not (" + n.Operands[0].String() + ")"
	case And, Or:
		parts := make([]string, len(n.Operands))
		for i, op := range n.Operands {
			parts[i] = "(" + op.String() + ")"
		}
		return strings.Join(parts, " "+strings.ToLower(string(n.Operator))+" ")
	}
	return n.Operands[0].String() + " " + string(n.Operator) + " " + n.Operands[1].String()
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Operator Operator `json:"operator"`
		Operands []Expr   `json:"operands"`
	}{n.Operator, n.Operands})
}

func (v Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Name)
}

func (l Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}
