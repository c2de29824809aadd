package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var operatorSpellings = map[string]Operator{
	"=":  Equals,
	"==": Equals,
	"!=": NotEquals,
	":=": EqualsCaseInsensitive,
	">":  GreaterThan,
	">=": GreaterThanOrEquals,
	"<":  LesserThan,
	"<=": LesserThanOrEquals,
	"~":  Matches,
	"~~": JavaRegex,
	"~/": MatchesPath,
	"=|": StartsWith,
	"&&": And,
	"||": Or,
	"!":  Not,

	"equals":                Equals,
	"is":                    Equals,
	"notequals":             NotEquals,
	"isnot":                 NotEquals,
	"equalscaseinsensitive": EqualsCaseInsensitive,
	"greaterthan":           GreaterThan,
	"greaterthanorequals":   GreaterThanOrEquals,
	"lesserthan":            LesserThan,
	"lesserthanorequals":    LesserThanOrEquals,
	"matches":               Matches,
	"like":                  Matches,
	"javaregex":             JavaRegex,
	"matchespath":           MatchesPath,
	"likepath":              MatchesPath,
	"startswith":            StartsWith,
	"and":                   And,
	"or":                    Or,
	"not":                   Not,
}

var variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

type parser struct {
	tokens []token
	pos    int
}

// Parse reads a flow condition. NOT binds tighter than AND, which binds
// tighter than OR; a chain of the same boolean operator becomes one node.
func Parse(s string) (Expr, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tkEOF {
		return nil, &SyntaxError{Offset: 0, Msg: "empty condition"}
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tkEOF {
		return nil, &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *parser) operatorAt() (Operator, bool) {
	t := p.peek()
	if t.kind != tkSymbol && t.kind != tkWord {
		return "", false
	}
	op, ok := operatorSpellings[strings.ToLower(t.text)]
	return op, ok
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseChain(Or, p.parseAnd)
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseChain(And, p.parseUnary)
}

func (p *parser) parseChain(op Operator, operand func() (Expr, error)) (Expr, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	operands := []Expr{first}
	for {
		if o, ok := p.operatorAt(); !ok || o != op {
			break
		}
		p.next()
		e, err := operand()
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return &Node{Operator: op, Operands: operands}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if o, ok := p.operatorAt(); ok && o == Not {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Operator: Not, Operands: []Expr{e}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.peek().kind == tkLParen {
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tkRParen {
			return nil, &SyntaxError{Offset: t.pos, Msg: "missing closing parenthesis"}
		}
		return e, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, ok := p.operatorAt()
	if !ok || op.IsBoolean() {
		return left, nil
	}
	p.next()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Node{Operator: op, Operands: []Expr{left, right}}, nil
}

func (p *parser) parseOperand() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tkString:
		return Literal{Value: t.text}, nil
	case tkWord:
		if _, ok := operatorSpellings[strings.ToLower(t.text)]; ok {
			return nil, &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("operator %q where an operand was expected", t.text)}
		}
		return classify(t.text), nil
	case tkEOF:
		return nil, &SyntaxError{Offset: t.pos, Msg: "unexpected end of condition"}
	}
	return nil, &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}

// classify turns a bare word into a literal when it is a number, a boolean,
// null, or something that cannot name a flow variable (like /foo/**).
func classify(word string) Expr {
	switch strings.ToLower(word) {
	case "true", "false", "null":
		return Literal{Value: word}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return Literal{Value: word}
	}
	if !variableName.MatchString(word) {
		return Literal{Value: word}
	}
	return Variable{Name: word}
}
