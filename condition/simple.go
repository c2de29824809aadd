package condition

import "strings"

const (
	pathVariable = "proxy.pathsuffix"
	verbVariable = "request.verb"
)

// SimpleCase is a flow that matches exactly one verb on one path.
type SimpleCase struct {
	Verb string
	Path string
	// 1-based positions of the two tests inside the AND node
	VerbOperand int
	PathOperand int
}

// FlowIsSimpleCase recognizes AND(Equals(request.verb, V), MatchesPath(proxy.pathsuffix, P))
// in either order, also accepting Equals for the path test.
func FlowIsSimpleCase(e Expr) (SimpleCase, bool) {
	n, ok := e.(*Node)
	if !ok || n.Operator != And || len(n.Operands) != 2 {
		return SimpleCase{}, false
	}
	var result SimpleCase
	for i, operand := range n.Operands {
		test, ok := operand.(*Node)
		if !ok {
			return SimpleCase{}, false
		}
		if path, ok := literalTest(test, pathVariable, MatchesPath, Equals); ok {
			result.Path = path
			result.PathOperand = i + 1
		} else if verb, ok := literalTest(test, verbVariable, Equals); ok {
			result.Verb = strings.ToUpper(verb)
			result.VerbOperand = i + 1
		}
	}
	if result.PathOperand == 0 || result.VerbOperand == 0 {
		return SimpleCase{}, false
	}
	return result, true
}

func literalTest(n *Node, variable string, ops ...Operator) (string, bool) {
	if len(n.Operands) != 2 {
		return "", false
	}
	matched := false
	for _, op := range ops {
		if n.Operator == op {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}
	v, ok := n.Operands[0].(Variable)
	if !ok || v.Name != variable {
		return "", false
	}
	l, ok := n.Operands[1].(Literal)
	if !ok {
		return "", false
	}
	return strings.Trim(l.Value, `"'`), true
}
