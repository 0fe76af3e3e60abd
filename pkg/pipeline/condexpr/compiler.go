package condexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/tombee/baton/pkg/pipeline"
)

// Scope maps identifier names to the entities an expression may
// reference: parameters, execution variables, step property roots,
// nested namespaces (map[string]any), or plain values.
type Scope map[string]any

// Compile parses src and builds the corresponding condition tree.
// Identifiers resolve against scope; the expression is never evaluated.
func Compile(src string, scope Scope) (pipeline.Condition, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &CompileError{
			Message:     "expression is empty",
			SuggestText: "Write a comparison like train.Metrics.AUC >= min_auc",
		}
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, &CompileError{
			Expression: src,
			Message:    "syntax error",
			Cause:      err,
		}
	}

	c := &compiler{src: src, scope: scope}
	return c.condition(tree.Node)
}

type compiler struct {
	src   string
	scope Scope
}

func (c *compiler) fail(message, suggest string) *CompileError {
	return &CompileError{
		Expression:  c.src,
		Message:     message,
		SuggestText: suggest,
	}
}

// condition compiles a node that must produce a condition variant.
func (c *compiler) condition(n ast.Node) (pipeline.Condition, error) {
	switch node := n.(type) {
	case *ast.BinaryNode:
		switch node.Operator {
		case "==":
			return c.comparison(pipeline.NewConditionEquals, node)
		case ">":
			return c.comparison(pipeline.NewConditionGreaterThan, node)
		case ">=":
			return c.comparison(pipeline.NewConditionGreaterThanOrEqualTo, node)
		case "<":
			return c.comparison(pipeline.NewConditionLessThan, node)
		case "<=":
			return c.comparison(pipeline.NewConditionLessThanOrEqualTo, node)
		case "in":
			return c.membership(node)
		case "or", "||":
			return c.disjunction(node)
		case "and", "&&":
			return nil, c.fail(
				"conjunction is not supported",
				"Every entry of a condition step's Conditions list must hold, so split the expression into separate conditions, or rewrite with not/or",
			)
		case "!=":
			return nil, c.fail(
				"inequality is not supported",
				"Rewrite as not (left == right)",
			)
		default:
			return nil, c.fail(fmt.Sprintf("operator %q is not supported", node.Operator), "")
		}

	case *ast.UnaryNode:
		if node.Operator == "not" || node.Operator == "!" {
			inner, err := c.condition(node.Node)
			if err != nil {
				return nil, err
			}
			return pipeline.NewConditionNot(inner)
		}
		return nil, c.fail(fmt.Sprintf("operator %q is not supported", node.Operator), "")

	default:
		return nil, c.fail(
			"expression must be a comparison, membership test, negation, or disjunction",
			"",
		)
	}
}

// comparison compiles one of the five comparison forms. The left side
// must resolve to a deferred reference.
func (c *compiler) comparison(
	build func(pipeline.Expressible, any) (*pipeline.ConditionComparison, error),
	node *ast.BinaryNode,
) (pipeline.Condition, error) {
	leftVal, err := c.operand(node.Left)
	if err != nil {
		return nil, err
	}
	left, ok := leftVal.(pipeline.Expressible)
	if !ok {
		return nil, c.fail(
			fmt.Sprintf("left operand must be a deferred reference, got %v", leftVal),
			"Put the parameter, execution variable, or step property on the left side of the comparison",
		)
	}

	right, err := c.operand(node.Right)
	if err != nil {
		return nil, err
	}

	cond, err := build(left, right)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// membership compiles "value in [candidates]".
func (c *compiler) membership(node *ast.BinaryNode) (pipeline.Condition, error) {
	queryVal, err := c.operand(node.Left)
	if err != nil {
		return nil, err
	}
	query, ok := queryVal.(pipeline.Expressible)
	if !ok {
		return nil, c.fail(
			fmt.Sprintf("membership value must be a deferred reference, got %v", queryVal),
			"Test a parameter, execution variable, or step property for membership",
		)
	}

	rightVal, err := c.operand(node.Right)
	if err != nil {
		return nil, err
	}
	candidates, ok := rightVal.([]any)
	if !ok {
		return nil, c.fail(
			"membership candidates must be a list",
			`Write the candidates as a list literal, e.g. region in ["us-east-1", "eu-west-1"]`,
		)
	}

	cond, err := pipeline.NewConditionIn(query, candidates)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// disjunction flattens an or-chain into a single Or condition.
func (c *compiler) disjunction(node *ast.BinaryNode) (pipeline.Condition, error) {
	var terms []pipeline.Condition

	var walk func(n ast.Node) error
	walk = func(n ast.Node) error {
		if b, ok := n.(*ast.BinaryNode); ok && (b.Operator == "or" || b.Operator == "||") {
			if err := walk(b.Left); err != nil {
				return err
			}
			return walk(b.Right)
		}
		term, err := c.condition(n)
		if err != nil {
			return err
		}
		terms = append(terms, term)
		return nil
	}

	if err := walk(node); err != nil {
		return nil, err
	}
	return pipeline.NewConditionOr(terms...), nil
}

// operand resolves a node to an operand value: a literal, a list of
// operands, or a scope entry (possibly reached through member access).
func (c *compiler) operand(n ast.Node) (any, error) {
	switch node := n.(type) {
	case *ast.StringNode:
		return node.Value, nil
	case *ast.IntegerNode:
		return node.Value, nil
	case *ast.FloatNode:
		return node.Value, nil
	case *ast.BoolNode:
		return node.Value, nil
	case *ast.NilNode:
		return nil, c.fail("nil is not a valid operand", "Compare against a concrete literal or reference")

	case *ast.UnaryNode:
		switch node.Operator {
		case "-", "+":
			v, err := c.operand(node.Node)
			if err != nil {
				return nil, err
			}
			if node.Operator == "+" {
				return v, nil
			}
			switch num := v.(type) {
			case int:
				return -num, nil
			case float64:
				return -num, nil
			}
			return nil, c.fail("unary minus requires a numeric literal", "")
		}
		return nil, c.fail(fmt.Sprintf("operator %q is not valid in an operand", node.Operator), "")

	case *ast.IdentifierNode:
		v, ok := c.scope[node.Value]
		if !ok {
			return nil, c.fail(fmt.Sprintf("unknown name %q", node.Value), c.knownNames())
		}
		return v, nil

	case *ast.ArrayNode:
		items := make([]any, 0, len(node.Nodes))
		for _, el := range node.Nodes {
			v, err := c.operand(el)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil

	case *ast.MemberNode:
		return c.member(node)

	case *ast.CallNode, *ast.BuiltinNode:
		return nil, c.fail("function calls are not supported", "")

	default:
		return nil, c.fail(fmt.Sprintf("unsupported operand %T", n), "")
	}
}

// member resolves base.field, base["field"], and base[index] access.
func (c *compiler) member(node *ast.MemberNode) (any, error) {
	base, err := c.operand(node.Node)
	if err != nil {
		return nil, err
	}

	switch prop := node.Property.(type) {
	case *ast.StringNode:
		return c.field(base, prop.Value)
	case *ast.IntegerNode:
		props, ok := base.(*pipeline.Properties)
		if !ok {
			return nil, c.fail(fmt.Sprintf("cannot index a value of type %T", base), "")
		}
		return props.Index(prop.Value), nil
	default:
		return nil, c.fail("property access must use a literal name or index", "")
	}
}

func (c *compiler) field(base any, name string) (any, error) {
	switch b := base.(type) {
	case *pipeline.Properties:
		return b.Field(name), nil
	case map[string]any:
		v, ok := b[name]
		if !ok {
			return nil, c.fail(fmt.Sprintf("unknown field %q", name), "")
		}
		return v, nil
	default:
		return nil, c.fail(fmt.Sprintf("cannot access field %q on a value of type %T", name, base), "")
	}
}

// knownNames builds the suggestion text listing the scope's names.
func (c *compiler) knownNames() string {
	if len(c.scope) == 0 {
		return ""
	}
	names := make([]string, 0, len(c.scope))
	for name := range c.scope {
		names = append(names, name)
	}
	sort.Strings(names)
	return "Known names: " + strings.Join(names, ", ")
}
