package expression

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aaiaas/automation/pkg/template"
)

// Evaluate computes the value of expr against vars.
func Evaluate(expr Expr, vars map[string]any) (any, error) {
	switch node := expr.(type) {
	case *Literal:
		return node.Value, nil
	case *Variable:
		value, ok := template.Lookup(vars, node.Path)
		if !ok {
			return nil, &EvalError{Msg: "unknown variable " + strconv.Quote(node.Path)}
		}

		return normalize(value), nil
	case *Unary:
		return evalUnary(node, vars)
	case *Binary:
		return evalBinary(node, vars)
	default:
		return nil, &EvalError{Msg: "unsupported expression"}
	}
}

// EvaluateBool parses and evaluates src, converting the result to a boolean.
func EvaluateBool(src string, vars map[string]any) (bool, error) {
	expr, err := Parse(src)
	if err != nil {
		return false, err
	}

	value, err := Evaluate(expr, vars)
	if err != nil {
		return false, err
	}

	return Truthy(value), nil
}

// Truthy applies the usual truthiness rules for non-boolean values.
func Truthy(v any) bool {
	switch typed := normalize(v).(type) {
	case nil:
		return false
	case bool:
		return typed
	case float64:
		return typed != 0 && !math.IsNaN(typed)
	case string:
		return typed != ""
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	default:
		return true
	}
}

func evalUnary(node *Unary, vars map[string]any) (any, error) {
	operand, err := Evaluate(node.Operand, vars)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "!":
		return !Truthy(operand), nil
	case "-":
		n, ok := toNumber(operand)
		if !ok {
			return nil, &EvalError{Msg: "cannot negate " + describe(operand)}
		}

		return -n, nil
	default:
		return nil, &EvalError{Msg: "unknown unary operator " + node.Op}
	}
}

func evalBinary(node *Binary, vars map[string]any) (any, error) {
	left, err := Evaluate(node.Left, vars)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "&&":
		if !Truthy(left) {
			return false, nil
		}

		right, err := Evaluate(node.Right, vars)
		if err != nil {
			return nil, err
		}

		return Truthy(right), nil
	case "||":
		if Truthy(left) {
			return true, nil
		}

		right, err := Evaluate(node.Right, vars)
		if err != nil {
			return nil, err
		}

		return Truthy(right), nil
	}

	right, err := Evaluate(node.Right, vars)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "<", "<=", ">", ">=":
		return compare(node.Op, left, right)
	case "+":
		return add(left, right)
	case "-", "*", "/", "%":
		return arithmetic(node.Op, left, right)
	default:
		return nil, &EvalError{Msg: "unknown operator " + node.Op}
	}
}

func add(left, right any) (any, error) {
	_, leftString := left.(string)
	_, rightString := right.(string)

	if leftString || rightString {
		return template.Stringify(left) + template.Stringify(right), nil
	}

	return arithmetic("+", left, right)
}

func arithmetic(op string, left, right any) (any, error) {
	l, lok := toNumber(left)
	r, rok := toNumber(right)

	if !lok || !rok {
		return nil, &EvalError{Msg: "operator " + op + " needs numbers, got " + describe(left) + " and " + describe(right)}
	}

	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, &EvalError{Msg: "division by zero"}
		}

		return l / r, nil
	case "%":
		if r == 0 {
			return nil, &EvalError{Msg: "modulo by zero"}
		}

		return math.Mod(l, r), nil
	default:
		return nil, &EvalError{Msg: "unknown operator " + op}
	}
}

func compare(op string, left, right any) (bool, error) {
	ls, lString := left.(string)
	rs, rString := right.(string)

	if lString && rString {
		return ordered(op, strings.Compare(ls, rs)), nil
	}

	l, lok := toNumber(left)
	r, rok := toNumber(right)

	if !lok || !rok {
		return false, &EvalError{Msg: "cannot compare " + describe(left) + " with " + describe(right)}
	}

	switch {
	case l < r:
		return ordered(op, -1), nil
	case l > r:
		return ordered(op, 1), nil
	default:
		return ordered(op, 0), nil
	}
}

func ordered(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func looseEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	switch l := left.(type) {
	case float64:
		r, ok := toNumber(right)

		return ok && l == r
	case string:
		if r, ok := right.(string); ok {
			return l == r
		}

		if _, ok := right.(float64); ok {
			n, ok := toNumber(l)

			return ok && n == right.(float64)
		}

		if r, ok := right.(bool); ok {
			return l == strconv.FormatBool(r)
		}

		return false
	case bool:
		switch r := right.(type) {
		case bool:
			return l == r
		case string:
			return strconv.FormatBool(l) == r
		}

		return false
	default:
		return reflect.DeepEqual(left, right)
	}
}

// toNumber accepts numbers and strings holding a number.
func toNumber(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

// normalize folds the numeric zoo into float64.
func normalize(v any) any {
	switch typed := v.(type) {
	case int:
		return float64(typed)
	case int8:
		return float64(typed)
	case int16:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint8:
		return float64(typed)
	case uint16:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	default:
		return v
	}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}

	return reflect.TypeOf(v).String()
}
