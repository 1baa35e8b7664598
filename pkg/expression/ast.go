package expression

import "fmt"

// Expr is a node of a parsed expression tree.
type Expr interface {
	String() string
}

// Literal is a constant: float64, string, bool or nil.
type Literal struct {
	Value any
}

// Variable references a context variable by dotted path.
type Variable struct {
	Path string
}

type Unary struct {
	Op      string
	Operand Expr
}

type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}

	if l.Value == nil {
		return "null"
	}

	return fmt.Sprintf("%v", l.Value)
}

func (v *Variable) String() string { return v.Path }

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

func (b *Binary) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
