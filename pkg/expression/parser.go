package expression

import (
	"strconv"
)

// Parse compiles src into an expression tree.
func Parse(src string) (Expr, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected token " + strconv.Quote(tok.text)}
	}

	return expr, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}

	return tok
}

// matchOp consumes the next token if it is one of ops (symbolic or keyword form)
// and returns its canonical operator.
func (p *parser) matchOp(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.kind != tokOperator && tok.kind != tokIdent {
		return "", false
	}

	for _, op := range ops {
		if tok.text == op {
			p.next()

			return canonical(op), true
		}
	}

	return "", false
}

func canonical(op string) string {
	switch op {
	case "and":
		return "&&"
	case "or":
		return "||"
	case "not":
		return "!"
	case "===":
		return "=="
	case "!==":
		return "!="
	default:
		return op
	}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.matchOp("||", "or")
		if !ok {
			return left, nil
		}

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.matchOp("&&", "and")
		if !ok {
			return left, nil
		}

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right}
	}
}

// parseNot handles the "not" keyword, which binds looser than comparisons. The "!" operator
// binds tighter, as in JavaScript, and is parsed with the other prefix operators.
func (p *parser) parseNot() (Expr, error) {
	if op, ok := p.matchOp("not"); ok {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &Unary{Op: op, Operand: operand}, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	op, ok := p.matchOp("===", "!==", "==", "!=", "<=", ">=", "<", ">")
	if !ok {
		return left, nil
	}

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if _, chained := p.matchOp("===", "!==", "==", "!=", "<=", ">=", "<", ">"); chained {
		return nil, &SyntaxError{Pos: p.tokens[p.pos-1].pos, Msg: "chained comparisons are not supported"}
	}

	return &Binary{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.matchOp("+", "-")
		if !ok {
			return left, nil
		}

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.matchOp("*", "/", "%")
		if !ok {
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if op, ok := p.matchOp("-", "!"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Unary{Op: op, Operand: operand}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()

	switch tok.kind {
	case tokNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Msg: "invalid number " + strconv.Quote(tok.text)}
		}

		return &Literal{Value: value}, nil
	case tokString:
		return &Literal{Value: tok.text}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null", "undefined", "nil":
			return &Literal{Value: nil}, nil
		case "and", "or", "not":
			return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected keyword " + strconv.Quote(tok.text)}
		}

		if p.peek().kind == tokLParen {
			return nil, &SyntaxError{Pos: tok.pos, Msg: "function calls are not allowed"}
		}

		return &Variable{Path: tok.text}, nil
	case tokLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: "expected )"}
		}

		return expr, nil
	case tokEOF:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of expression"}
	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected token " + strconv.Quote(tok.text)}
	}
}
