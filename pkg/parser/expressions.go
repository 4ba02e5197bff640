package parser

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	. "github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
)

// Binding powers, loosest first. Assignment and the ternary operator are
// handled outside the binary operator table.
const (
	precLowest     = 0
	precAssign     = 4
	precTernary    = 5
	precInstanceof = 18
	precUnary      = 19
)

type binaryOp struct {
	prec  int
	right bool // right associative
	flag  int
}

var binaryOps = map[string]binaryOp{
	"or":         {1, false, kinds.BinaryBoolOr},
	"xor":        {2, false, kinds.BinaryBoolXor},
	"and":        {3, false, kinds.BinaryBoolAnd},
	"??":         {6, true, kinds.BinaryCoalesce},
	"||":         {7, false, kinds.BinaryBoolOr},
	"&&":         {8, false, kinds.BinaryBoolAnd},
	"|":          {9, false, kinds.BinaryBitwiseOr},
	"^":          {10, false, kinds.BinaryBitwiseXor},
	"&":          {11, false, kinds.BinaryBitwiseAnd},
	"==":         {12, false, kinds.BinaryIsEqual},
	"!=":         {12, false, kinds.BinaryIsNotEqual},
	"<>":         {12, false, kinds.BinaryIsNotEqual},
	"===":        {12, false, kinds.BinaryIsIdentical},
	"!==":        {12, false, kinds.BinaryIsNotIdentical},
	"<=>":        {12, false, kinds.BinarySpaceship},
	"<":          {13, false, kinds.BinaryIsSmaller},
	"<=":         {13, false, kinds.BinaryIsSmallerOrEq},
	">":          {13, false, kinds.BinaryIsGreater},
	">=":         {13, false, kinds.BinaryIsGreaterOrEq},
	".":          {14, false, kinds.BinaryConcat},
	"<<":         {15, false, kinds.BinaryShiftLeft},
	">>":         {15, false, kinds.BinaryShiftRight},
	"+":          {16, false, kinds.BinaryAdd},
	"-":          {16, false, kinds.BinarySub},
	"*":          {17, false, kinds.BinaryMul},
	"/":          {17, false, kinds.BinaryDiv},
	"%":          {17, false, kinds.BinaryMod},
	"instanceof": {precInstanceof, false, 0},
	"**":         {20, true, kinds.BinaryPow},
}

var assignOps = map[string]int{
	"+=":  kinds.BinaryAdd,
	"-=":  kinds.BinarySub,
	"*=":  kinds.BinaryMul,
	"/=":  kinds.BinaryDiv,
	"%=":  kinds.BinaryMod,
	".=":  kinds.BinaryConcat,
	"**=": kinds.BinaryPow,
	"&=":  kinds.BinaryBitwiseAnd,
	"|=":  kinds.BinaryBitwiseOr,
	"^=":  kinds.BinaryBitwiseXor,
	"<<=": kinds.BinaryShiftLeft,
	">>=": kinds.BinaryShiftRight,
	"??=": kinds.BinaryCoalesce,
}

var unaryOps = map[string]int{
	"!": kinds.UnaryBoolNot,
	"~": kinds.UnaryBitwiseNot,
	"-": kinds.UnaryMinus,
	"+": kinds.UnaryPlus,
	"@": kinds.UnarySilence,
}

var castFlags = map[string]int{
	"int":    kinds.TypeLong,
	"bool":   kinds.TypeBool,
	"float":  kinds.TypeDouble,
	"string": kinds.TypeString,
	"array":  kinds.TypeArray,
	"object": kinds.TypeObject,
	"unset":  kinds.TypeNull,
}

var includeFlags = map[string]int{
	"include":      kinds.ExecInclude,
	"include_once": kinds.ExecIncludeOnce,
	"require":      kinds.ExecRequire,
	"require_once": kinds.ExecRequireOnce,
}

func (p *Parser) readExpr() (Value, error) {
	return p.readExprPrec(precLowest)
}

func binaryOpFor(token *Token) (binaryOp, bool) {
	if token == nil {
		return binaryOp{}, false
	}
	switch token.Type {
	case OperatorTokenType:
		op, ok := binaryOps[token.Text]
		return op, ok
	case KeywordTokenType:
		switch token.Val() {
		case "or", "xor", "and", "instanceof":
			return binaryOps[token.Val()], true
		}
	}
	return binaryOp{}, false
}

// readExprPrec reads an expression whose binary operators bind at least as
// tightly as minPrec.
func (p *Parser) readExprPrec(minPrec int) (Value, error) {
	start := p.PeekToken()
	if start == nil {
		return nil, p.unexpected()
	}
	line := lineOf(start)
	lhs, err := p.readUnary()
	if err != nil {
		return nil, err
	}
	for {
		token := p.PeekToken()
		if op, ok := binaryOpFor(token); ok && op.prec >= minPrec {
			p.DropPeekedToken()
			if isKeyword(token, "instanceof") {
				class, err := p.readClassRef()
				if err != nil {
					return nil, err
				}
				lhs = NewNode(kinds.Instanceof, 0, line).Set("expr", lhs).Set("class", class)
				continue
			}
			next := op.prec + 1
			if op.right {
				next = op.prec
			}
			rhs, err := p.readExprPrec(next)
			if err != nil {
				return nil, err
			}
			lhs = NewNode(kinds.BinaryOp, op.flag, line).Set("left", lhs).Set("right", rhs)
			continue
		}
		if isOperator(token, "?") && precTernary >= minPrec {
			p.DropPeekedToken()
			var whenTrue Value
			if p.TryReadToken(OperatorTokenType, ":") == nil {
				if whenTrue, err = p.readExprPrec(precAssign); err != nil {
					return nil, err
				}
				if _, err := p.MustReadToken(OperatorTokenType, ":"); err != nil {
					return nil, err
				}
			}
			whenFalse, err := p.readExprPrec(precTernary + 1)
			if err != nil {
				return nil, err
			}
			lhs = NewNode(kinds.Conditional, 0, line).
				Set("cond", lhs).
				Set("true", whenTrue).
				Set("false", whenFalse)
			continue
		}
		return lhs, nil
	}
}

func (p *Parser) readUnary() (Value, error) {
	token := p.PeekToken()
	if token == nil {
		return nil, p.unexpected()
	}
	line := lineOf(token)
	switch token.Type {
	case OperatorTokenType:
		if flag, ok := unaryOps[token.Text]; ok {
			p.DropPeekedToken()
			prec := precUnary
			if token.Text == "!" {
				prec = precInstanceof
			}
			operand, err := p.readExprPrec(prec)
			if err != nil {
				return nil, err
			}
			return NewNode(kinds.UnaryOp, flag, line).Set("expr", operand), nil
		}
		if token.Text == "++" || token.Text == "--" {
			p.DropPeekedToken()
			target, err := p.readPostfixExpr()
			if err != nil {
				return nil, err
			}
			kind := kinds.PreInc
			if token.Text == "--" {
				kind = kinds.PreDec
			}
			return NewNode(kind, 0, line).Set("var", target), nil
		}
	case CastTokenType:
		p.DropPeekedToken()
		operand, err := p.readExprPrec(precUnary)
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.Cast, castFlags[token.Val()], line).Set("expr", operand), nil
	case KeywordTokenType:
		switch token.Val() {
		case "new":
			p.DropPeekedToken()
			newExpr, err := p.readNew(token)
			if err != nil {
				return nil, err
			}
			return p.readPostfixOps(newExpr)
		case "clone":
			p.DropPeekedToken()
			operand, err := p.readExprPrec(precUnary)
			if err != nil {
				return nil, err
			}
			return NewNode(kinds.Clone, 0, line).Set("expr", operand), nil
		case "print":
			p.DropPeekedToken()
			operand, err := p.readExprPrec(precAssign)
			if err != nil {
				return nil, err
			}
			return NewNode(kinds.Print, 0, line).Set("expr", operand), nil
		case "throw":
			p.DropPeekedToken()
			operand, err := p.readExprPrec(precAssign)
			if err != nil {
				return nil, err
			}
			return NewNode(kinds.Throw, 0, line).Set("expr", operand), nil
		case "include", "include_once", "require", "require_once":
			p.DropPeekedToken()
			operand, err := p.readExprPrec(precAssign)
			if err != nil {
				return nil, err
			}
			return NewNode(kinds.IncludeOrEval, includeFlags[token.Val()], line).Set("expr", operand), nil
		}
	}
	target, err := p.readPostfixExpr()
	if err != nil {
		return nil, err
	}
	return p.readAssignment(target, line)
}

// readAssignment handles the operators that may follow a variable:
// assignment, compound assignment and postfix increments.
func (p *Parser) readAssignment(target Value, line int) (Value, error) {
	token := p.PeekToken()
	if token == nil || token.Type != OperatorTokenType || !isAssignable(target) {
		return target, nil
	}
	switch token.Text {
	case "=":
		p.DropPeekedToken()
		if p.TryReadToken(OperatorTokenType, "&") != nil {
			value, err := p.readExprPrec(precAssign)
			if err != nil {
				return nil, err
			}
			return NewNode(kinds.AssignRef, 0, line).Set("var", target).Set("expr", value), nil
		}
		value, err := p.readExprPrec(precAssign)
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.Assign, 0, line).Set("var", target).Set("expr", value), nil
	case "++":
		p.DropPeekedToken()
		return NewNode(kinds.PostInc, 0, line).Set("var", target), nil
	case "--":
		p.DropPeekedToken()
		return NewNode(kinds.PostDec, 0, line).Set("var", target), nil
	}
	if flag, ok := assignOps[token.Text]; ok {
		p.DropPeekedToken()
		value, err := p.readExprPrec(precAssign)
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.AssignOp, flag, line).Set("var", target).Set("expr", value), nil
	}
	return target, nil
}

func isAssignable(v Value) bool {
	n, ok := v.(*Node)
	if !ok {
		return false
	}
	switch n.Kind {
	case kinds.Var, kinds.Dim, kinds.Prop, kinds.StaticProp, kinds.Array:
		return true
	}
	return false
}

func (p *Parser) readPostfixExpr() (Value, error) {
	primary, err := p.readPrimary()
	if err != nil {
		return nil, err
	}
	return p.readPostfixOps(primary)
}

// readPostfixOps applies any chain of dims, member accesses and calls.
func (p *Parser) readPostfixOps(expr Value) (Value, error) {
	for {
		token := p.PeekToken()
		if token == nil {
			return expr, nil
		}
		line := lineOf(token)
		if n, ok := expr.(*Node); ok {
			line = n.Line
		}
		switch {
		case token.Is(OpenDelimiterTokenType, "["):
			p.DropPeekedToken()
			var dim Value
			if p.TryReadToken(CloseDelimiterTokenType, "]") == nil {
				var err error
				if dim, err = p.readExpr(); err != nil {
					return nil, err
				}
				if _, err := p.MustReadToken(CloseDelimiterTokenType, "]"); err != nil {
					return nil, err
				}
			}
			expr = NewNode(kinds.Dim, 0, line).Set("expr", expr).Set("dim", dim)
		case isOperator(token, "->", "?->"):
			p.DropPeekedToken()
			member, err := p.readMemberName()
			if err != nil {
				return nil, err
			}
			if p.PeekToken().Is(OpenDelimiterTokenType, "(") {
				args, err := p.readArgs()
				if err != nil {
					return nil, err
				}
				expr = NewNode(kinds.MethodCall, 0, line).
					Set("expr", expr).
					Set("method", member).
					Set("args", args)
			} else {
				expr = NewNode(kinds.Prop, 0, line).Set("expr", expr).Set("prop", member)
			}
		case isOperator(token, "::"):
			p.DropPeekedToken()
			next := p.PeekToken()
			switch {
			case next != nil && next.Type == VariableTokenType:
				p.DropPeekedToken()
				expr = NewNode(kinds.StaticProp, 0, line).Set("class", expr).Set("prop", String(next.Val()))
			case next != nil && (next.Type == NameTokenType || next.Type == KeywordTokenType):
				p.DropPeekedToken()
				if p.PeekToken().Is(OpenDelimiterTokenType, "(") {
					args, err := p.readArgs()
					if err != nil {
						return nil, err
					}
					expr = NewNode(kinds.StaticCall, 0, line).
						Set("class", expr).
						Set("method", String(next.Text)).
						Set("args", args)
				} else if isKeyword(next, "class") {
					expr = NewNode(kinds.ClassName, 0, line).Set("class", expr)
				} else {
					expr = NewNode(kinds.ClassConst, 0, line).Set("class", expr).Set("const", String(next.Text))
				}
			default:
				return nil, p.unexpected()
			}
		case token.Is(OpenDelimiterTokenType, "("):
			args, err := p.readArgs()
			if err != nil {
				return nil, err
			}
			expr = NewNode(kinds.Call, 0, line).Set("expr", expr).Set("args", args)
		default:
			return expr, nil
		}
	}
}

// readMemberName reads what follows "->": a bare name, a variable, or a
// braced expression.
func (p *Parser) readMemberName() (Value, error) {
	token := p.PeekToken()
	switch {
	case token == nil:
		return nil, p.unexpected()
	case token.Type == NameTokenType || token.Type == KeywordTokenType:
		p.DropPeekedToken()
		return String(token.Text), nil
	case token.Type == VariableTokenType:
		p.DropPeekedToken()
		return newVar(token), nil
	case token.Is(OpenDelimiterTokenType, "{"):
		p.DropPeekedToken()
		expr, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.MustReadToken(CloseDelimiterTokenType, "}"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.unexpected()
}

func (p *Parser) readArgs() (*Node, error) {
	open, err := p.MustReadToken(OpenDelimiterTokenType, "(")
	if err != nil {
		return nil, err
	}
	args := NewNode(kinds.ArgList, 0, lineOf(open))
	for !p.PeekToken().Is(CloseDelimiterTokenType, ")") {
		var arg Value
		if spread := p.TryReadToken(OperatorTokenType, "..."); spread != nil {
			expr, err := p.readExpr()
			if err != nil {
				return nil, err
			}
			arg = NewNode(kinds.Unpack, 0, lineOf(spread)).Set("expr", expr)
		} else if arg, err = p.readExpr(); err != nil {
			return nil, err
		}
		args.Append(arg)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func newVar(token *Token) *Node {
	return NewNode(kinds.Var, 0, lineOf(token)).Set("name", String(token.Val()))
}

// newName builds an AST_NAME, stripping the leading backslash of a fully
// qualified name.
func newName(token *Token) *Node {
	text := token.Text
	flags := kinds.NameNotFQ
	if strings.HasPrefix(text, "\\") {
		text = text[1:]
		flags = kinds.NameFQ
	}
	return NewNode(kinds.Name, flags, lineOf(token)).Set("name", String(text))
}

func (p *Parser) readName() (*Node, error) {
	token := p.PeekToken()
	if token == nil || token.Type != NameTokenType {
		return nil, p.unexpected()
	}
	p.DropPeekedToken()
	return newName(token), nil
}

// readClassRef reads the class operand of new or instanceof.
func (p *Parser) readClassRef() (Value, error) {
	token := p.PeekToken()
	switch {
	case token == nil:
		return nil, p.unexpected()
	case token.Type == NameTokenType, isKeyword(token, "static"):
		p.DropPeekedToken()
		return newName(token), nil
	case token.Type == VariableTokenType:
		p.DropPeekedToken()
		var class Value = newVar(token)
		// Member accesses are part of the class expression, calls are not.
		for {
			next := p.PeekToken()
			if isOperator(next, "->", "?->") {
				p.DropPeekedToken()
				member, err := p.readMemberName()
				if err != nil {
					return nil, err
				}
				class = NewNode(kinds.Prop, 0, lineOf(token)).Set("expr", class).Set("prop", member)
				continue
			}
			if next.Is(OpenDelimiterTokenType, "[") {
				p.DropPeekedToken()
				dim, err := p.readExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.MustReadToken(CloseDelimiterTokenType, "]"); err != nil {
					return nil, err
				}
				class = NewNode(kinds.Dim, 0, lineOf(token)).Set("expr", class).Set("dim", dim)
				continue
			}
			return class, nil
		}
	case token.Is(OpenDelimiterTokenType, "("):
		return p.readParenExpr()
	}
	return nil, p.unexpected()
}

func (p *Parser) readNew(token *Token) (Value, error) {
	class, err := p.readClassRef()
	if err != nil {
		return nil, err
	}
	var args *Node
	if p.PeekToken().Is(OpenDelimiterTokenType, "(") {
		if args, err = p.readArgs(); err != nil {
			return nil, err
		}
	} else {
		args = NewNode(kinds.ArgList, 0, lineOf(token))
	}
	return NewNode(kinds.New, 0, lineOf(token)).Set("class", class).Set("args", args), nil
}

func (p *Parser) readPrimary() (Value, error) {
	token := p.PeekToken()
	if token == nil {
		return nil, p.unexpected()
	}
	line := lineOf(token)
	switch token.Type {
	case VariableTokenType:
		p.DropPeekedToken()
		return newVar(token), nil
	case NumericLiteralTokenType:
		p.DropPeekedToken()
		return numberValue(token)
	case StringLiteralTokenType:
		p.DropPeekedToken()
		return String(token.Val()), nil
	case InterpolatedStringTokenType:
		p.DropPeekedToken()
		return newEncapsList(token), nil
	case NameTokenType:
		p.DropPeekedToken()
		name := newName(token)
		next := p.PeekToken()
		if next.Is(OpenDelimiterTokenType, "(") || isOperator(next, "::") {
			return name, nil
		}
		return NewNode(kinds.Const, 0, line).Set("name", name), nil
	case OpenDelimiterTokenType:
		switch token.Text {
		case "(":
			return p.readParenExpr()
		case "[":
			p.DropPeekedToken()
			return p.readArrayElements(token, "]", kinds.ArraySyntaxShort)
		}
	case KeywordTokenType:
		return p.readKeywordPrimary(token)
	}
	return nil, p.unexpected()
}

func (p *Parser) readKeywordPrimary(token *Token) (Value, error) {
	line := lineOf(token)
	next := p.queue.PeekAt(1)
	switch token.Val() {
	case "array", "list":
		if !next.Is(OpenDelimiterTokenType, "(") {
			break
		}
		p.DropPeekedToken()
		p.DropPeekedToken()
		flags := kinds.ArraySyntaxLong
		if token.Val() == "list" {
			flags = kinds.ArraySyntaxList
		}
		return p.readArrayElements(token, ")", flags)
	case "static":
		if isOperator(next, "::") {
			p.DropPeekedToken()
			return newName(token), nil
		}
	case "isset":
		p.DropPeekedToken()
		return p.readIsset(token)
	case "empty":
		p.DropPeekedToken()
		expr, err := p.readParenExpr()
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.Empty, 0, line).Set("expr", expr), nil
	case "eval":
		p.DropPeekedToken()
		expr, err := p.readParenExpr()
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.IncludeOrEval, kinds.ExecEval, line).Set("expr", expr), nil
	case "exit", "die":
		p.DropPeekedToken()
		var expr Value
		if p.TryReadToken(OpenDelimiterTokenType, "(") != nil {
			if p.TryReadToken(CloseDelimiterTokenType, ")") == nil {
				var err error
				if expr, err = p.readExpr(); err != nil {
					return nil, err
				}
				if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
					return nil, err
				}
			}
		}
		return NewNode(kinds.Exit, 0, line).Set("expr", expr), nil
	}
	return nil, p.unexpected()
}

// readIsset turns isset($a, $b) into a chain of AST_ISSET joined with
// BINARY_BOOL_AND.
func (p *Parser) readIsset(token *Token) (Value, error) {
	line := lineOf(token)
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	var result Value
	for !p.PeekToken().Is(CloseDelimiterTokenType, ")") {
		target, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		isset := NewNode(kinds.Isset, 0, line).Set("var", target)
		if result == nil {
			result = isset
		} else {
			result = NewNode(kinds.BinaryOp, kinds.BinaryBoolAnd, line).Set("left", result).Set("right", isset)
		}
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, NewSyntaxError(token.Start(), "isset requires at least one argument")
	}
	return result, nil
}

// readArrayElements reads the elements of an array literal up to end. Empty
// slots, as in [, $b], are null.
func (p *Parser) readArrayElements(token *Token, end string, flags int) (Value, error) {
	array := NewNode(kinds.Array, flags, lineOf(token))
	for {
		next := p.PeekToken()
		if next.Is(CloseDelimiterTokenType, end) {
			p.DropPeekedToken()
			return array, nil
		}
		if next.Is(MarkTokenType, ",") {
			p.DropPeekedToken()
			array.Append(nil)
			continue
		}
		elem, err := p.readArrayElement()
		if err != nil {
			return nil, err
		}
		array.Append(elem)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			if _, err := p.MustReadToken(CloseDelimiterTokenType, end); err != nil {
				return nil, err
			}
			return array, nil
		}
	}
}

func (p *Parser) readArrayElement() (Value, error) {
	start := p.PeekToken()
	line := lineOf(start)
	if p.TryReadToken(OperatorTokenType, "...") != nil {
		expr, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.Unpack, 0, line).Set("expr", expr), nil
	}
	flags := 0
	if p.TryReadToken(OperatorTokenType, "&") != nil {
		flags = kinds.ArrayElemRef
	}
	value, err := p.readExpr()
	if err != nil {
		return nil, err
	}
	var key Value
	if flags == 0 && p.TryReadToken(OperatorTokenType, "=>") != nil {
		key = value
		if p.TryReadToken(OperatorTokenType, "&") != nil {
			flags = kinds.ArrayElemRef
		}
		if value, err = p.readExpr(); err != nil {
			return nil, err
		}
	}
	return NewNode(kinds.ArrayElem, flags, line).Set("value", value).Set("key", key), nil
}

// newEncapsList converts an interpolated string into its parts: literal
// pieces as strings and embedded variables as AST_VAR nodes.
func newEncapsList(token *Token) *Node {
	list := NewNode(kinds.EncapsList, 0, lineOf(token))
	for _, part := range token.Subtokens {
		if part.Type == VariableTokenType {
			list.Append(newVar(part))
		} else {
			list.Append(String(part.Val()))
		}
	}
	return list
}

// numberValue converts a numeric literal. Integers that overflow become
// floats, as in PHP.
func numberValue(token *Token) (Scalar, error) {
	text := strings.ReplaceAll(token.Text, "_", "")
	if token.Float {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Null(), NewSyntaxError(token.Start(), "invalid numeric literal")
		}
		return Float(f), nil
	}
	base, digits := 10, text
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, digits = 16, text[2:]
	case strings.HasPrefix(lower, "0b"):
		base, digits = 2, text[2:]
	case strings.HasPrefix(lower, "0o"):
		base, digits = 8, text[2:]
	case len(text) > 1 && text[0] == '0':
		base, digits = 8, text[1:]
	}
	i, err := strconv.ParseInt(digits, base, 64)
	if err == nil {
		return Int(i), nil
	}
	if errors.Is(err, strconv.ErrRange) {
		if n, ok := new(big.Int).SetString(digits, base); ok {
			f, _ := new(big.Float).SetInt(n).Float64()
			return Float(f), nil
		}
	}
	return Null(), NewSyntaxError(token.Start(), "invalid numeric literal")
}
