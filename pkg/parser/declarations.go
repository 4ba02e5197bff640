package parser

import (
	"strings"

	. "github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
)

var modifierFlags = map[string]int{
	"public":    kinds.ModifierPublic,
	"protected": kinds.ModifierProtected,
	"private":   kinds.ModifierPrivate,
	"static":    kinds.ModifierStatic,
	"final":     kinds.ModifierFinal,
	"abstract":  kinds.ModifierAbstract,
	"readonly":  kinds.ModifierReadonly,
	"var":       kinds.ModifierPublic,
}

const visibilityMask = kinds.ModifierPublic | kinds.ModifierProtected | kinds.ModifierPrivate

var builtinTypes = map[string]int{
	"null":     kinds.TypeNull,
	"false":    kinds.TypeFalse,
	"true":     kinds.TypeTrue,
	"int":      kinds.TypeLong,
	"float":    kinds.TypeDouble,
	"string":   kinds.TypeString,
	"array":    kinds.TypeArray,
	"object":   kinds.TypeObject,
	"callable": kinds.TypeCallable,
	"iterable": kinds.TypeIterable,
	"void":     kinds.TypeVoid,
	"static":   kinds.TypeStatic,
	"mixed":    kinds.TypeMixed,
	"never":    kinds.TypeNever,
	"bool":     kinds.TypeBool,
}

// readFunctionDecl reads a named function after the function keyword.
func (p *Parser) readFunctionDecl(token *Token) (Value, error) {
	fn, err := p.readFunctionRest(kinds.FuncDecl, 0, token, true)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// readFunctionRest reads "[&] name (params) [: type] body" for functions and
// methods. A method without a body (abstract or interface) has null stmts.
func (p *Parser) readFunctionRest(kind Kind, flags int, token *Token, needBody bool) (*Node, error) {
	if p.TryReadToken(OperatorTokenType, "&") != nil {
		flags |= kinds.FuncReturnsRef
	}
	nameToken := p.PeekToken()
	if nameToken == nil || (nameToken.Type != NameTokenType && nameToken.Type != KeywordTokenType) {
		return nil, p.unexpected()
	}
	p.DropPeekedToken()
	params, err := p.readParams()
	if err != nil {
		return nil, err
	}
	var returnType Value
	if p.TryReadToken(OperatorTokenType, ":") != nil {
		if returnType, err = p.readType(); err != nil {
			return nil, err
		}
	}
	var stmts Value
	if needBody || !p.PeekToken().Is(MarkTokenType, ";") {
		if stmts, err = p.readBlock(); err != nil {
			return nil, err
		}
	} else {
		p.DropPeekedToken()
	}
	return NewNode(kind, flags, lineOf(token)).
		Set("name", String(nameToken.Text)).
		Set("docComment", nil).
		Set("params", params).
		Set("stmts", stmts).
		Set("returnType", returnType).
		Set("attributes", nil).
		Set("__declId", p.nextDeclID()), nil
}

func (p *Parser) readParams() (*Node, error) {
	open, err := p.MustReadToken(OpenDelimiterTokenType, "(")
	if err != nil {
		return nil, err
	}
	params := NewNode(kinds.ParamList, 0, lineOf(open))
	for !p.PeekToken().Is(CloseDelimiterTokenType, ")") {
		param, err := p.readParam()
		if err != nil {
			return nil, err
		}
		params.Append(param)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	return params, nil
}

// readParam reads "[modifiers] [type] [&] [...] $name [= default]".
// Modifiers only occur on promoted constructor parameters.
func (p *Parser) readParam() (*Node, error) {
	start := p.PeekToken()
	flags := p.readModifiers()
	var paramType Value
	if next := p.PeekToken(); next != nil && next.Type != VariableTokenType && !isOperator(next, "&", "...") {
		var err error
		if paramType, err = p.readType(); err != nil {
			return nil, err
		}
	}
	if p.TryReadToken(OperatorTokenType, "&") != nil {
		flags |= kinds.ParamRef
	}
	if p.TryReadToken(OperatorTokenType, "...") != nil {
		flags |= kinds.ParamVariadic
	}
	name := p.PeekToken()
	if name == nil || name.Type != VariableTokenType {
		return nil, p.unexpected()
	}
	p.DropPeekedToken()
	var def Value
	if p.TryReadToken(OperatorTokenType, "=") != nil {
		var err error
		if def, err = p.readExpr(); err != nil {
			return nil, err
		}
	}
	return NewNode(kinds.Param, flags, lineOf(start)).
		Set("type", paramType).
		Set("name", String(name.Val())).
		Set("default", def).
		Set("attributes", nil).
		Set("docComment", nil).
		Set("hooks", nil), nil
}

// readType reads a type declaration: a builtin type, a class name, or
// either of those made nullable with "?".
func (p *Parser) readType() (Value, error) {
	if question := p.TryReadToken(OperatorTokenType, "?"); question != nil {
		inner, err := p.readType()
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.NullableType, 0, lineOf(question)).Set("type", inner), nil
	}
	token := p.PeekToken()
	if token == nil {
		return nil, p.unexpected()
	}
	switch token.Type {
	case NameTokenType, KeywordTokenType:
		p.DropPeekedToken()
		if flag, ok := builtinTypes[strings.ToLower(token.Text)]; ok {
			return NewNode(kinds.Type, flag, lineOf(token)), nil
		}
		if token.Type == KeywordTokenType {
			return nil, NewSyntaxError(token.Start(), "unexpected %s", token.Describe())
		}
		return newName(token), nil
	}
	return nil, p.unexpected()
}

// readModifiers consumes member modifiers and returns their flags.
func (p *Parser) readModifiers() int {
	flags := 0
	for {
		token := p.PeekToken()
		if token == nil || token.Type != KeywordTokenType {
			return flags
		}
		flag, ok := modifierFlags[token.Val()]
		if !ok {
			return flags
		}
		p.DropPeekedToken()
		flags |= flag
	}
}

func (p *Parser) readNameList(line int) (*Node, error) {
	list := NewNode(kinds.NameList, 0, line)
	for {
		name, err := p.readName()
		if err != nil {
			return nil, err
		}
		list.Append(name)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			return list, nil
		}
	}
}

// readClass reads class, interface and trait declarations including any
// abstract or final prefix.
func (p *Parser) readClass(start *Token) (Value, error) {
	flags := 0
	for {
		token := p.GetToken()
		if token == nil {
			return nil, p.unexpected()
		}
		switch token.Val() {
		case "abstract":
			flags |= kinds.ClassAbstract
			continue
		case "final":
			flags |= kinds.ClassFinal
			continue
		case "interface":
			flags |= kinds.ClassInterface
		case "trait":
			flags |= kinds.ClassTrait
		case "class":
		default:
			return nil, NewSyntaxError(token.Start(), "unexpected %s", token.Describe())
		}
		break
	}
	line := lineOf(start)
	name := p.PeekToken()
	if name == nil || name.Type != NameTokenType {
		return nil, p.unexpected()
	}
	p.DropPeekedToken()

	var extends, implements Value
	if extendsToken := p.TryReadKeyword("extends"); extendsToken != nil {
		var err error
		if flags&kinds.ClassInterface != 0 {
			// Interfaces list their parents where classes list interfaces.
			implements, err = p.readNameList(lineOf(extendsToken))
		} else {
			extends, err = p.readName()
		}
		if err != nil {
			return nil, err
		}
	}
	if implementsToken := p.TryReadKeyword("implements"); implementsToken != nil {
		var err error
		if implements, err = p.readNameList(lineOf(implementsToken)); err != nil {
			return nil, err
		}
	}

	open, err := p.MustReadToken(OpenDelimiterTokenType, "{")
	if err != nil {
		return nil, err
	}
	stmts := NewNode(kinds.StmtList, 0, lineOf(open))
	for !p.PeekToken().Is(CloseDelimiterTokenType, "}") {
		member, err := p.readMember()
		if err != nil {
			return nil, err
		}
		stmts.Append(member)
	}
	p.DropPeekedToken()

	return NewNode(kinds.Class, flags, line).
		Set("name", String(name.Text)).
		Set("docComment", nil).
		Set("extends", extends).
		Set("implements", implements).
		Set("stmts", stmts).
		Set("attributes", nil).
		Set("type", nil).
		Set("__declId", p.nextDeclID()), nil
}

// readMember reads a method, constant group or property group. Members
// without a visibility modifier are public.
func (p *Parser) readMember() (Value, error) {
	start := p.PeekToken()
	if start == nil {
		return nil, p.unexpected()
	}
	flags := p.readModifiers()
	if flags&visibilityMask == 0 {
		flags |= kinds.ModifierPublic
	}
	token := p.PeekToken()
	switch {
	case isKeyword(token, "function"):
		p.DropPeekedToken()
		return p.readFunctionRest(kinds.Method, flags, start, false)
	case isKeyword(token, "const"):
		p.DropPeekedToken()
		return p.readClassConstGroup(start, flags)
	case isKeyword(token, "use"), isKeyword(token, "case"):
		return nil, NewSyntaxError(token.Start(), "unsupported %s", token.Describe())
	}
	return p.readPropGroup(start, flags)
}

func (p *Parser) readClassConstGroup(start *Token, flags int) (Value, error) {
	line := lineOf(start)
	decl := NewNode(kinds.ClassConstDecl, 0, line)
	for {
		name := p.PeekToken()
		if name == nil || (name.Type != NameTokenType && name.Type != KeywordTokenType) {
			return nil, p.unexpected()
		}
		p.DropPeekedToken()
		if _, err := p.MustReadToken(OperatorTokenType, "="); err != nil {
			return nil, err
		}
		value, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		decl.Append(NewNode(kinds.ConstElem, 0, lineOf(name)).
			Set("name", String(name.Text)).
			Set("value", value).
			Set("docComment", nil))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(MarkTokenType, ";"); err != nil {
		return nil, err
	}
	return NewNode(kinds.ClassConstGrp, flags, line).
		Set("const", decl).
		Set("attributes", nil).
		Set("type", nil), nil
}

func (p *Parser) readPropGroup(start *Token, flags int) (Value, error) {
	line := lineOf(start)
	var propType Value
	if next := p.PeekToken(); next != nil && next.Type != VariableTokenType {
		var err error
		if propType, err = p.readType(); err != nil {
			return nil, err
		}
	}
	decl := NewNode(kinds.PropDecl, 0, line)
	for {
		name := p.PeekToken()
		if name == nil || name.Type != VariableTokenType {
			return nil, p.unexpected()
		}
		p.DropPeekedToken()
		var def Value
		if p.TryReadToken(OperatorTokenType, "=") != nil {
			var err error
			if def, err = p.readExpr(); err != nil {
				return nil, err
			}
		}
		decl.Append(NewNode(kinds.PropElem, 0, lineOf(name)).
			Set("name", String(name.Val())).
			Set("default", def).
			Set("docComment", nil).
			Set("hooks", nil))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(MarkTokenType, ";"); err != nil {
		return nil, err
	}
	return NewNode(kinds.PropGroup, flags, line).
		Set("type", propType).
		Set("props", decl).
		Set("attributes", nil), nil
}
