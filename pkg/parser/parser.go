// Package parser builds php-ast shaped syntax trees from PHP source text.
//
// Node kinds, flags and child names follow php-ast so that the serialized
// documents can be compared with the ones the PHP extension produces. Bodies
// of control structures are always AST_STMT_LIST nodes, even when the source
// has a single statement without braces.
package parser

import (
	"fmt"
	"slices"

	. "github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
	"github.com/spicery/astdoc/pkg/tokenizer"
)

type TokenQueue struct {
	tokens []*Token
	next   int
}

func NewTokenQueue(tokens []*Token) TokenQueue {
	return TokenQueue{tokens: tokens}
}

func (q *TokenQueue) IsEmpty() bool {
	return q.next >= len(q.tokens)
}

// PeekAt returns the token offset places ahead, or nil past the end.
func (q *TokenQueue) PeekAt(offset int) *Token {
	if q.next+offset >= len(q.tokens) {
		return nil
	}
	return q.tokens[q.next+offset]
}

func (q *TokenQueue) Pop() *Token {
	token := q.PeekAt(0)
	if token != nil {
		q.next++
	}
	return token
}

// Last returns the most recently consumed token.
func (q *TokenQueue) Last() *Token {
	if q.next == 0 {
		return nil
	}
	return q.tokens[q.next-1]
}

type Parser struct {
	queue  TokenQueue
	declID int
}

func NewParser(tokens []*Token) *Parser {
	return &Parser{queue: NewTokenQueue(tokens)}
}

// Parse tokenizes and parses src into a tree rooted at an AST_STMT_LIST
// node. Malformed input fails with *common.SyntaxError.
func Parse(src string, version int) (*Node, error) {
	if !slices.Contains(kinds.SupportedVersions, version) {
		return nil, fmt.Errorf("unsupported AST version %d", version)
	}
	tokens, err := tokenizer.NewTokenizer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	logger.L().Debug("tokenized source", "tokens", len(tokens))
	return NewParser(tokens).ParseFile()
}

func (p *Parser) ParseFile() (*Node, error) {
	root := NewNode(kinds.StmtList, 0, 1)
	if err := p.readStatements(root, nil); err != nil {
		return nil, err
	}
	return root, nil
}

// PeekToken returns the next token without consuming it, or nil at the end
// of input.
func (p *Parser) PeekToken() *Token {
	return p.queue.PeekAt(0)
}

func (p *Parser) DropPeekedToken() {
	p.queue.Pop()
}

func (p *Parser) GetToken() *Token {
	return p.queue.Pop()
}

func (p *Parser) MustReadToken(expectedType TokenType, text string) (*Token, error) {
	token := p.PeekToken()
	if !token.Is(expectedType, text) {
		return nil, p.unexpected()
	}
	p.DropPeekedToken()
	return token, nil
}

func (p *Parser) TryReadToken(expectedType TokenType, text string) *Token {
	token := p.PeekToken()
	if token.Is(expectedType, text) {
		p.DropPeekedToken()
		return token
	}
	return nil
}

func (p *Parser) TryReadKeyword(words ...string) *Token {
	token := p.PeekToken()
	if isKeyword(token, words...) {
		p.DropPeekedToken()
		return token
	}
	return nil
}

func (p *Parser) MustReadKeyword(word string) (*Token, error) {
	if token := p.TryReadKeyword(word); token != nil {
		return token, nil
	}
	return nil, p.unexpected()
}

func isKeyword(token *Token, words ...string) bool {
	return token != nil && token.Type == KeywordTokenType && slices.Contains(words, token.Val())
}

func isOperator(token *Token, ops ...string) bool {
	return token != nil && token.Type == OperatorTokenType && slices.Contains(ops, token.Text)
}

// unexpected reports the next token, or the end of file, as a syntax error.
func (p *Parser) unexpected() error {
	token := p.PeekToken()
	if token == nil {
		pos := LineCol{LineNo: 1, ColNo: 1}
		if last := p.queue.Last(); last != nil {
			pos = last.Span.End()
		}
		return NewSyntaxError(pos, "unexpected end of file")
	}
	return NewSyntaxError(token.Start(), "unexpected %s", token.Describe())
}

func lineOf(token *Token) int {
	return token.Span.StartLine
}

func (p *Parser) nextDeclID() Scalar {
	id := p.declID
	p.declID++
	return Int(int64(id))
}

// readStatements appends statements to list until stop matches the next
// token. A nil stop reads to the end of input.
func (p *Parser) readStatements(list *Node, stop func(*Token) bool) error {
	for {
		token := p.PeekToken()
		if token == nil {
			if stop != nil {
				return p.unexpected()
			}
			return nil
		}
		if stop != nil && stop(token) {
			return nil
		}
		stmt, err := p.readStatement()
		if err != nil {
			return err
		}
		if stmt != nil {
			list.Append(stmt)
		}
	}
}

func closedBy(text string) func(*Token) bool {
	return func(token *Token) bool {
		return token.Is(CloseDelimiterTokenType, text)
	}
}

func keywordIn(words ...string) func(*Token) bool {
	return func(token *Token) bool {
		return isKeyword(token, words...)
	}
}

// mustEndStatement accepts a semicolon, or a close tag which it leaves for
// the statement loop.
func (p *Parser) mustEndStatement() error {
	if p.TryReadToken(MarkTokenType, ";") != nil {
		return nil
	}
	if token := p.PeekToken(); token != nil && token.Type == CloseTagTokenType {
		return nil
	}
	return p.unexpected()
}

// readStatement returns nil for tokens that produce no node, such as open
// tags and empty statements.
func (p *Parser) readStatement() (Value, error) {
	token := p.PeekToken()
	switch token.Type {
	case OpenTagTokenType:
		p.DropPeekedToken()
		if token.Text == "<?=" {
			return p.readEcho(token)
		}
		return nil, nil
	case CloseTagTokenType:
		p.DropPeekedToken()
		return nil, nil
	case InlineHTMLTokenType:
		p.DropPeekedToken()
		return NewNode(kinds.Echo, 0, lineOf(token)).Set("expr", String(token.Val())), nil
	case MarkTokenType:
		if token.Text == ";" {
			p.DropPeekedToken()
			return nil, nil
		}
	case OpenDelimiterTokenType:
		if token.Text == "{" {
			return p.readBlock()
		}
	case KeywordTokenType:
		return p.readKeywordStatement(token)
	}
	return p.readExprStatement()
}

func (p *Parser) readKeywordStatement(token *Token) (Value, error) {
	switch token.Val() {
	case "echo":
		p.DropPeekedToken()
		return p.readEcho(token)
	case "if":
		p.DropPeekedToken()
		return p.readIf(token)
	case "while":
		p.DropPeekedToken()
		return p.readWhile(token)
	case "do":
		p.DropPeekedToken()
		return p.readDoWhile(token)
	case "for":
		p.DropPeekedToken()
		return p.readFor(token)
	case "foreach":
		p.DropPeekedToken()
		return p.readForeach(token)
	case "switch":
		p.DropPeekedToken()
		return p.readSwitch(token)
	case "break", "continue":
		p.DropPeekedToken()
		return p.readBreakContinue(token)
	case "return":
		p.DropPeekedToken()
		return p.readReturn(token)
	case "global":
		p.DropPeekedToken()
		return p.readGlobal(token)
	case "unset":
		p.DropPeekedToken()
		return p.readUnset(token)
	case "try":
		p.DropPeekedToken()
		return p.readTry(token)
	case "function":
		if next := p.queue.PeekAt(1); next != nil && (next.Type == NameTokenType || isOperator(next, "&")) {
			p.DropPeekedToken()
			return p.readFunctionDecl(token)
		}
	case "abstract", "final", "class", "interface", "trait":
		return p.readClass(token)
	case "namespace", "use", "declare", "goto", "match", "yield", "fn":
		return nil, NewSyntaxError(token.Start(), "unsupported %s", token.Describe())
	}
	return p.readExprStatement()
}

func (p *Parser) readExprStatement() (Value, error) {
	expr, err := p.readExpr()
	if err != nil {
		return nil, err
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) readBlock() (*Node, error) {
	open, err := p.MustReadToken(OpenDelimiterTokenType, "{")
	if err != nil {
		return nil, err
	}
	list := NewNode(kinds.StmtList, 0, lineOf(open))
	if err := p.readStatements(list, closedBy("}")); err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, "}"); err != nil {
		return nil, err
	}
	return list, nil
}

// readBody reads a braced block or a single statement, always returning an
// AST_STMT_LIST.
func (p *Parser) readBody() (*Node, error) {
	token := p.PeekToken()
	if token.Is(OpenDelimiterTokenType, "{") {
		return p.readBlock()
	}
	if token == nil {
		return nil, p.unexpected()
	}
	list := NewNode(kinds.StmtList, 0, lineOf(token))
	stmt, err := p.readStatement()
	if err != nil {
		return nil, err
	}
	if stmt != nil {
		list.Append(stmt)
	}
	return list, nil
}

// readAltBody reads the statements of the alternative syntax, as in
// "while (...): ... endwhile;", stopping before any of the given keywords.
func (p *Parser) readAltBody(line int, stop ...string) (*Node, error) {
	list := NewNode(kinds.StmtList, 0, line)
	if err := p.readStatements(list, keywordIn(stop...)); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) readEndKeyword(word string) error {
	if _, err := p.MustReadKeyword(word); err != nil {
		return err
	}
	return p.mustEndStatement()
}

func (p *Parser) readParenExpr() (Value, error) {
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	expr, err := p.readExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	return expr, nil
}

// group returns the single node, or an AST_STMT_LIST holding all of them,
// matching how statements such as "echo $a, $b;" are represented.
func group(nodes []*Node, line int) Value {
	if len(nodes) == 1 {
		return nodes[0]
	}
	list := NewNode(kinds.StmtList, 0, line)
	for _, n := range nodes {
		list.Append(n)
	}
	return list
}

func (p *Parser) readEcho(token *Token) (Value, error) {
	var echoes []*Node
	for {
		expr, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		echoes = append(echoes, NewNode(kinds.Echo, 0, lineOf(token)).Set("expr", expr))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return group(echoes, lineOf(token)), nil
}

func (p *Parser) readIf(token *Token) (Value, error) {
	ifNode := NewNode(kinds.If, 0, lineOf(token))
	cond, err := p.readParenExpr()
	if err != nil {
		return nil, err
	}
	if p.TryReadToken(OperatorTokenType, ":") != nil {
		return p.readAltIf(ifNode, token, cond)
	}
	stmts, err := p.readBody()
	if err != nil {
		return nil, err
	}
	ifNode.Append(newIfElem(cond, stmts, lineOf(token)))
	for {
		next := p.PeekToken()
		switch {
		case isKeyword(next, "elseif"):
			p.DropPeekedToken()
			cond, err := p.readParenExpr()
			if err != nil {
				return nil, err
			}
			stmts, err := p.readBody()
			if err != nil {
				return nil, err
			}
			ifNode.Append(newIfElem(cond, stmts, lineOf(next)))
		case isKeyword(next, "else"):
			p.DropPeekedToken()
			stmts, err := p.readBody()
			if err != nil {
				return nil, err
			}
			ifNode.Append(newIfElem(nil, stmts, lineOf(next)))
			return ifNode, nil
		default:
			return ifNode, nil
		}
	}
}

func (p *Parser) readAltIf(ifNode *Node, token *Token, cond Value) (Value, error) {
	line := lineOf(token)
	for {
		stmts, err := p.readAltBody(line, "elseif", "else", "endif")
		if err != nil {
			return nil, err
		}
		ifNode.Append(newIfElem(cond, stmts, line))
		next := p.GetToken()
		switch next.Val() {
		case "endif":
			return ifNode, p.mustEndStatement()
		case "elseif":
			line = lineOf(next)
			if cond, err = p.readParenExpr(); err != nil {
				return nil, err
			}
		case "else":
			line = lineOf(next)
			cond = nil
		}
		if _, err := p.MustReadToken(OperatorTokenType, ":"); err != nil {
			return nil, err
		}
		if cond == nil {
			stmts, err := p.readAltBody(line, "endif")
			if err != nil {
				return nil, err
			}
			ifNode.Append(newIfElem(nil, stmts, line))
			if err := p.readEndKeyword("endif"); err != nil {
				return nil, err
			}
			return ifNode, nil
		}
	}
}

func newIfElem(cond Value, stmts *Node, line int) *Node {
	return NewNode(kinds.IfElem, 0, line).Set("cond", cond).Set("stmts", stmts)
}

func (p *Parser) readWhile(token *Token) (Value, error) {
	cond, err := p.readParenExpr()
	if err != nil {
		return nil, err
	}
	var stmts *Node
	if p.TryReadToken(OperatorTokenType, ":") != nil {
		if stmts, err = p.readAltBody(lineOf(token), "endwhile"); err != nil {
			return nil, err
		}
		if err := p.readEndKeyword("endwhile"); err != nil {
			return nil, err
		}
	} else if stmts, err = p.readBody(); err != nil {
		return nil, err
	}
	return NewNode(kinds.While, 0, lineOf(token)).Set("cond", cond).Set("stmts", stmts), nil
}

func (p *Parser) readDoWhile(token *Token) (Value, error) {
	stmts, err := p.readBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadKeyword("while"); err != nil {
		return nil, err
	}
	cond, err := p.readParenExpr()
	if err != nil {
		return nil, err
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return NewNode(kinds.DoWhile, 0, lineOf(token)).Set("stmts", stmts).Set("cond", cond), nil
}

// readExprList reads comma separated expressions up to the closing text.
// An empty list is null.
func (p *Parser) readExprList(tokenType TokenType, end string, line int) (Value, error) {
	if p.PeekToken().Is(tokenType, end) {
		p.DropPeekedToken()
		return nil, nil
	}
	list := NewNode(kinds.ExprList, 0, line)
	for {
		expr, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		list.Append(expr)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(tokenType, end); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) readFor(token *Token) (Value, error) {
	line := lineOf(token)
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	init, err := p.readExprList(MarkTokenType, ";", line)
	if err != nil {
		return nil, err
	}
	cond, err := p.readExprList(MarkTokenType, ";", line)
	if err != nil {
		return nil, err
	}
	loop, err := p.readExprList(CloseDelimiterTokenType, ")", line)
	if err != nil {
		return nil, err
	}
	var stmts *Node
	if p.TryReadToken(OperatorTokenType, ":") != nil {
		if stmts, err = p.readAltBody(line, "endfor"); err != nil {
			return nil, err
		}
		if err := p.readEndKeyword("endfor"); err != nil {
			return nil, err
		}
	} else if stmts, err = p.readBody(); err != nil {
		return nil, err
	}
	return NewNode(kinds.For, 0, line).
		Set("init", init).
		Set("cond", cond).
		Set("loop", loop).
		Set("stmts", stmts), nil
}

// readForeachTarget reads the key or value of a foreach, wrapping by
// reference targets in AST_REF.
func (p *Parser) readForeachTarget() (Value, error) {
	if amp := p.TryReadToken(OperatorTokenType, "&"); amp != nil {
		target, err := p.readPostfixExpr()
		if err != nil {
			return nil, err
		}
		return NewNode(kinds.Ref, 0, lineOf(amp)).Set("var", target), nil
	}
	return p.readExprPrec(precAssign + 1)
}

func (p *Parser) readForeach(token *Token) (Value, error) {
	line := lineOf(token)
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	expr, err := p.readExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadKeyword("as"); err != nil {
		return nil, err
	}
	var key Value
	value, err := p.readForeachTarget()
	if err != nil {
		return nil, err
	}
	if p.TryReadToken(OperatorTokenType, "=>") != nil {
		key = value
		if value, err = p.readForeachTarget(); err != nil {
			return nil, err
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	var stmts *Node
	if p.TryReadToken(OperatorTokenType, ":") != nil {
		if stmts, err = p.readAltBody(line, "endforeach"); err != nil {
			return nil, err
		}
		if err := p.readEndKeyword("endforeach"); err != nil {
			return nil, err
		}
	} else if stmts, err = p.readBody(); err != nil {
		return nil, err
	}
	return NewNode(kinds.Foreach, 0, line).
		Set("expr", expr).
		Set("value", value).
		Set("key", key).
		Set("stmts", stmts), nil
}

func (p *Parser) readSwitch(token *Token) (Value, error) {
	line := lineOf(token)
	cond, err := p.readParenExpr()
	if err != nil {
		return nil, err
	}
	alt := false
	if p.TryReadToken(OperatorTokenType, ":") != nil {
		alt = true
	} else if _, err := p.MustReadToken(OpenDelimiterTokenType, "{"); err != nil {
		return nil, err
	}
	cases := NewNode(kinds.SwitchList, 0, line)
	for {
		next := p.PeekToken()
		if alt && isKeyword(next, "endswitch") {
			if err := p.readEndKeyword("endswitch"); err != nil {
				return nil, err
			}
			break
		}
		if !alt && next.Is(CloseDelimiterTokenType, "}") {
			p.DropPeekedToken()
			break
		}
		var caseCond Value
		switch {
		case isKeyword(next, "case"):
			p.DropPeekedToken()
			if caseCond, err = p.readExpr(); err != nil {
				return nil, err
			}
		case isKeyword(next, "default"):
			p.DropPeekedToken()
		default:
			return nil, p.unexpected()
		}
		if p.TryReadToken(MarkTokenType, ";") == nil {
			if _, err := p.MustReadToken(OperatorTokenType, ":"); err != nil {
				return nil, err
			}
		}
		stmts := NewNode(kinds.StmtList, 0, lineOf(next))
		stop := func(t *Token) bool {
			return isKeyword(t, "case", "default", "endswitch") || t.Is(CloseDelimiterTokenType, "}")
		}
		if err := p.readStatements(stmts, stop); err != nil {
			return nil, err
		}
		cases.Append(NewNode(kinds.SwitchCase, 0, lineOf(next)).Set("cond", caseCond).Set("stmts", stmts))
	}
	return NewNode(kinds.Switch, 0, line).Set("cond", cond).Set("stmts", cases), nil
}

func (p *Parser) readBreakContinue(token *Token) (Value, error) {
	kind := kinds.Break
	if token.Val() == "continue" {
		kind = kinds.Continue
	}
	var depth Value
	if next := p.PeekToken(); next != nil && next.Type == NumericLiteralTokenType {
		p.DropPeekedToken()
		n, err := numberValue(next)
		if err != nil {
			return nil, err
		}
		depth = n
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return NewNode(kind, 0, lineOf(token)).Set("depth", depth), nil
}

func (p *Parser) readReturn(token *Token) (Value, error) {
	var expr Value
	next := p.PeekToken()
	if !next.Is(MarkTokenType, ";") && (next == nil || next.Type != CloseTagTokenType) {
		var err error
		if expr, err = p.readExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return NewNode(kinds.Return, 0, lineOf(token)).Set("expr", expr), nil
}

func (p *Parser) readGlobal(token *Token) (Value, error) {
	var globals []*Node
	for {
		next := p.PeekToken()
		if next == nil || next.Type != VariableTokenType {
			return nil, p.unexpected()
		}
		p.DropPeekedToken()
		globals = append(globals, NewNode(kinds.Global, 0, lineOf(token)).Set("var", newVar(next)))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return group(globals, lineOf(token)), nil
}

func (p *Parser) readUnset(token *Token) (Value, error) {
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	var unsets []*Node
	for !p.PeekToken().Is(CloseDelimiterTokenType, ")") {
		target, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		unsets = append(unsets, NewNode(kinds.Unset, 0, lineOf(token)).Set("var", target))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	if len(unsets) == 0 {
		return nil, NewSyntaxError(token.Start(), "unset requires at least one argument")
	}
	if err := p.mustEndStatement(); err != nil {
		return nil, err
	}
	return group(unsets, lineOf(token)), nil
}

func (p *Parser) readTry(token *Token) (Value, error) {
	line := lineOf(token)
	body, err := p.readBlock()
	if err != nil {
		return nil, err
	}
	catches := NewNode(kinds.CatchList, 0, line)
	for {
		catchToken := p.TryReadKeyword("catch")
		if catchToken == nil {
			break
		}
		if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
			return nil, err
		}
		classes := NewNode(kinds.NameList, 0, lineOf(catchToken))
		for {
			class, err := p.readName()
			if err != nil {
				return nil, err
			}
			classes.Append(class)
			if p.TryReadToken(OperatorTokenType, "|") == nil {
				break
			}
		}
		var variable Value
		if next := p.PeekToken(); next != nil && next.Type == VariableTokenType {
			p.DropPeekedToken()
			variable = newVar(next)
		}
		if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
			return nil, err
		}
		stmts, err := p.readBlock()
		if err != nil {
			return nil, err
		}
		catches.Append(NewNode(kinds.Catch, 0, lineOf(catchToken)).
			Set("class", classes).
			Set("var", variable).
			Set("stmts", stmts))
	}
	var finally Value
	if p.TryReadKeyword("finally") != nil {
		if finally, err = p.readBlock(); err != nil {
			return nil, err
		}
	}
	if catches.Len() == 0 && finally == nil {
		return nil, NewSyntaxError(token.Start(), "cannot use try without catch or finally")
	}
	return NewNode(kinds.Try, 0, line).
		Set("try", body).
		Set("catches", catches).
		Set("finally", finally), nil
}
