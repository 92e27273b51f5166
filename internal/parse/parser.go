package parse

import (
	"fmt"

	"github.com/helio-search/helio/internal/query"
)

// Parser parses search expressions into query trees.
type Parser struct {
	grammar *Grammar
	lexer   *Lexer
	curr    Token
}

// Error is a parse failure at a byte offset into the query text.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at pos %d", e.Msg, e.Pos)
}

func errAt(pos int, format string, args ...interface{}) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Query parses a search expression against the grammar. '&' binds tighter
// than '|', and two adjacent criteria conjoin implicitly, so
// "time:... instrument:aia" equals "time:... & instrument:aia".
func (g *Grammar) Query(input string) (query.Attr, error) {
	p := &Parser{grammar: g, lexer: NewLexer(input)}
	p.advance()

	if p.curr.Type == TokenEOF {
		return nil, fmt.Errorf("empty query")
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != TokenEOF {
		return nil, errAt(p.curr.Pos, "unexpected %v", p.curr.Type)
	}
	return expr, nil
}

func (p *Parser) advance() {
	p.curr = p.lexer.NextToken()
}

// parseExpr parses a disjunction: term { '|' term }.
func (p *Parser) parseExpr() (query.Attr, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []query.Attr{first}
	for p.curr.Type == TokenPipe {
		p.advance()
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	return query.AnyOf(terms...), nil
}

// parseTerm parses a conjunction: factor { ['&'] factor }.
func (p *Parser) parseTerm() (query.Attr, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	factors := []query.Attr{first}
	for {
		if p.curr.Type == TokenAmp {
			p.advance()
		} else if p.curr.Type != TokenIdent && p.curr.Type != TokenLParen {
			break
		}
		next, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		factors = append(factors, next)
	}
	return query.AllOf(factors...), nil
}

// parseFactor parses a single criterion or a parenthesized expression.
func (p *Parser) parseFactor() (query.Attr, error) {
	switch p.curr.Type {
	case TokenLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.curr.Type != TokenRParen {
			return nil, errAt(p.curr.Pos, "unclosed parenthesis")
		}
		p.advance()
		return expr, nil
	case TokenIdent:
		return p.parseCriterion()
	default:
		return nil, errAt(p.curr.Pos, "expected criterion or '(', got %v", p.curr.Type)
	}
}

// parseCriterion parses key ':' value and builds the leaf through the
// grammar's builder for the key.
func (p *Parser) parseCriterion() (query.Attr, error) {
	key := p.curr.Value
	keyPos := p.curr.Pos
	p.advance()

	if p.curr.Type != TokenColon {
		return nil, errAt(keyPos, "expected ':' after %q", key)
	}
	// Value position: scan directly so unquoted timestamps keep their
	// clock colons.
	val := p.lexer.NextValue()
	switch val.Type {
	case TokenIdent, TokenString:
	case TokenEOF:
		return nil, errAt(val.Pos, "missing value for %q", key)
	default:
		return nil, errAt(val.Pos, "bad value for %q", key)
	}
	p.advance()

	attr, err := p.grammar.build(key, val.Value)
	if err != nil {
		return nil, errAt(keyPos, "%s", err)
	}
	return attr, nil
}
