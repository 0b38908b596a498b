package expr

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/value"
)

// maxBits bounds the magnitude of integer literals and intermediate results.
const maxBits = 128

// Program is a compiled expression ready to be evaluated.
type Program struct {
	parser *Parser
	text   string
	prog   []inst
	nums   []value.Value
}

// Text returns the source text the program was compiled from.
func (p *Program) Text() string { return p.text }

// Func is a builtin function. It receives its evaluated arguments in order.
type Func func(es *EvalState, args []value.Value) (value.Value, error)

// Parser compiles expressions. Functions must be registered with SetFunction
// before they can be called by an expression; the zero Parser knows none.
type Parser struct {
	funcs []Func
	names map[string]uint32
}

func (p *Parser) SetFunction(name string, fn Func) {
	if p.names == nil {
		p.names = make(map[string]uint32)
	}
	if n, ok := p.names[name]; !ok {
		n = uint32(len(p.funcs))
		p.names[name] = n
		p.funcs = append(p.funcs, fn)
	} else {
		p.funcs[n] = fn
	}
}

func (p *Parser) Parse(text string) (*Program, error) {
	toks, err := tokens(text, nil)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, errs.Errorf("%w: empty expression", ErrParse)
	}

	ps := &parseState{
		parser: p,
		toks:   toks,
		into: &Program{
			parser: p,
			text:   text,
		},
	}

	if err := ps.parseExpr(); err != nil {
		return nil, err
	} else if ps.tokn != uint(len(ps.toks)) {
		return nil, ps.unexpected(ps.peek())
	}

	return ps.into, nil
}

type parseState struct {
	parser *Parser
	toks   []token
	tokn   uint
	into   *Program
}

func (ps *parseState) pushOp(op byte) {
	ps.pushInst(op, 0)
}

func (ps *parseState) pushInst(op byte, arg uint32) {
	ps.into.prog = append(ps.into.prog, inst{op: op, arg: arg})
}

func (ps *parseState) peek() token {
	if ps.tokn < uint(len(ps.toks)) {
		return ps.toks[ps.tokn]
	}
	return 0
}

func (ps *parseState) next() token {
	if ps.tokn < uint(len(ps.toks)) {
		s := ps.toks[ps.tokn]
		ps.tokn++
		return s
	}
	return 0
}

func (ps *parseState) nextIf(tok token) bool {
	if ps.peek() == tok {
		ps.tokn++
		return true
	}
	return false
}

func (ps *parseState) unexpected(tok token) error {
	switch {
	case tok == tokenInvalid:
		return errs.Errorf("%w: unexpected end of expression", ErrParse)
	case tok.isLiteral():
		return errs.Errorf("%w: unexpected token: %q", ErrParse, tok.literal(ps.into.text))
	default:
		return errs.Errorf("%w: unexpected token: %v", ErrParse, tok)
	}
}

// binaryLevels lists the binary operators from loosest to tightest binding.
// Every level is left associative.
var binaryLevels = [...][]struct {
	tok token
	op  byte
}{
	{{tokenPipe, instOr}},
	{{tokenCaret, instXor}},
	{{tokenAmp, instAnd}},
	{{tokenShl, instShl}, {tokenShr, instShr}},
	{{tokenPlus, instAdd}, {tokenMinus, instSub}},
	{{tokenStar, instMul}, {tokenSlash, instDiv}, {tokenFloor, instFloorDiv}, {tokenPct, instMod}},
}

func (ps *parseState) parseExpr() error {
	return ps.parseLevel(0)
}

func (ps *parseState) parseLevel(level int) error {
	if level >= len(binaryLevels) {
		return ps.parseUnary()
	}

	if err := ps.parseLevel(level + 1); err != nil {
		return err
	}

	for {
		op := ps.peekOperator(level)
		if op == 0 {
			return nil
		}
		ps.tokn++

		if err := ps.parseLevel(level + 1); err != nil {
			return err
		}

		ps.pushOp(op)
	}
}

func (ps *parseState) peekOperator(level int) (op byte) {
	tok := ps.peek()
	for _, cand := range binaryLevels[level] {
		if cand.tok == tok {
			return cand.op
		}
	}
	return 0
}

func (ps *parseState) parseUnary() error {
	var op byte
	switch ps.peek() {
	case tokenMinus:
		op = instNeg
	case tokenPlus:
		op = instPos
	case tokenTilde:
		op = instInvert
	default:
		return ps.parsePower()
	}
	ps.tokn++

	if err := ps.parseUnary(); err != nil {
		return err
	}
	ps.pushOp(op)
	return nil
}

// parsePower handles ** which binds tighter than a unary operator on its left
// but accepts a unary operand on its right, so -2**2 is -4 and 2**-1 is 0.5.
func (ps *parseState) parsePower() error {
	if err := ps.parsePrimary(); err != nil {
		return err
	}
	if !ps.nextIf(tokenPow) {
		return nil
	}
	if err := ps.parseUnary(); err != nil {
		return err
	}
	ps.pushOp(instPow)
	return nil
}

func (ps *parseState) parsePrimary() error {
	if ps.peek() == tokenLParen {
		return ps.parseGroup()
	}

	tok := ps.next()
	switch {
	case tok.isNumber():
		num, err := parseNumber(tok.literal(ps.into.text))
		if err != nil {
			return err
		}
		ps.pushInst(instPushNum, uint32(len(ps.into.nums)))
		ps.into.nums = append(ps.into.nums, num)
		return nil

	case tok.isIdent():
		name := tok.literal(ps.into.text)
		fn, ok := ps.parser.names[name]
		if !ok {
			return errs.Errorf("%w: unknown name: %q", ErrParse, name)
		}
		return ps.parseCallBody(fn)

	default:
		return ps.unexpected(tok)
	}
}

func (ps *parseState) parseCallBody(fn uint32) error {
	if tok := ps.next(); tok != tokenLParen {
		return errs.Errorf("%w: expected '(', got %v", ErrParse, tok)
	}

	var argc uint32
	if !ps.nextIf(tokenRParen) {
		for {
			if err := ps.parseExpr(); err != nil {
				return err
			}
			argc++

			if ps.nextIf(tokenComma) {
				continue
			}
			if tok := ps.next(); tok != tokenRParen {
				return errs.Errorf("%w: expected ')', got %v", ErrParse, tok)
			}
			break
		}
	}
	if argc > 0xFF {
		return errs.Errorf("%w: too many arguments", ErrParse)
	}

	ps.pushInst(instCall, fn<<8|argc)

	return nil
}

func (ps *parseState) parseGroup() error {
	if tok := ps.next(); tok != tokenLParen {
		return errs.Errorf("%w: expected '(', got %v", ErrParse, tok)
	}

	if err := ps.parseExpr(); err != nil {
		return err
	}

	if tok := ps.next(); tok != tokenRParen {
		return errs.Errorf("%w: expected ')', got %v", ErrParse, tok)
	}

	return nil
}

func parseNumber(lit string) (value.Value, error) {
	base, digits := 10, lit
	if len(lit) > 1 && lit[0] == '0' {
		switch lit[1] {
		case 'x', 'X':
			base, digits = 16, lit[2:]
		case 'o', 'O':
			base, digits = 8, lit[2:]
		case 'b', 'B':
			base, digits = 2, lit[2:]
		}
		// a single underscore may follow the base prefix.
		if base != 10 && strings.HasPrefix(digits, "_") {
			digits = digits[1:]
		}
	}

	if !validUnderscores(digits) {
		return value.Value{}, errs.Errorf("%w: invalid number: %q", ErrParse, lit)
	}
	clean := strings.ReplaceAll(digits, "_", "")

	if base == 10 && strings.ContainsAny(clean, ".eE") {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return value.Value{}, errs.Errorf("%w: invalid number: %q", ErrParse, lit)
		}
		return value.Float(f), nil
	}

	// decimal integers may not have leading zeros unless they are all zeros.
	if base == 10 && len(clean) > 1 && clean[0] == '0' && strings.Trim(clean, "0") != "" {
		return value.Value{}, errs.Errorf("%w: leading zeros in %q", ErrParse, lit)
	}

	n, ok := new(big.Int).SetString(clean, base)
	if !ok {
		return value.Value{}, errs.Errorf("%w: invalid number: %q", ErrParse, lit)
	}
	if n.BitLen() > maxBits {
		return value.Value{}, errs.Errorf("%w: %q", ErrOverflow, lit)
	}
	return value.Big(n), nil
}

func validUnderscores(digits string) bool {
	if digits == "" {
		return false
	}
	if digits[0] == '_' || digits[len(digits)-1] == '_' {
		return false
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] == '_' && !isHexDigit(digits[i-1]) {
			return false
		}
	}
	return true
}
