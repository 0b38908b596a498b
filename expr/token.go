package expr

import (
	"fmt"

	"github.com/zeebo/errs/v2"
)

// operator tokens are always of the form 0b00000000_00000000_0XXXXXXX_0YYYYYYY because they
// consist of up to two ascii characters.
//
// literals are of the form 0bFBBBBBBB_BBBBBBBB_FLLLLLLL_LLLLLLLL where L and B are the length and
// byte offset of the token the two F bits mean:
//
//	0b00 : not a literal
//	0b01 : is an identifier
//	0b10 : is a number
type token uint32

const (
	tokenInvalid token = 0

	tokenPlus   token = '+'
	tokenMinus  token = '-'
	tokenStar   token = '*'
	tokenSlash  token = '/'
	tokenPct    token = '%'
	tokenAmp    token = '&'
	tokenPipe   token = '|'
	tokenCaret  token = '^'
	tokenTilde  token = '~'
	tokenLParen token = '('
	tokenRParen token = ')'
	tokenComma  token = ','

	tokenPow   token = '*'<<8 | '*'
	tokenFloor token = '/'<<8 | '/'
	tokenShl   token = '<'<<8 | '<'
	tokenShr   token = '>'<<8 | '>'
)

func newLiteralToken(number bool, pos, length uint) (t token) {
	if number {
		t |= 1 << 31
	} else {
		t |= 1 << 15
	}
	t |= token((pos & 0x7FFF) << 16)
	t |= token(length & 0x7FFF)
	return t
}

func (t token) isLiteral() bool { return t&(1<<31|1<<15) != 0 }
func (t token) isNumber() bool  { return t&(1<<31) != 0 }
func (t token) isIdent() bool   { return t.isLiteral() && !t.isNumber() }

func (t token) litBounds() (uint, uint) {
	l, b := uint(t&0x7FFF), uint(t>>16&0x7FFF)
	return b, b + l
}

func (t token) literal(x string) string {
	if b, e := t.litBounds(); b < e && e <= uint(len(x)) {
		return x[b:e]
	}
	return ""
}

func (t token) String() string {
	if t.isLiteral() {
		b, e := t.litBounds()
		if t.isNumber() {
			return fmt.Sprintf("num[%d:%d]", b, e)
		}
		return fmt.Sprintf("ident[%d:%d]", b, e)
	}
	if t == tokenInvalid {
		return "invalid"
	}
	if t >= 256 {
		return fmt.Sprintf("%c%c", t>>8, t&0xFF)
	}
	return fmt.Sprintf("%c", t)
}

func tokens(x string, into []token) ([]token, error) {
	if uint(len(x)) > 1<<15 {
		return nil, errs.Errorf("%w: expression too long", ErrParse)
	}
	for pos := uint(0); uint(pos) < uint(len(x)); {
		t, n := nextToken(pos, x)
		if n == 0 {
			return nil, errs.Errorf("%w: invalid token: %q", ErrParse, x[pos:])
		} else if t == 0 {
			break
		}
		into = append(into, t)
		pos += n
	}
	return into, nil
}

func nextToken(pos uint, x string) (t token, l uint) {
	if pos >= uint(len(x)) {
		return tokenInvalid, 0
	}
	x = x[pos:]

	for len(x) > 0 && isSpace(x[0]) {
		x = x[1:]
		pos++
		l++
	}

	// nothing left
	if len(x) == 0 {
		return tokenInvalid, l
	}

	// numbers, including ones that start with the decimal point
	if isDigit(x[0]) || (x[0] == '.' && len(x) > 1 && isDigit(x[1])) {
		n := scanNumber(x)
		return newLiteralToken(true, pos, n), l + n
	}

	// identifiers name builtin functions
	if isIdentStart(x[0]) {
		n := uint(1)
		for n < uint(len(x)) && isIdentContinue(x[n]) {
			n++
		}
		return newLiteralToken(false, pos, n), l + n
	}

	// length 2 operators
	if len(x) > 1 {
		switch u := uint16(x[0])<<8 | uint16(x[1]); u {
		case
			'*'<<8 | '*', // power
			'/'<<8 | '/', // floor division
			'<'<<8 | '<', // shifts
			'>'<<8 | '>':
			return token(u), l + 2
		}
	}

	// length 1 operators
	switch x[0] {
	case
		'+', '-', '*', '/', '%', // arithmetic
		'&', '|', '^', '~', /**/ // bitwise
		'(', ')', /*          */ // function call, grouping
		',': /*               */ // argument separator
		return token(x[0]), l + 1
	}

	return tokenInvalid, 0
}

// scanNumber returns the length of the numeric literal at the start of x. It
// is permissive about the characters it accepts; the parser validates them.
func scanNumber(x string) uint {
	n := uint(0)
	if len(x) > 1 && x[0] == '0' {
		switch x[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			n = 2
			for n < uint(len(x)) && (isHexDigit(x[n]) || x[n] == '_') {
				n++
			}
			return n
		}
	}

	for n < uint(len(x)) && (isDigit(x[n]) || x[n] == '_') {
		n++
	}
	if n < uint(len(x)) && x[n] == '.' {
		n++
		for n < uint(len(x)) && (isDigit(x[n]) || x[n] == '_') {
			n++
		}
	}
	if n < uint(len(x)) && (x[n] == 'e' || x[n] == 'E') {
		m := n + 1
		if m < uint(len(x)) && (x[m] == '+' || x[m] == '-') {
			m++
		}
		k := m
		for k < uint(len(x)) && isDigit(x[k]) {
			k++
		}
		if k > m {
			n = k
		}
	}
	return n
}

func isSpace(c byte) bool         { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool         { return '0' <= c && c <= '9' }
func isHexDigit(c byte) bool      { return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F') }
func isIdentStart(c byte) bool    { return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func isIdentContinue(c byte) bool { return isIdentStart(c) || isDigit(c) }
