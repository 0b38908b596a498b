package expr

import (
	"fmt"
	"testing"

	"github.com/zeebo/assert"
)

var tokenCases = []struct {
	in  string
	out []string
}{
	{`10+1` /*               */, []string{`10`, `+`, `1`}},
	{`2**-1` /*              */, []string{`2`, `**`, `-`, `1`}},
	{`abs(-0x1F) // 3` /*    */, []string{`abs`, `(`, `-`, `0x1F`, `)`, `//`, `3`}},
	{`1 << 4 | 3` /*         */, []string{`1`, `<<`, `4`, `|`, `3`}},
	{`.5e3*2` /*             */, []string{`.5e3`, `*`, `2`}},
	{`max(1_000, 2.5e-3)` /* */, []string{`max`, `(`, `1_000`, `,`, `2.5e-3`, `)`}},
	{"\t~7 >> 1 ^ 2 & 3 % 4", []string{`~`, `7`, `>>`, `1`, `^`, `2`, `&`, `3`, `%`, `4`}},
}

func TestToken(t *testing.T) {
	for i, c := range tokenCases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			toks, err := tokens(c.in, nil)
			assert.NoError(t, err)

			var out []string
			for _, tk := range toks {
				if tk.isLiteral() {
					out = append(out, tk.literal(c.in))
				} else {
					out = append(out, tk.String())
				}
			}

			assert.Equal(t, out, c.out)
		})
	}
}

func TestTokenKinds(t *testing.T) {
	toks, err := tokens(`abs(0b101)`, nil)
	assert.NoError(t, err)
	assert.Equal(t, len(toks), 4)
	assert.That(t, toks[0].isIdent())
	assert.That(t, toks[2].isNumber())
	assert.That(t, !toks[1].isLiteral())
}

func TestTokenInvalid(t *testing.T) {
	for _, in := range []string{`1 $ 2`, `"foo"`, `a = 1`, `1 < 2`} {
		_, err := tokens(in, nil)
		assert.Error(t, err)
	}
}
