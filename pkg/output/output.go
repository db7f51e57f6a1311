// Package output is the external serialization adapter: it turns a
// finished assembly (pkg/asm.Result) into the object file's base-4 text
// layout and the optional entry/extern side files. Nothing here
// re-validates what Pass 1/2 already decided; this package trusts its
// input.
package output

import (
	"fmt"
	"io"

	"gcpu10/pkg/asm"
)

const base4Alphabet = "abcd"

// Option configures an Object writer.
type Option func(*config)

type config struct {
	minWidth int
}

// WithMinWidth sets the minimum number of base-4 digits the header's
// code/data length pair is padded to. The default (0) never pads.
func WithMinWidth(n int) Option {
	return func(c *config) { c.minWidth = n }
}

// base4 renders a non-negative integer in the machine's four-letter
// alphabet (a=0, b=1, c=2, d=3), left-padded with 'a' to at least
// minWidth digits.
func base4(v, minWidth int) string {
	if v == 0 {
		return padLeft("a", minWidth)
	}
	var digits []byte
	for v > 0 {
		digits = append(digits, base4Alphabet[v&0x3])
		v >>= 2
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return padLeft(string(digits), minWidth)
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "a" + s
	}
	return s
}

// WriteObject writes the .ob text layout: a header line with the code and
// data word counts, followed by one "<address> <word>" line per word,
// addresses starting at asm.ICStart.
func WriteObject(w io.Writer, res *asm.Result, opts ...Option) error {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	codeLen := res.ICFinal - asm.ICStart
	dataLen := res.DCFinal

	if _, err := fmt.Fprintf(w, "%s %s\n", base4(codeLen, cfg.minWidth), base4(dataLen, cfg.minWidth)); err != nil {
		return err
	}

	addr := asm.ICStart
	for _, word := range res.Code.Words() {
		if _, err := fmt.Fprintf(w, "%s %s\n", base4(addr, 4), base4(int(word.Value), 5)); err != nil {
			return err
		}
		addr++
	}
	return nil
}

// WriteEntries writes the .ent side file. The caller must not invoke this
// when res.Entries is empty — an absent .ent file (rather than an empty
// one) signals "no entries" per the external interface.
func WriteEntries(w io.Writer, res *asm.Result) error {
	for _, e := range res.Entries {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Name, base4(e.Addr, 4)); err != nil {
			return err
		}
	}
	return nil
}

// WriteExterns writes the .ext side file, with the same "only call me if
// non-empty" contract as WriteEntries.
func WriteExterns(w io.Writer, res *asm.Result) error {
	for _, e := range res.Externs {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Name, base4(e.Addr, 4)); err != nil {
			return err
		}
	}
	return nil
}
