package cppast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// Esc renders raw bytes as the body of a C string literal (without the
// surrounding quotes), per §4.A: backslash escapes for `" \ \n \r \t \b \f
// \v \a`, `\?` only when adjacent `?` would otherwise form a trigraph, and
// octal `\NNN` for any byte <0x20, ==0x7f, or >=0x80.
func Esc(raw string) string {
	var b strings.Builder
	bytes := []byte(raw)
	escapeNext := false
	for i, c := range bytes {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case '\a':
			b.WriteString(`\a`)
		case '?':
			nextIsQuestion := i+1 < len(bytes) && bytes[i+1] == '?'
			if escapeNext || nextIsQuestion {
				b.WriteString(`\?`)
				escapeNext = nextIsQuestion
			} else {
				b.WriteByte('?')
			}
		default:
			if c < 0x20 || c == 0x7f || c >= 0x80 {
				fmt.Fprintf(&b, `\%03o`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// Unesc parses a C string literal body (as produced by Esc) back into raw
// bytes, failing vfserr.ErrParse on an unescaped control byte or an
// unrecognized escape sequence.
func Unesc(s string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c < 0x20 || c == 0x7f {
			return "", fmt.Errorf("unescaped control byte 0x%02x at offset %d: %w", c, i, vfserr.ErrParse)
		}
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("trailing backslash: %w", vfserr.ErrParse)
		}
		esc := s[i+1]
		switch esc {
		case '"':
			b.WriteByte('"')
			i += 2
		case '\\':
			b.WriteByte('\\')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case 'a':
			b.WriteByte('\a')
			i += 2
		case '?':
			b.WriteByte('?')
			i += 2
		default:
			if esc >= '0' && esc <= '7' {
				end := i + 2
				for end < len(s) && end < i+4 && s[end] >= '0' && s[end] <= '7' {
					end++
				}
				v, err := strconv.ParseUint(s[i+1:end], 8, 8)
				if err != nil {
					return "", fmt.Errorf("bad octal escape %q: %w", s[i+1:end], vfserr.ErrParse)
				}
				b.WriteByte(byte(v))
				i = end
				continue
			}
			return "", fmt.Errorf("invalid escape sequence \\%c at offset %d: %w", esc, i, vfserr.ErrParse)
		}
	}
	return b.String(), nil
}
