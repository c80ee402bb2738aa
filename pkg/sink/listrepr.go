package sink

import (
	"fmt"
	"strings"

	errs "twscraper/pkg/errors"
)

// FormatList renders a string list the way the CSV columns have always
// stored it: ['a', 'b'], or [] when empty. An element containing a single
// quote and no double quote is wrapped in double quotes instead.
func FormatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(&b, item)
	}
	b.WriteByte(']')
	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	b.WriteByte(quote)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r == rune(quote) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
}

// ParseList reverses FormatList
func ParseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errs.Parse(nil, "list %q is not bracketed", s)
	}

	p := listParser{src: s[1 : len(s)-1]}
	items := []string{}
	p.skipSpace()
	if p.done() {
		return items, nil
	}

	for {
		item, err := p.quoted()
		if err != nil {
			return nil, errs.Parse(err, "list %q: %v", s, err)
		}
		items = append(items, item)

		p.skipSpace()
		if p.done() {
			return items, nil
		}
		if p.src[p.pos] != ',' {
			return nil, errs.Parse(nil, "list %q: expected ',' at offset %d", s, p.pos+1)
		}
		p.pos++
		p.skipSpace()
	}
}

type listParser struct {
	src string
	pos int
}

func (p *listParser) done() bool { return p.pos >= len(p.src) }

func (p *listParser) skipSpace() {
	for !p.done() && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *listParser) quoted() (string, error) {
	if p.done() {
		return "", fmt.Errorf("unexpected end of list")
	}
	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected quote at offset %d", p.pos+1)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return "", fmt.Errorf("dangling escape")
			}
			switch next := p.src[p.pos+1]; next {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(next)
			}
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}
