package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Selector is a compiled single-compound selector. The dialect covers
// what region catalogs and generated selectors use: tag, #id, .class,
// [attr='v'], [attr*='v'], :contains('text'), :nth-of-type(n).
// Text containment is case-insensitive; nth-of-type counts elements of
// the tag in document order, matching Element.Selector output.
type Selector struct {
	raw      string
	tag      string
	id       string
	class    string
	attrName string
	attrOp   string // "=", "*=", or "" for presence
	attrVal  string
	contains string
	nth      int
}

// Compile parses a selector string.
func Compile(raw string) (*Selector, error) {
	s := &Selector{raw: raw}
	rest := strings.TrimSpace(raw)
	if rest == "" {
		return nil, fmt.Errorf("empty selector")
	}

	// Leading tag name.
	i := 0
	for i < len(rest) && rest[i] != '#' && rest[i] != '.' && rest[i] != '[' && rest[i] != ':' {
		i++
	}
	s.tag = strings.ToLower(rest[:i])
	rest = rest[i:]

	for rest != "" {
		switch rest[0] {
		case '#':
			rest = rest[1:]
			end := tokenEnd(rest)
			s.id = rest[:end]
			rest = rest[end:]
		case '.':
			rest = rest[1:]
			end := tokenEnd(rest)
			s.class = rest[:end]
			rest = rest[end:]
		case '[':
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return nil, fmt.Errorf("unterminated attribute in selector %q", raw)
			}
			if err := s.parseAttr(rest[1:close]); err != nil {
				return nil, err
			}
			rest = rest[close+1:]
		case ':':
			var err error
			rest, err = s.parsePseudo(rest)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unexpected %q in selector %q", rest[0], raw)
		}
	}
	return s, nil
}

func (s *Selector) parseAttr(expr string) error {
	if idx := strings.Index(expr, "*="); idx >= 0 {
		s.attrName = strings.TrimSpace(expr[:idx])
		s.attrOp = "*="
		s.attrVal = unquote(expr[idx+2:])
		return nil
	}
	if idx := strings.IndexByte(expr, '='); idx >= 0 {
		s.attrName = strings.TrimSpace(expr[:idx])
		s.attrOp = "="
		s.attrVal = unquote(expr[idx+1:])
		return nil
	}
	s.attrName = strings.TrimSpace(expr)
	if s.attrName == "" {
		return fmt.Errorf("empty attribute selector")
	}
	return nil
}

func (s *Selector) parsePseudo(rest string) (string, error) {
	switch {
	case strings.HasPrefix(rest, ":contains("):
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return "", fmt.Errorf("unterminated :contains in selector %q", s.raw)
		}
		s.contains = strings.ToLower(unquote(rest[len(":contains("):close]))
		return rest[close+1:], nil
	case strings.HasPrefix(rest, ":nth-of-type("):
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return "", fmt.Errorf("unterminated :nth-of-type in selector %q", s.raw)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest[len(":nth-of-type("):close]))
		if err != nil || n < 1 {
			return "", fmt.Errorf("bad :nth-of-type index in selector %q", s.raw)
		}
		s.nth = n
		return rest[close+1:], nil
	default:
		return "", fmt.Errorf("unsupported pseudo-selector in %q", s.raw)
	}
}

func tokenEnd(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '#', '.', '[', ':':
			return i
		}
	}
	return len(s)
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// matches tests the non-positional constraints against one element.
func (s *Selector) matches(e *Element) bool {
	if s.tag != "" && e.node.Data != s.tag {
		return false
	}
	if s.id != "" && e.Attr("id") != s.id {
		return false
	}
	if s.class != "" && !e.HasClass(s.class) {
		return false
	}
	if s.attrName != "" {
		switch s.attrOp {
		case "=":
			if e.Attr(s.attrName) != s.attrVal {
				return false
			}
		case "*=":
			if !strings.Contains(e.Attr(s.attrName), s.attrVal) {
				return false
			}
		default:
			if !e.HasAttr(s.attrName) {
				return false
			}
		}
	}
	if s.contains != "" && !strings.Contains(strings.ToLower(e.Text()), s.contains) {
		return false
	}
	return true
}

// QueryAll returns every element matching the selector, in document
// order. An invalid selector yields no matches; lookup problems never
// propagate.
func (d *Document) QueryAll(selector string) []*Element {
	spec, err := Compile(selector)
	if err != nil {
		return nil
	}
	var out []*Element
	tagCount := 0
	walk(d.root, func(n *html.Node) {
		el := &Element{node: n, doc: d}
		if spec.nth > 0 {
			// Positional selectors count same-tag elements only.
			if spec.tag != "" && n.Data != spec.tag {
				return
			}
			tagCount++
			if tagCount == spec.nth && spec.matches(el) {
				out = append(out, el)
			}
			return
		}
		if spec.matches(el) {
			out = append(out, el)
		}
	})
	return out
}

// Query returns the first element matching the selector, or nil.
func (d *Document) Query(selector string) *Element {
	matches := d.QueryAll(selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}
