package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ListFieldKind tells how a list-like value arrived from the structuring backend
type ListFieldKind int

const (
	// ListFieldList is an actual list of items
	ListFieldList ListFieldKind = iota
	// ListFieldPlainText is free text kept as-is
	ListFieldPlainText
	// ListFieldListLikeText is a string that textually encodes a list, e.g. "['a', 'b']"
	ListFieldListLikeText
)

// Bullet prefixes every item of a bulleted text
const Bullet = "• "

// ListField is a field the structuring contract declares as a list, but that unreliable
// model output may deliver as a list, a plain string or a stringified list. All three
// normalize to the same bulleted text via Bulleted.
type ListField struct {
	kind  ListFieldKind
	items []string
	text  string
}

// NewListField creates a ListField from actual items
func NewListField(items ...string) ListField {
	return ListField{kind: ListFieldList, items: append([]string(nil), items...)}
}

// NewTextField classifies a string as either list-like text or plain text
func NewTextField(s string) ListField {
	if items, ok := parseListLikeText(s); ok {
		return ListField{kind: ListFieldListLikeText, items: items, text: s}
	}
	return ListField{kind: ListFieldPlainText, text: s}
}

// Kind returns how the value arrived
func (f ListField) Kind() ListFieldKind {
	return f.kind
}

// IsEmpty reports whether the field carries no content
func (f ListField) IsEmpty() bool {
	switch f.kind {
	case ListFieldPlainText:
		return strings.TrimSpace(f.text) == ""
	default:
		return len(f.items) == 0
	}
}

// Bulleted renders the field as one bulleted text, one "• item" per line.
// Plain text is returned unchanged.
func (f ListField) Bulleted() string {
	switch f.kind {
	case ListFieldPlainText:
		return f.text
	default:
		lines := make([]string, len(f.items))
		for i, item := range f.items {
			lines[i] = Bullet + item
		}
		return strings.Join(lines, "\n")
	}
}

// Items returns the individual entries. Plain text is split into lines with any leading
// bullet marker removed.
func (f ListField) Items() []string {
	if f.kind != ListFieldPlainText {
		return append([]string(nil), f.items...)
	}

	var items []string
	for _, line := range strings.Split(f.text, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"•", "-", "*"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// UnmarshalJSON accepts a JSON array, a JSON string, null, or any other scalar
func (f *ListField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ListField{kind: ListFieldList}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			items = append(items, rawItemText(r))
		}
		*f = NewListField(items...)
		return nil

	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = NewTextField(s)
		return nil

	default:
		*f = ListField{kind: ListFieldPlainText, text: string(trimmed)}
		return nil
	}
}

// MarshalJSON encodes list values as arrays and plain text as a string
func (f ListField) MarshalJSON() ([]byte, error) {
	if f.kind == ListFieldPlainText {
		return json.Marshal(f.text)
	}
	items := f.items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func rawItemText(r json.RawMessage) string {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(r))
}

// parseListLikeText parses a string that looks like a JSON array or a Python list literal
// of scalars. Nested lists or malformed input are rejected.
func parseListLikeText(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, false
	}

	var anyItems []any
	if err := json.Unmarshal([]byte(s), &anyItems); err == nil {
		items := make([]string, 0, len(anyItems))
		for _, v := range anyItems {
			switch x := v.(type) {
			case string:
				items = append(items, x)
			case []any, map[string]any:
				return nil, false
			default:
				items = append(items, fmt.Sprint(x))
			}
		}
		return items, true
	}

	return parseLiteralList(s[1 : len(s)-1])
}

// parseLiteralList parses the inside of a Python-style list literal: quoted strings
// (single or double, with backslash escapes) and bare numbers separated by commas.
// Any other bare word means the text is prose in brackets.
func parseLiteralList(body string) ([]string, bool) {
	var items []string
	rs := []rune(body)
	i := 0

	skipSpace := func() {
		for i < len(rs) && (rs[i] == ' ' || rs[i] == '\t' || rs[i] == '\n' || rs[i] == '\r') {
			i++
		}
	}

	skipSpace()
	if i == len(rs) {
		return []string{}, true
	}

	for {
		skipSpace()
		if i >= len(rs) {
			// trailing comma
			return items, true
		}

		switch rs[i] {
		case '\'', '"':
			quote := rs[i]
			i++
			var sb strings.Builder
			closed := false
			for i < len(rs) {
				c := rs[i]
				if c == '\\' && i+1 < len(rs) {
					sb.WriteRune(unescape(rs[i+1]))
					i += 2
					continue
				}
				if c == quote {
					closed = true
					i++
					break
				}
				sb.WriteRune(c)
				i++
			}
			if !closed {
				return nil, false
			}
			items = append(items, sb.String())

		case '[', ']', '{', '}', ',':
			return nil, false

		default:
			start := i
			for i < len(rs) && rs[i] != ',' {
				if rs[i] == '\'' || rs[i] == '"' || rs[i] == '[' || rs[i] == '{' {
					return nil, false
				}
				i++
			}
			token := strings.TrimSpace(string(rs[start:i]))
			if _, err := strconv.ParseFloat(token, 64); err != nil {
				return nil, false
			}
			items = append(items, token)
		}

		skipSpace()
		if i >= len(rs) {
			return items, true
		}
		if rs[i] != ',' {
			return nil, false
		}
		i++
	}
}

func unescape(c rune) rune {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	default:
		return c
	}
}
