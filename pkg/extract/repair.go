package extract

import (
	"strings"
)

const (
	leftSmartQuote  = "\u201c"
	rightSmartQuote = "\u201d"
)

var literals = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

// repairStructure rewrites a JSON fragment into a syntactically complete
// value. Text after the outermost value closes is discarded.
func repairStructure(s string) string {
	out := make([]byte, 0, len(s)+8)
	var stack []byte

	inStr, esc, smart := false, false, false
	strStart := -1
	keyCandidate := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inStr {
			if smart && strings.HasPrefix(s[i:], rightSmartQuote) {
				if esc {
					out = out[:len(out)-1]
					esc = false
				}
				inStr, smart = false, false
				out = append(out, '"')
				i += len(rightSmartQuote) - 1
				continue
			}
			switch {
			case smart && !esc && c == '"':
				out = append(out, '\\', '"')
			case esc:
				esc = false
				if strings.IndexByte(`"\/bfnrtu`, c) < 0 {
					out = out[:len(out)-1]
				}
				out = append(out, c)
			case c == '\\':
				esc = true
				out = append(out, c)
			case c == '"':
				inStr = false
				out = append(out, c)
			case c == '\n':
				out = append(out, '\\', 'n')
			case c == '\r':
				out = append(out, '\\', 'r')
			case c == '\t':
				out = append(out, '\\', 't')
			default:
				out = append(out, c)
			}
			continue
		}

		if strings.HasPrefix(s[i:], leftSmartQuote) || strings.HasPrefix(s[i:], rightSmartQuote) {
			keyCandidate = isKeyPosition(out)
			strStart = len(out)
			inStr, smart = true, true
			out = append(out, '"')
			i += len(leftSmartQuote) - 1
			continue
		}

		switch c {
		case '"':
			keyCandidate = isKeyPosition(out)
			strStart = len(out)
			inStr = true
			out = append(out, c)

		case '{', '[':
			stack = append(stack, c)
			out = append(out, c)

		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			want := opener(c)
			for len(stack) > 0 && stack[len(stack)-1] != want {
				out = closeValue(out, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return string(out)
			}
			out = closeValue(out, want)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return string(out)
			}

		default:
			if isIdentStart(c) {
				j := i
				for j < len(s) && isIdentPart(s[j]) {
					j++
				}
				word := s[i:j]
				if lit, ok := literals[word]; ok {
					word = lit
				}
				out = append(out, word...)
				i = j - 1
				continue
			}
			out = append(out, c)
		}
	}

	if inStr {
		if esc {
			out = out[:len(out)-1]
		}
		out = append(out, '"')
	}
	out = trimSpace(out)
	if keyCandidate && strStart >= 0 && len(stack) > 0 && stack[len(stack)-1] == '{' && danglingKey(out, strStart) {
		out = out[:strStart]
	}

	for len(stack) > 0 {
		out = closeValue(out, stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}
	return string(out)
}

// closeValue trims a dangling separator and appends the closer for open.
func closeValue(out []byte, open byte) []byte {
	out = trimSpace(out)
	for len(out) > 0 {
		switch out[len(out)-1] {
		case ',':
			out = trimSpace(out[:len(out)-1])
			continue
		case ':':
			out = append(out, "null"...)
		}
		break
	}
	if open == '{' {
		return append(out, '}')
	}
	return append(out, ']')
}

// danglingKey reports whether the string starting at start is the last
// token of out and sits in key position.
func danglingKey(out []byte, start int) bool {
	inStr, esc := false, false
	for i := start; i < len(out); i++ {
		c := out[i]
		switch {
		case esc:
			esc = false
		case c == '\\':
			esc = true
		case c == '"':
			inStr = !inStr
			if !inStr && i != len(out)-1 {
				return false
			}
		}
	}
	return true
}

func isKeyPosition(out []byte) bool {
	prev := lastSignificant(out)
	return prev == '{' || prev == ','
}

func lastSignificant(out []byte) byte {
	for i := len(out) - 1; i >= 0; i-- {
		switch out[i] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return out[i]
	}
	return 0
}

func trimSpace(out []byte) []byte {
	for len(out) > 0 {
		switch out[len(out)-1] {
		case ' ', '\t', '\r', '\n':
			out = out[:len(out)-1]
			continue
		}
		break
	}
	return out
}

func opener(c byte) byte {
	if c == '}' {
		return '{'
	}
	return '['
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '_'
}

// escapeInnerQuotes escapes double quotes that appear inside string values
// but do not terminate them. A quote terminates a value when it is followed
// by a closer, the end of input, or a comma that introduces another member.
func escapeInnerQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var stack []byte
	expectKey := false
	inStr, isKey, esc := false, false, false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inObject := len(stack) > 0 && stack[len(stack)-1] == '{'
				if isKey || terminatesValue(s, i+1, inObject) {
					inStr = false
				} else {
					b.WriteString(`\"`)
					continue
				}
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inStr = true
			isKey = expectKey && len(stack) > 0 && stack[len(stack)-1] == '{'
		case '{':
			stack = append(stack, c)
			expectKey = true
		case '[':
			stack = append(stack, c)
			expectKey = false
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			expectKey = false
		case ':':
			expectKey = false
		case ',':
			expectKey = len(stack) > 0 && stack[len(stack)-1] == '{'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// terminatesValue reports whether a quote at j-1 closes a string value.
// After a comma the next token must start another value: inside an object
// that is a quoted key followed by a colon, inside an array a string,
// container, number, or exact literal.
func terminatesValue(s string, j int, inObject bool) bool {
	k := skipSpace(s, j)
	if k >= len(s) {
		return true
	}
	switch s[k] {
	case '}', ']':
		return true
	case ',':
		n := skipSpace(s, k+1)
		if n >= len(s) || s[n] == '}' || s[n] == ']' {
			return true
		}
		if inObject {
			return startsKey(s, n)
		}
		switch c := s[n]; {
		case c == '"' || c == '{' || c == '[' || c == '-' || (c >= '0' && c <= '9'):
			return true
		}
		return startsLiteral(s, n)
	}
	return false
}

// startsKey reports whether a quoted key followed by a colon begins at i.
// A key cut off by the end of input counts.
func startsKey(s string, i int) bool {
	if s[i] != '"' {
		return false
	}
	for k := i + 1; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '"':
			n := skipSpace(s, k+1)
			return n < len(s) && s[n] == ':'
		case '\n':
			return false
		}
	}
	return true
}

// startsLiteral reports whether true, false, or null begins at i as a
// whole token.
func startsLiteral(s string, i int) bool {
	for _, lit := range []string{"true", "false", "null"} {
		if !strings.HasPrefix(s[i:], lit) {
			continue
		}
		end := i + len(lit)
		if end == len(s) || strings.IndexByte(" \t\r\n,}]", s[end]) >= 0 {
			return true
		}
	}
	return false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}
