package extract

import (
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// recoverFields pulls top-level schema fields out of malformed text. It
// first reads each key with a lenient JSON path lookup over the repaired
// fragment, then falls back to key/value patterns over the raw text.
func recoverFields(schema *Schema, text string) (any, error) {
	if schema == nil {
		return nil, errNoFields
	}

	doc := ""
	if frag, ok := fragment(text); ok {
		doc = repairStructure(escapeInnerQuotes(frag))
	}

	out := make(map[string]any)
	for _, f := range schema.Fields {
		if v, ok := lookupPath(doc, f); ok {
			out[f.Name] = v
			continue
		}
		if v, ok := scanField(text, f); ok {
			out[f.Name] = v
		}
	}

	if len(out) == 0 {
		return nil, errNoFields
	}
	return out, nil
}

func lookupPath(doc string, f Field) (any, bool) {
	if doc == "" || !gjson.Valid(doc) {
		return nil, false
	}
	for _, name := range append([]string{f.Name}, f.Aliases...) {
		if r := gjson.Get(doc, gjson.Escape(name)); r.Exists() {
			return r.Value(), true
		}
	}
	return nil, false
}

const (
	intValue          = `\s*[:=]\s*"?(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)`
	doubleQuotedValue = `\s*[:=]\s*"((?:[^"\\]|\\.)*)"`
	singleQuotedValue = `\s*[:=]\s*'((?:[^'\\]|\\.)*)'`
	bareWordValue     = `\s*[:=]\s*([A-Za-z_]+)`
	boolValue         = `\s*[:=]\s*(true|false)`
	listValue         = `\s*[:=]\s*\[(.*?)\]`
)

// patterns caches compiled key/value patterns by key name and value form.
var patterns sync.Map

func fieldPattern(name, value string) *regexp.Regexp {
	id := name + "\x00" + value
	if re, ok := patterns.Load(id); ok {
		return re.(*regexp.Regexp)
	}
	prefix := ""
	if value == listValue {
		prefix = `(?s)`
	}
	re, _ := patterns.LoadOrStore(id, regexp.MustCompile(prefix+keyPattern(name)+value))
	return re.(*regexp.Regexp)
}

func scanField(text string, f Field) (any, bool) {
	for _, name := range append([]string{f.Name}, f.Aliases...) {
		switch f.Kind {
		case KindInt:
			if m := fieldPattern(name, intValue).FindStringSubmatch(text); m != nil {
				return m[1], true
			}
		case KindString, KindEnum:
			for _, value := range []string{doubleQuotedValue, singleQuotedValue} {
				if m := fieldPattern(name, value).FindStringSubmatch(text); m != nil {
					return unescape(m[1]), true
				}
			}
			if f.Kind == KindEnum {
				if m := fieldPattern(name, bareWordValue).FindStringSubmatch(text); m != nil {
					return m[1], true
				}
			}
		case KindBool:
			if m := fieldPattern(name, boolValue).FindStringSubmatch(text); m != nil {
				return m[1] == "true", true
			}
		case KindStringList:
			if m := fieldPattern(name, listValue).FindStringSubmatch(text); m != nil {
				return quotedStrings(m[1]), true
			}
		}
	}
	return nil, false
}

// keyPattern matches name as an optionally quoted key, case-insensitive,
// with words joined by underscores, spaces, or hyphens.
func keyPattern(name string) string {
	words := strings.Split(NormalizeKey(name), "_")
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return `(?i)["']?\b` + strings.Join(words, `[_\s-]?`) + `\b["']?`
}

var quotedString = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'`)

func quotedStrings(s string) []any {
	out := make([]any, 0)
	for _, m := range quotedString.FindAllStringSubmatch(s, -1) {
		out = append(out, unescape(m[1]+m[2]))
	}
	return out
}

func unescape(s string) string {
	r := strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\n`, "\n", `\t`, "\t", `\\`, `\`)
	return r.Replace(s)
}
