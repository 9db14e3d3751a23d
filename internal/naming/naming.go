// Package naming converts identifiers between snake_case and the camel case
// conventions used by client code.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// maxPasses bounds the fixed-point fold; real identifiers settle in two.
const maxPasses = 4

// Namer changes a name into some prepared formatting.
type Namer func(string) string

// Words splits raw into lowercase words. Breaks fall on separators
// (space, underscore, hyphen, dot), on a lower to upper change, between
// letters and digits, and at the end of an acronym run followed by a
// capitalized word: HTTPServer -> [http server].
func Words(raw string) []string {
	var words []string
	for _, w := range strings.Split(strcase.ToSnake(raw), "_") {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// ToUpperCamel converts raw into UpperCamelCase, e.g. auth_otp -> AuthOtp.
func ToUpperCamel(raw string) string {
	return fold(upperCamel, raw)
}

// ToLowerCamel converts raw into lowerCamelCase, e.g. user_id -> userId.
func ToLowerCamel(raw string) string {
	return fold(lowerCamel, raw)
}

func upperCamel(raw string) string {
	var b strings.Builder
	for _, w := range Words(raw) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func lowerCamel(raw string) string {
	var b strings.Builder
	for i, w := range Words(raw) {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// fold applies fn until the result stops changing. One pass is stable for
// everything except adjacent single-letter words: a_b -> AB reads back as
// the acronym "ab", so the converted form is the fixed point Ab.
func fold(fn Namer, raw string) string {
	out := fn(raw)
	for i := 1; i < maxPasses; i++ {
		next := fn(out)
		if next == out {
			return out
		}
		out = next
	}
	return out
}

// Converter applies the camel case rules with per-identifier overrides.
// Model and field overrides are kept apart so an entry only applies to the
// kind of identifier it was written for. The zero value has no overrides.
type Converter struct {
	models table
	fields table
}

// table is one override kind. pinned holds override results so converting
// them again is a no-op.
type table struct {
	overrides map[string]string
	pinned    map[string]bool
}

func newTable(overrides map[string]string) table {
	t := table{
		overrides: make(map[string]string, len(overrides)),
		pinned:    make(map[string]bool, len(overrides)),
	}
	for from, to := range overrides {
		t.overrides[from] = to
		t.pinned[to] = true
	}
	return t
}

func (t table) convert(fn Namer, raw string) string {
	if to, ok := t.overrides[raw]; ok {
		return to
	}
	if t.pinned[raw] {
		return raw
	}
	return fn(raw)
}

// NewConverter returns a Converter. Each table maps an exact source name to
// the name it must become: models {"auth_otp": "OTPCode"}, fields
// {"user_id": "userID"}. Field overrides also cover index names.
func NewConverter(models, fields map[string]string) *Converter {
	return &Converter{
		models: newTable(models),
		fields: newTable(fields),
	}
}

// Upper converts a model name.
func (c *Converter) Upper(raw string) string {
	if c == nil {
		return ToUpperCamel(raw)
	}
	return c.models.convert(ToUpperCamel, raw)
}

// Lower converts a field or index name.
func (c *Converter) Lower(raw string) string {
	if c == nil {
		return ToLowerCamel(raw)
	}
	return c.fields.convert(ToLowerCamel, raw)
}
