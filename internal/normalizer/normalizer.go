// Package normalizer resolves list-valued intake fields into one canonical
// shape. Stored rows carry lists as JSON arrays, JSON arrays encoded inside a
// string column (legacy rows), comma separated text, or native lists; all of
// them become a list of trimmed, non-empty strings here and nowhere else.
package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ListSeparator joins list items when a field is edited as free text.
const ListSeparator = ", "

const quoteChars = "\"'`"

// Kind tells which representation a Value was resolved from.
type Kind int

const (
	KindList Kind = iota
	KindText
)

// Value is either a list of strings or raw free text typed by the user.
// The zero value is an empty list.
type Value struct {
	kind  Kind
	items []string
	text  string
}

// List builds a list Value.
func List(items ...string) Value {
	return Value{kind: KindList, items: Clean(items)}
}

// Text builds a raw text Value; it is split when List is called.
func Text(text string) Value {
	return Value{kind: KindText, text: text}
}

func (v Value) Kind() Kind {
	return v.kind
}

// List returns the canonical list form.
func (v Value) List() []string {
	if v.kind == KindText {
		return Parse(v.text)
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Text returns the comma joined editing form.
func (v Value) Text() string {
	return Join(v.List())
}

func (v Value) IsEmpty() bool {
	return len(v.List()) == 0
}

// MarshalJSON always emits the canonical list.
func (v Value) MarshalJSON() ([]byte, error) {
	list := v.List()
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

// UnmarshalJSON accepts a JSON array, a string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = Text(t)
	case []interface{}:
		*v = List(stringify(t)...)
	default:
		return fmt.Errorf("normalizer: unsupported JSON value %s", string(data))
	}
	return nil
}

// From resolves any raw stored value into a Value.
func From(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case []string:
		return List(t...)
	case []interface{}:
		return List(stringify(t)...)
	case []byte:
		return List(Parse(string(t))...)
	case string:
		return List(Parse(t)...)
	default:
		return List(Parse(fmt.Sprint(t))...)
	}
}

// ToList is shorthand for From(raw).List().
func ToList(raw interface{}) []string {
	return From(raw).List()
}

// Parse turns a stored string into a list. Array-looking strings are decoded
// as JSON first; anything that fails to decode is split on commas.
func Parse(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	// A JSON array that was encoded a second time arrives as a JSON string.
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil && inner != s {
			return Parse(inner)
		}
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var decoded []interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return Clean(stringify(decoded))
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	}

	return Clean(strings.Split(s, ","))
}

// Clean trims whitespace and enclosing quotes from every item and drops
// empty ones. It never returns nil.
func Clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = cleanItem(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Join renders a list for free text editing.
func Join(items []string) string {
	return strings.Join(Clean(items), ListSeparator)
}

// Encode renders the stored form of a list (a JSON array).
func Encode(items []string) string {
	b, _ := json.Marshal(Clean(items))
	return string(b)
}

func cleanItem(item string) string {
	for {
		trimmed := strings.Trim(strings.TrimSpace(item), quoteChars)
		if trimmed == item {
			return trimmed
		}
		item = trimmed
	}
}

func stringify(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(value))
	}
	return out
}
