package settings

import (
	"strconv"
)

// ValueType is a closed set of value kinds a setting can hold. Each kind
// carries its own cast/uncast pair so adding a kind means adding a variant,
// not patching a switch.
type ValueType struct {
	name   string
	cast   func(raw string) interface{}
	uncast func(v interface{}) string
}

var (
	// TypeString stores and returns the raw value unchanged.
	TypeString = ValueType{
		name: "string",
		cast: func(raw string) interface{} { return raw },
		uncast: func(v interface{}) string {
			if s, ok := v.(string); ok {
				return s
			}
			return ""
		},
	}

	// TypeBoolean treats the exact string "true" as true and anything
	// else as false. Legacy permissive behavior, kept intentionally.
	TypeBoolean = ValueType{
		name: "boolean",
		cast: func(raw string) interface{} { return raw == "true" },
		uncast: func(v interface{}) string {
			if b, ok := v.(bool); ok {
				return strconv.FormatBool(b)
			}
			return "false"
		},
	}

	// TypeInteger parses the leading signed digit run; malformed input
	// degrades to 0 rather than failing. Legacy permissive behavior.
	TypeInteger = ValueType{
		name:   "integer",
		cast:   func(raw string) interface{} { return castInteger(raw) },
		uncast: uncastInteger,
	}
)

// Cast converts a stored raw string to the typed value for this kind.
func (t ValueType) Cast(raw string) interface{} { return t.cast(raw) }

// Uncast converts a typed value back to its stored string form.
func (t ValueType) Uncast(v interface{}) string { return t.uncast(v) }

// String returns the type tag name.
func (t ValueType) String() string { return t.name }

// TypeByName resolves a type tag name to its ValueType.
func TypeByName(name string) (ValueType, bool) {
	switch name {
	case TypeString.name:
		return TypeString, true
	case TypeBoolean.name:
		return TypeBoolean, true
	case TypeInteger.name:
		return TypeInteger, true
	default:
		return ValueType{}, false
	}
}

func castInteger(raw string) int {
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	start := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		// Overflowing digit runs also degrade to the zero sentinel
		return 0
	}
	return n
}

func uncastInteger(v interface{}) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return "0"
	}
}

// Definition describes one registered setting key: its value kind, default,
// and presentation metadata. Immutable once registered; re-registering the
// same key replaces the whole descriptor.
type Definition struct {
	Key         string      `json:"key"`
	Type        ValueType   `json:"-"`
	Section     string      `json:"section"`
	Visible     bool        `json:"visible"`
	Permission  string      `json:"permission,omitempty"` // opaque token; empty means unrestricted
	Description string      `json:"description,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Default     interface{} `json:"default"`
}
