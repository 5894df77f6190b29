package settings

import "testing"

func TestCastBoolean(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"yes", false},
		{"TRUE", false},
		{"1", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := TypeBoolean.Cast(tc.raw); got != tc.want {
			t.Errorf("Cast(Boolean, %q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestCastInteger(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"42", 42},
		{"-7", -7},
		{"+3", 3},
		{"42abc", 42},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{"3.14", 3},
	}
	for _, tc := range cases {
		if got := TypeInteger.Cast(tc.raw); got != tc.want {
			t.Errorf("Cast(Integer, %q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestCastString(t *testing.T) {
	if got := TypeString.Cast("dark"); got != "dark" {
		t.Errorf("Cast(String, \"dark\") = %v", got)
	}
}

func TestUncast(t *testing.T) {
	if got := TypeBoolean.Uncast(true); got != "true" {
		t.Errorf("Uncast(Boolean, true) = %q", got)
	}
	if got := TypeBoolean.Uncast(false); got != "false" {
		t.Errorf("Uncast(Boolean, false) = %q", got)
	}
	if got := TypeInteger.Uncast(42); got != "42" {
		t.Errorf("Uncast(Integer, 42) = %q", got)
	}
	if got := TypeInteger.Uncast(int64(-7)); got != "-7" {
		t.Errorf("Uncast(Integer, int64(-7)) = %q", got)
	}
	if got := TypeString.Uncast("light"); got != "light" {
		t.Errorf("Uncast(String, \"light\") = %q", got)
	}
}

func TestCastUncastRoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "42", "-7"} {
		if got := TypeInteger.Uncast(TypeInteger.Cast(raw)); got != raw {
			t.Errorf("Integer round trip %q = %q", raw, got)
		}
	}
	for _, raw := range []string{"true", "false"} {
		if got := TypeBoolean.Uncast(TypeBoolean.Cast(raw)); got != raw {
			t.Errorf("Boolean round trip %q = %q", raw, got)
		}
	}
}

func TestTypeByName(t *testing.T) {
	for _, name := range []string{"string", "boolean", "integer"} {
		vt, ok := TypeByName(name)
		if !ok || vt.String() != name {
			t.Errorf("TypeByName(%q) = %v, %v", name, vt, ok)
		}
	}
	if _, ok := TypeByName("float"); ok {
		t.Error("TypeByName(\"float\") should not resolve")
	}
}
