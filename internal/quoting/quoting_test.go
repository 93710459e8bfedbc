package quoting

import "testing"

func TestEscapeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no quotes", "hello", "hello"},
		{"single quote", "it's", `it\'s`},
		{"multiple quotes", "a'b'c", `a\'b\'c`},
		{"only quote", "'", `\'`},
		{"double quote untouched", `say "hi"`, `say "hi"`},
		{"backslash", `hello\world`, `hello\\world`},
		{"backslash before quote", `\'`, `\\\'`},
		{"newline", "a\nb", `a\nb`},
		{"tab and carriage return", "a\tb\rc", `a\tb\rc`},
		{"unicode", "café", "café"},
		{"injection attempt", "'}) DETACH DELETE n //", `\'}) DETACH DELETE n //`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeString(tt.input)
			if got != tt.want {
				t.Errorf("EscapeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBacktick(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "users", "`users`"},
		{"with backtick", "my`label", "`my``label`"},
		{"empty", "", "``"},
		{"space", "first name", "`first name`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Backtick(tt.input)
			if got != tt.want {
				t.Errorf("Backtick(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{"n", "n"},
		{"person_1", "person_1"},
		{"_hidden", "_hidden"},
		{"Person", "Person"},
		{"1st", "`1st`"},
		{"first name", "`first name`"},
		{"match", "`match`"},
		{"Return", "`Return`"},
		{"a-b", "`a-b`"},
		{"", "``"},
		{"café", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()
	if !IsIdentifier("age") {
		t.Error("expected age to be an identifier")
	}
	if IsIdentifier("WHERE") {
		t.Error("expected WHERE to be reserved")
	}
	if IsIdentifier("9lives") {
		t.Error("expected leading digit to be rejected")
	}
}
