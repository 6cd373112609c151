package cppast

import "testing"

func TestEscUnescRoundTrip(t *testing.T) {
	cases := []string{
		"hello",
		"hi \"there\"\n\t",
		"tab\tbell\aform\f",
		"??!", // would form a trigraph if left bare
		string([]byte{0x01, 0x7f, 0xff}),
	}
	for _, raw := range cases {
		escaped := Esc(raw)
		got, err := Unesc(escaped)
		if err != nil {
			t.Fatalf("Unesc(%q): %v", escaped, err)
		}
		if got != raw {
			t.Fatalf("round trip mismatch: raw=%q escaped=%q got=%q", raw, escaped, got)
		}
	}
}

func TestUnescRejectsRawControlByte(t *testing.T) {
	if _, err := Unesc("a\nb"); err == nil {
		t.Fatal("expected error for unescaped control byte")
	}
}

func TestUnescRejectsInvalidEscape(t *testing.T) {
	if _, err := Unesc(`\q`); err == nil {
		t.Fatal("expected error for invalid escape sequence")
	}
}

func TestEscTrigraphQuestionMark(t *testing.T) {
	if got := Esc("??="); got != `\?\?=` {
		t.Fatalf("Esc(??=) = %q", got)
	}
	if got := Esc("a?b"); got != "a?b" {
		t.Fatalf("lone ? should not be escaped: %q", got)
	}
}
