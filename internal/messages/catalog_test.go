package messages

import (
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestForMatchesLanguage(t *testing.T) {
	tests := []struct {
		code, fallback, want string
	}{
		{"ru", "en", "ru"},
		{"ru-RU", "", "ru"},
		{"en-GB", "ru", "en"},
		{"", "ru", "ru"},
		{"", "", "en"},
		{"xx-invalid-!!", "", "en"},
	}
	for _, tt := range tests {
		if got := For(tt.code, tt.fallback).Language(); got != tt.want {
			t.Fatalf("For(%q, %q) = %q, want %q", tt.code, tt.fallback, got, tt.want)
		}
	}
}

func TestTextSubstitutesPlaceholders(t *testing.T) {
	p := For("en", "")
	got := p.Text(CreatingGIF, "start_time", "00:00:05", "end_time", "00:00:15")
	if !strings.Contains(got, "Start: 00:00:05") || !strings.Contains(got, "End: 00:00:15") {
		t.Fatalf("unexpected text %q", got)
	}
	if got := p.Text(Key("missing_key")); got != "missing_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	en := catalog[language.English]
	ru := catalog[language.Russian]
	for key := range en {
		if _, ok := ru[key]; !ok {
			t.Fatalf("russian catalog missing %s", key)
		}
	}
	if len(en) != len(ru) {
		t.Fatalf("catalog sizes differ: en=%d ru=%d", len(en), len(ru))
	}
}
