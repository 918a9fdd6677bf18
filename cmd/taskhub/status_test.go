package main

import "testing"

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":                   "...",
		"x":                  "...",
		"ab":                 "ab...",
		"shorttoken":         "sh...",
		"a-much-longer-token": "a-much-l...oken",
	}
	for input, want := range cases {
		if got := maskToken(input); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValueOrDefault(t *testing.T) {
	if got := valueOrDefault("", "(not set)"); got != "(not set)" {
		t.Errorf("expected default, got %q", got)
	}
	if got := valueOrDefault("value", "(not set)"); got != "value" {
		t.Errorf("expected value, got %q", got)
	}
}
