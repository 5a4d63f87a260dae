package prompt

import (
	"strings"
	"testing"
)

func TestParseFallsBackToDefault(t *testing.T) {
	cases := map[string]Mode{
		"school":  ModeSchool,
		"work":    ModeWork,
		"":        DefaultMode,
		"banana":  DefaultMode,
		"SCHOOL":  DefaultMode,
		"summary": ModeSummary,
	}
	for tag, want := range cases {
		if got := Parse(tag); got != want {
			t.Errorf("Parse(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestFromLabelRoundTrip(t *testing.T) {
	for _, m := range Modes {
		got, ok := FromLabel(m.Label())
		if !ok || got != m {
			t.Errorf("FromLabel(%q) = (%q, %v), want %q", m.Label(), got, ok, m)
		}
	}

	if _, ok := FromLabel("not a button"); ok {
		t.Error("FromLabel matched arbitrary text")
	}
}

func TestSystemPromptsDistinct(t *testing.T) {
	seen := make(map[string]Mode)
	for _, m := range Modes {
		p := m.SystemPrompt()
		if !strings.Contains(p, "русском") {
			t.Errorf("mode %q prompt is missing the shared base rules", m)
		}
		if prev, dup := seen[p]; dup {
			t.Errorf("modes %q and %q share a system prompt", prev, m)
		}
		seen[p] = m
	}
}

func TestEmojiPerMode(t *testing.T) {
	seen := make(map[string]Mode)
	for _, m := range Modes {
		e := m.Emoji()
		if e == "" || e == "❓" {
			t.Errorf("mode %q has no emoji", m)
		}
		if prev, dup := seen[e]; dup {
			t.Errorf("modes %q and %q share emoji %q", prev, m, e)
		}
		seen[e] = m
	}
}
