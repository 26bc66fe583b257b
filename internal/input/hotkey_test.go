package input

import (
	"testing"

	"golang.design/x/hotkey"
)

func TestParseHotkey(t *testing.T) {
	mods, key, err := parseHotkey("ctrl+shift+space")
	if err != nil {
		t.Fatalf("parseHotkey() error: %v", err)
	}
	if key != hotkey.KeySpace {
		t.Errorf("key = %v, want KeySpace", key)
	}
	if len(mods) != 2 {
		t.Fatalf("got %d modifiers, want 2", len(mods))
	}
	if mods[0] != hotkey.ModCtrl || mods[1] != hotkey.ModShift {
		t.Errorf("modifiers = %v, want [ModCtrl ModShift]", mods)
	}
}

func TestParseHotkeyCaseAndAliases(t *testing.T) {
	mods, key, err := parseHotkey("Control+R")
	if err != nil {
		t.Fatalf("parseHotkey() error: %v", err)
	}
	if key != hotkey.KeyR {
		t.Errorf("key = %v, want KeyR", key)
	}
	if len(mods) != 1 || mods[0] != hotkey.ModCtrl {
		t.Errorf("modifiers = %v, want [ModCtrl]", mods)
	}

	if _, key, err := parseHotkey("esc"); err != nil || key != hotkey.KeyEscape {
		t.Errorf("parseHotkey(esc) = %v, %v; want KeyEscape", key, err)
	}
	if _, key, err := parseHotkey("f12"); err != nil || key != hotkey.KeyF12 {
		t.Errorf("parseHotkey(f12) = %v, %v; want KeyF12", key, err)
	}
}

func TestParseHotkeyRejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"ctrl+shift",   // modifiers only
		"ctrl+bogus",   // unknown key
		"ctrl+a+b",     // two keys
	}
	for _, s := range cases {
		if _, _, err := parseHotkey(s); err == nil {
			t.Errorf("parseHotkey(%q) succeeded, want error", s)
		}
	}
}
