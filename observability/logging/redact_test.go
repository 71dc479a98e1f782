package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"  WARN ": slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMaskFieldHidesIdentifiers(t *testing.T) {
	masked := MaskField("account", "0x00000000000000000000000000000000000000aa")
	if masked.Value.String() != RedactedValue {
		t.Fatalf("account not redacted: %s", masked.Value.String())
	}
	target := MaskField("target", "0x0000000000000000000000000000000000000001")
	if target.Value.String() != RedactedValue {
		t.Fatalf("target not redacted: %s", target.Value.String())
	}

	open := MaskField("amount", "1000")
	if open.Value.String() != "1000" {
		t.Fatalf("allowlisted amount mangled: %s", open.Value.String())
	}
	empty := MaskField("account", "")
	if empty.Value.String() != "" {
		t.Fatalf("empty value must pass through: %q", empty.Value.String())
	}
}

func TestAllowlistCoversEventMetadata(t *testing.T) {
	for _, key := range []string{"pool", "cycle", "kind", "amount", "price", "error"} {
		if !IsAllowlisted(key) {
			t.Fatalf("key %q missing from the allowlist", key)
		}
	}
	if IsAllowlisted("account") {
		t.Fatal("account must never be allowlisted")
	}
	keys := RedactionAllowlist()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("allowlist not sorted at %d: %v", i, keys)
		}
	}
}
