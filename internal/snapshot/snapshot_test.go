package snapshot

import (
	"errors"
	"testing"
)

func TestParseBuildsIndexAndSkipsBadRecords(t *testing.T) {
	raw := []byte(`{
		"devices": [
			{"id": "devA", "ip": "10.0.0.5"},
			{"id": "", "ip": "10.0.0.6"},
			{"id": "devB"},
			{"id": "devC", "ip": "10.0.0.9"}
		]
	}`)

	idx, skipped, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(idx) != 2 {
		t.Fatalf("expected 2 indexed devices, got %d", len(idx))
	}
	if addr, ok := idx.Lookup("devA"); !ok || addr != "10.0.0.5" {
		t.Fatalf("unexpected devA address: %q ok=%v", addr, ok)
	}
	if addr, ok := idx.Lookup("devC"); !ok || addr != "10.0.0.9" {
		t.Fatalf("unexpected devC address: %q ok=%v", addr, ok)
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skip warnings, got %+v", skipped)
	}
	if skipped[0].Index != 1 || skipped[1].Index != 2 {
		t.Fatalf("unexpected skip indexes: %+v", skipped)
	}
}

func TestParseDuplicateIdentifierLastWins(t *testing.T) {
	raw := []byte(`{"devices": [
		{"id": "devA", "ip": "10.0.0.1"},
		{"id": "devA", "ip": "10.0.0.2"}
	]}`)

	idx, skipped, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %+v", skipped)
	}
	if addr, _ := idx.Lookup("devA"); addr != "10.0.0.2" {
		t.Fatalf("expected last record to win, got %q", addr)
	}
}

func TestParseMissingDevicesKeyYieldsEmptyIndex(t *testing.T) {
	idx, skipped, err := Parse([]byte(`{"scanned_at": "now"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(idx) != 0 || len(skipped) != 0 {
		t.Fatalf("expected empty result, got idx=%v skipped=%v", idx, skipped)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, _, err := Parse([]byte(`{"devices": [`)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
