package extractor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.txt")
	content := "JPMorgan Chase Bank, N.A.\n01/15 Card Purchase Netflix.Com 15.99\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != content {
		t.Errorf("Load = %q, want file content unchanged", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadableRatio(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{"statement text", "01/15 Card Purchase Netflix.Com CA Card 1234 $15.99", true},
		{"identity-encoded garbage", "��⌂⌂", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio := readableRatio(tt.text)
			if got := ratio >= 0.85; got != tt.ok {
				t.Errorf("readableRatio(%q) = %v, readability %v, want %v", tt.text, ratio, got, tt.ok)
			}
		})
	}
}
