package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureDirectoryIsIdempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b")
	for i := 0; i < 2; i++ {
		path, err := EnsureDirectory(target)
		if err != nil {
			t.Fatalf("ensure directory: %v", err)
		}
		if path != target {
			t.Fatalf("unexpected path %q", path)
		}
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory missing: %v", err)
	}
}

func TestWriteJSONIsByteStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	payload := map[string]any{"zulu": 1, "alpha": "a", "mike": []string{"x"}}

	if err := WriteJSON(path, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := WriteJSON(path, payload); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("encoding the same payload twice produced different bytes")
	}
	if strings.HasSuffix(string(first), "\n") {
		t.Fatal("encoded file carries a trailing newline")
	}

	decoded, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if decoded["alpha"] != "a" {
		t.Fatalf("round trip mismatch: %v", decoded)
	}
}

func TestWriteJSONDoesNotEscapeHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	if err := WriteJSON(path, map[string]string{"q": "a < b && c > d"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := "a < b && c > d"; !strings.Contains(string(data), want) {
		t.Fatalf("content escaped: %s", data)
	}
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := WriteText(path, "plain content\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "plain content\n" {
		t.Fatalf("content mismatch: %q %v", data, err)
	}
}

func TestReadJSONRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadJSON(path); err == nil {
		t.Fatal("expected decode error")
	}
}
