// Package storage holds the raw filesystem primitives the archival layer is
// built on. They carry no policy of their own.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// EnsureDirectory idempotently creates a directory and returns its path.
func EnsureDirectory(path string) (string, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", path, err)
	}
	return path, nil
}

// WriteJSON persists a payload as UTF-8, two-space indented JSON with no
// trailing newline. Struct fields encode in declaration order and map keys
// sort, so encoding the same payload twice yields byte-identical output.
func WriteJSON(path string, payload any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode %q: %w", path, err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// WriteText persists plain text content as UTF-8, byte for byte.
func WriteText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// ReadJSON reads a JSON object file into a generic mapping.
func ReadJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", path, err)
	}
	return out, nil
}
