// Package reference loads the Elgato tested-device list. The contents are
// treated as opaque text: nothing here parses or validates them.
package reference

import (
	"fmt"
	"os"
)

// DefaultPath is where the list is expected relative to the working directory.
const DefaultPath = "cameras.json"

// List is the reference list as loaded from disk. The zero value is an
// empty list from nowhere.
type List struct {
	path string
	text string
}

// Load reads the whole file at path. A missing or unreadable file is an
// error; there is no empty fallback.
func Load(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return List{}, fmt.Errorf("load reference list: %w", err)
	}
	return List{path: path, text: string(data)}, nil
}

// FromText wraps text that did not come from a file (tests, go:embed).
func FromText(text string) List {
	return List{text: text}
}

// Text returns the list verbatim.
func (l List) Text() string { return l.text }

// Path returns the file the list was read from, or "" for FromText lists.
func (l List) Path() string { return l.path }

// Len is the size of the list in bytes.
func (l List) Len() int { return len(l.text) }
