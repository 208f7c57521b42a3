// Package vocab holds the ordered sign vocabulary shared by collection,
// dataset building and inference. A sign's position is its label.
package vocab

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a vocabulary has no signs.
var ErrEmpty = errors.New("vocabulary is empty")

// Vocabulary is an immutable, ordered list of sign names.
type Vocabulary struct {
	names []string
	index map[string]int
}

// New creates a Vocabulary from names. Names are trimmed and must be
// non-blank and unique.
func New(names []string) (*Vocabulary, error) {
	if len(names) == 0 {
		return nil, ErrEmpty
	}

	v := &Vocabulary{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("sign %d has an empty name", i)
		}
		if prev, ok := v.index[name]; ok {
			return nil, fmt.Errorf("sign %q listed twice (positions %d and %d)", name, prev, i)
		}
		v.names[i] = name
		v.index[name] = i
	}
	return v, nil
}

// file is the on-disk layout of a vocabulary file.
type file struct {
	Signs []string `yaml:"signs"`
}

// Load reads a vocabulary from a YAML file of the form:
//
//	signs:
//	  - HELLO
//	  - YES
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}

	v, err := New(f.Signs)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Len returns the number of signs.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Name returns the sign at index i.
func (v *Vocabulary) Name(i int) (string, bool) {
	if i < 0 || i >= len(v.names) {
		return "", false
	}
	return v.names[i], true
}

// Index returns the label of the named sign.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

// Names returns a copy of the sign names in label order.
func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}

// Equal reports whether names lists exactly this vocabulary, in order.
func (v *Vocabulary) Equal(names []string) bool {
	if len(names) != len(v.names) {
		return false
	}
	for i := range names {
		if names[i] != v.names[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (v *Vocabulary) String() string {
	return strings.Join(v.names, ", ")
}
