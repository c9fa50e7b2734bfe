package codebook

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/tag-tracker/internal/config"
)

// file is the on-disk codebook layout.
type file struct {
	TagSize  int     `json:"tag_size"`
	IDs      []int   `json:"ids"`
	Patterns [][]int `json:"patterns"`
}

// Load reads a codebook from a JSON file of the form
//
//	{"tag_size": 5, "ids": [1, 2, ...], "patterns": [[0,1,...], ...]}
//
// The ids/patterns layout follows New.
func Load(path string) (*Codebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read codebook: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse codebook %s: %v", config.ErrConfiguration, path, err)
	}

	patterns := make([][]uint8, len(f.Patterns))
	for i, p := range f.Patterns {
		patterns[i] = make([]uint8, len(p))
		for j, b := range p {
			if b != 0 && b != 1 {
				return nil, fmt.Errorf("%w: pattern %d has bit value %d", config.ErrConfiguration, i, b)
			}
			patterns[i][j] = uint8(b)
		}
	}
	return New(f.IDs, patterns, f.TagSize)
}

// Save writes c in the pre-rotated layout, four patterns per identity.
// Patterns are written as integer arrays rather than base64 byte strings.
func (c *Codebook) Save(path string) error {
	f := file{TagSize: c.tagSize}
	for _, e := range c.entries {
		for _, v := range e.Variants {
			f.IDs = append(f.IDs, e.ID)
			bits := make([]int, len(v.Bits))
			for i, b := range v.Bits {
				bits[i] = int(b)
			}
			f.Patterns = append(f.Patterns, bits)
		}
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode codebook: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write codebook: %w", err)
	}
	return nil
}
