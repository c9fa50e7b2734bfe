package codebook

import (
	"fmt"

	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// Entry is one tag identity with its four rotation variants.
// Variants[r] is the canonical pattern rotated counter-clockwise by r*90 degrees.
type Entry struct {
	ID       int
	Variants [4]Pattern
}

// Codebook is an ordered set of tag identities sharing one square tag size.
type Codebook struct {
	tagSize int
	entries []Entry
	index   map[int]int
}

// New builds a codebook from parallel id and pattern sequences.
//
// Each pattern is a flattened tagSize x tagSize grid of 0/1 bits. Two layouts
// are accepted:
//   - every id appears once: the pattern is canonical and the three further
//     rotations are generated;
//   - ids come in runs of four equal values: the four patterns of a run are
//     the pre-rotated variants 0..3.
//
// Any other layout, a length mismatch or a bit outside {0,1} is reported as
// config.ErrConfiguration.
func New(ids []int, patterns [][]uint8, tagSize int) (*Codebook, error) {
	if tagSize < 1 {
		return nil, fmt.Errorf("%w: tag size must be positive, got %d", config.ErrConfiguration, tagSize)
	}
	if len(ids) != len(patterns) {
		return nil, fmt.Errorf("%w: %d ids for %d patterns", config.ErrConfiguration, len(ids), len(patterns))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: codebook is empty", config.ErrConfiguration)
	}
	for i, p := range patterns {
		if len(p) != tagSize*tagSize {
			return nil, fmt.Errorf("%w: pattern %d (id %d) has %d bits, want %d",
				config.ErrConfiguration, i, ids[i], len(p), tagSize*tagSize)
		}
		for _, b := range p {
			if b > 1 {
				return nil, fmt.Errorf("%w: pattern %d (id %d) has bit value %d",
					config.ErrConfiguration, i, ids[i], b)
			}
		}
	}

	cb := &Codebook{tagSize: tagSize, index: make(map[int]int)}

	pattern := func(i int) Pattern {
		bits := make([]uint8, len(patterns[i]))
		copy(bits, patterns[i])
		return NewPattern(tagSize, tagSize, bits)
	}

	if preRotated(ids) {
		for i := 0; i < len(ids); i += 4 {
			e := Entry{ID: ids[i]}
			for r := 0; r < 4; r++ {
				e.Variants[r] = pattern(i + r)
			}
			if err := cb.add(e); err != nil {
				return nil, err
			}
		}
		return cb, nil
	}

	for i, id := range ids {
		e := Entry{ID: id}
		e.Variants[0] = pattern(i)
		for r := 1; r < 4; r++ {
			e.Variants[r] = e.Variants[r-1].Rotate()
		}
		if err := cb.add(e); err != nil {
			return nil, err
		}
	}
	return cb, nil
}

// preRotated reports whether ids consist of runs of exactly four equal values.
func preRotated(ids []int) bool {
	if len(ids)%4 != 0 {
		return false
	}
	for i := 0; i < len(ids); i += 4 {
		if ids[i+1] != ids[i] || ids[i+2] != ids[i] || ids[i+3] != ids[i] {
			return false
		}
	}
	return true
}

func (c *Codebook) add(e Entry) error {
	if _, dup := c.index[e.ID]; dup {
		return fmt.Errorf("%w: id %d appears in more than one run", config.ErrConfiguration, e.ID)
	}
	c.index[e.ID] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

// TagSize returns the side length of every pattern, in bits.
func (c *Codebook) TagSize() int { return c.tagSize }

// Len returns the number of identities.
func (c *Codebook) Len() int { return len(c.entries) }

// Entries returns the identities in codebook order. The slice must not be modified.
func (c *Codebook) Entries() []Entry { return c.entries }

// Lookup returns the entry for id.
func (c *Codebook) Lookup(id int) (Entry, bool) {
	i, ok := c.index[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// IDs returns every identity in codebook order.
func (c *Codebook) IDs() []int {
	ids := make([]int, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// Filter decides which identities a matrix may contain.
type Filter interface {
	Admits(id int) bool
}

type allFilter struct{}

func (allFilter) Admits(int) bool { return true }

// All admits every identity.
var All Filter = allFilter{}

// RenderOptions controls how patterns become matrix rows.
type RenderOptions struct {
	// WhiteBorder and BlackBorder are passed to AddBorder.
	WhiteBorder int
	BlackBorder int

	// Size is the side length of the comparison grid; 0 means the bordered
	// pattern's own size.
	Size int
}

// DefaultRenderOptions matches the printed field tags: one white cell of
// margin, no black frame, compared at 7x7.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{WhiteBorder: 1, BlackBorder: 0, Size: 7}
}

// RenderOptionsFrom picks the border and resolution settings out of cfg.
func RenderOptionsFrom(cfg *config.Config) RenderOptions {
	return RenderOptions{
		WhiteBorder: cfg.WhiteBorder,
		BlackBorder: cfg.BlackBorder,
		Size:        cfg.PatternSize,
	}
}

// Matrix is the flattened comparison matrix for a set of admitted identities.
type Matrix struct {
	// IDs[i] is the identity of row i.
	IDs []int

	// Variants[i] is the rotation index of row i; always i mod 4.
	Variants []int

	// Rows holds Size*Size intensities in [0, 1] per row.
	Rows [][]float64

	// Size is the side length of the comparison grid.
	Size int
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return len(m.Rows) }

// Restrict builds the comparison matrix for the identities admitted by f,
// in codebook order, four rows per identity.
//
// Fails with config.ErrConfiguration when f admits nothing or the options
// are out of range.
func (c *Codebook) Restrict(f Filter, opts RenderOptions) (*Matrix, error) {
	if f == nil {
		f = All
	}
	if opts.WhiteBorder < 0 || opts.BlackBorder < 0 || opts.Size < 0 {
		return nil, fmt.Errorf("%w: invalid render options %+v", config.ErrConfiguration, opts)
	}

	size := opts.Size
	if size == 0 {
		size = c.tagSize + 2*(opts.WhiteBorder+opts.BlackBorder)
	}

	m := &Matrix{Size: size}
	for _, e := range c.entries {
		if !f.Admits(e.ID) {
			continue
		}
		for r, v := range e.Variants {
			bordered := AddBorder(v, opts.WhiteBorder, opts.BlackBorder)
			m.IDs = append(m.IDs, e.ID)
			m.Variants = append(m.Variants, r)
			m.Rows = append(m.Rows, imaging.ResizeArea(bordered.Image(1), size))
		}
	}

	if len(m.Rows) == 0 {
		return nil, fmt.Errorf("%w: no codebook identity is admitted", config.ErrConfiguration)
	}
	if len(m.IDs) != len(m.Rows) {
		return nil, fmt.Errorf("%w: id list does not equal row list", config.ErrConfiguration)
	}
	return m, nil
}
