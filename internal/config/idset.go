package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxIDSpan caps the number of IDs a single "lo-hi" range may expand to.
const MaxIDSpan = 1000000

// IDSet is a set of admissible tag IDs for one population.
//
// In JSON it is a list whose entries are integers or inclusive "lo-hi" range
// strings, e.g. [4, 14, "24", "1-200"].
type IDSet struct {
	ids map[int]struct{}
}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...int) IDSet {
	s := IDSet{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Admits reports whether id belongs to the set.
func (s IDSet) Admits(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of IDs in the set.
func (s IDSet) Len() int { return len(s.ids) }

// Sorted returns the IDs in ascending order.
func (s IDSet) Sorted() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// UnmarshalJSON accepts integers and "lo-hi" range strings.
func (s *IDSet) UnmarshalJSON(b []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("id set must be a list: %w", err)
	}
	s.ids = make(map[int]struct{})
	for _, raw := range entries {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '"' {
			var text string
			if err := json.Unmarshal(raw, &text); err != nil {
				return err
			}
			lo, hi, err := parseRange(text)
			if err != nil {
				return err
			}
			for id := lo; id <= hi; id++ {
				s.ids[id] = struct{}{}
			}
			continue
		}
		var id int
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("invalid id %s: %w", raw, err)
		}
		s.ids[id] = struct{}{}
	}
	return nil
}

// MarshalJSON writes the IDs as a sorted integer list.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func parseRange(text string) (int, int, error) {
	text = strings.TrimSpace(text)
	loText, hiText, isRange := strings.Cut(text, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(loText))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid id %q", text)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(hiText))
	if err != nil || hi < lo {
		return 0, 0, fmt.Errorf("invalid id range %q", text)
	}
	if hi-lo >= MaxIDSpan {
		return 0, 0, fmt.Errorf("id range %q spans more than %d ids", text, MaxIDSpan)
	}
	return lo, hi, nil
}
