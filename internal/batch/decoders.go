package batch

import (
	"fmt"
	"log"
	"sync"

	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/detection"
)

// DecoderSet builds and caches one decoder per population label.
//
// Each population decodes against the codebook restricted to its configured
// ID set. A label with no configured set, including "", decodes against the
// whole codebook. DecoderSet is safe for concurrent use.
type DecoderSet struct {
	cfg    *config.Config
	book   *codebook.Codebook
	logger *log.Logger

	mu       sync.Mutex
	decoders map[string]*detection.Decoder
}

// NewDecoderSet validates cfg and returns an empty set. Decoders are built on
// first use. logger, when non-nil, receives per-candidate debug output.
func NewDecoderSet(cfg *config.Config, book *codebook.Codebook, logger *log.Logger) (*DecoderSet, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if book == nil || book.Len() == 0 {
		return nil, fmt.Errorf("%w: codebook is empty", config.ErrConfiguration)
	}
	return &DecoderSet{
		cfg:      cfg,
		book:     book,
		logger:   logger,
		decoders: make(map[string]*detection.Decoder),
	}, nil
}

// Config returns the configuration the decoders are built from.
func (s *DecoderSet) Config() *config.Config { return s.cfg }

// Codebook returns the full codebook.
func (s *DecoderSet) Codebook() *codebook.Codebook { return s.book }

// Filter returns the ID filter applied for population.
func (s *DecoderSet) Filter(population string) codebook.Filter {
	if set, ok := s.cfg.Population(population); ok {
		return set
	}
	return codebook.All
}

// For returns the decoder for population, building it if needed.
func (s *DecoderSet) For(population string) (*detection.Decoder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.decoders[population]; ok {
		return d, nil
	}

	if _, ok := s.cfg.Population(population); !ok {
		log.Printf("Population %q has no ID list, matching against all %d tags", population, s.book.Len())
	}
	m, err := s.book.Restrict(s.Filter(population), codebook.RenderOptionsFrom(s.cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to restrict codebook for %q: %w", population, err)
	}
	d, err := detection.NewDecoder(s.cfg, m)
	if err != nil {
		return nil, err
	}
	d.SetLogger(s.logger)

	s.decoders[population] = d
	return d, nil
}
