package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.BlockSize != 1001 {
		t.Errorf("BlockSize: got %d, want 1001", cfg.BlockSize)
	}
	if cfg.Channel != ChannelGreen {
		t.Errorf("Channel: got %q, want green", cfg.Channel)
	}
	want := []int{-70, -50, -30, -10, 0, 2}
	if len(cfg.Offsets) != len(want) {
		t.Fatalf("Offsets: got %v, want %v", cfg.Offsets, want)
	}
	for i := range want {
		if cfg.Offsets[i] != want[i] {
			t.Errorf("Offsets[%d]: got %d, want %d", i, cfg.Offsets[i], want[i])
		}
	}
}

func TestDefaultConfig_FieldPopulations(t *testing.T) {
	cfg := DefaultConfig()
	p2, ok := cfg.Population("P2")
	if !ok {
		t.Fatal("P2 missing from defaults")
	}
	if got := p2.Sorted(); len(got) != 3 || got[0] != 5 || got[1] != 7 || got[2] != 16 {
		t.Errorf("P2: got %v, want [5 7 16]", got)
	}
	if p12, _ := cfg.Population("P12"); p12.Len() != 200 {
		t.Errorf("P12: got %d ids, want 200", p12.Len())
	}
	if _, ok := cfg.Population("P13"); ok {
		t.Error("P13 should be unknown")
	}
	if got := cfg.ResizeFor("cams/Feeder3/x.jpg"); got != 0.9 {
		t.Errorf("ResizeFor feeder: got %g, want 0.9", got)
	}
}

func TestDefaultConfig_OffsetsNotShared(t *testing.T) {
	a := DefaultConfig()
	a.Offsets[0] = 99
	if DefaultOffsets[0] != -70 {
		t.Fatal("mutating a config changed DefaultOffsets")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"even block size", func(c *Config) { c.BlockSize = 1000 }},
		{"tiny block size", func(c *Config) { c.BlockSize = 1 }},
		{"unknown channel", func(c *Config) { c.Channel = "purple" }},
		{"no offsets", func(c *Config) { c.Offsets = nil }},
		{"bad sweep", func(c *Config) { c.SweepMode = "random" }},
		{"inverted area", func(c *Config) { c.Filter.MinArea, c.Filter.MaxArea = 400, 70 }},
		{"inverted vertices", func(c *Config) { c.Filter.MinVertices, c.Filter.MaxVertices = 50, 4 }},
		{"zero epsilon", func(c *Config) { c.Filter.ApproxEpsilon = 0 }},
		{"approx below quad", func(c *Config) { c.Filter.MinApproxVertices = 3 }},
		{"perimeter range", func(c *Config) { c.Filter.MinPerimeterArea = 0 }},
		{"rectify smaller than pattern", func(c *Config) { c.RectifySize = 5 }},
		{"threshold one", func(c *Config) { c.MatchThreshold = 1 }},
		{"negative border", func(c *Config) { c.WhiteBorder = -1 }},
		{"empty roi", func(c *Config) { c.ROI = &Rect{X1: 10, Y1: 10, X2: 10, Y2: 20} }},
		{"bad resize rule", func(c *Config) { c.ResizeRules = []ResizeRule{{Contains: "", Factor: 1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MatchThreshold != 0.8 {
		t.Errorf("MatchThreshold: got %g, want 0.8", cfg.MatchThreshold)
	}
}

func TestLoad_OverridesAndPopulations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	body := `{
		"channel": "red",
		"offsets": [0, 2],
		"match_threshold": 0.85,
		"resize_rules": [{"contains": "Feeder", "factor": 0.9}],
		"populations": {"P1": [4, 14, "24"], "P11": ["1-200"]}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Channel != ChannelRed {
		t.Errorf("Channel: got %q", cfg.Channel)
	}
	if len(cfg.Offsets) != 2 || cfg.Offsets[0] != 0 || cfg.Offsets[1] != 2 {
		t.Errorf("Offsets: got %v", cfg.Offsets)
	}
	// untouched fields keep their defaults
	if cfg.BlockSize != 1001 {
		t.Errorf("BlockSize: got %d", cfg.BlockSize)
	}

	p1, ok := cfg.Population("P1")
	if !ok {
		t.Fatal("P1 missing")
	}
	for _, id := range []int{4, 14, 24} {
		if !p1.Admits(id) {
			t.Errorf("P1 should admit %d", id)
		}
	}
	if p1.Admits(5) {
		t.Error("P1 should not admit 5")
	}
	p11, _ := cfg.Population("P11")
	if p11.Len() != 200 || !p11.Admits(1) || !p11.Admits(200) || p11.Admits(201) {
		t.Errorf("P11 range wrong: len=%d", p11.Len())
	}

	if got := cfg.ResizeFor("/data/P3_Feeder_2020/img.jpg"); got != 0.9 {
		t.Errorf("ResizeFor feeder: got %g, want 0.9", got)
	}
	if got := cfg.ResizeFor("/data/P3_Social_2020/img.jpg"); got != 0.8 {
		t.Errorf("ResizeFor social: got %g, want 0.8", got)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"blocksize": 11}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := DefaultConfig()
	cfg.SweepMode = SweepBest
	cfg.Populations = map[string]IDSet{"P2": NewIDSet(5, 7, 16)}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SweepMode != SweepBest {
		t.Errorf("SweepMode: got %q", loaded.SweepMode)
	}
	p2, ok := loaded.Population("P2")
	if !ok || p2.Len() != 3 || !p2.Admits(16) {
		t.Errorf("P2 not preserved: %v", p2.Sorted())
	}
}

func TestSave_ReportsWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "cfg.json")
	if err := DefaultConfig().Save(path); err == nil {
		t.Error("Save into a missing directory should fail")
	}
}

func TestIDSet_RangeSpan(t *testing.T) {
	var s IDSet
	if err := json.Unmarshal([]byte(`["10-109", "1-1000001"]`), &s); err == nil {
		t.Error("a range one past the span cap should be rejected")
	}
	if err := json.Unmarshal([]byte(`["10-109"]`), &s); err != nil || s.Len() != 100 {
		t.Errorf("got %d ids, %v; want 100", s.Len(), err)
	}
}

func TestIDSet_UnmarshalErrors(t *testing.T) {
	for _, body := range []string{`{"a":1}`, `["x"]`, `["9-3"]`, `[1.5]`, `["1-2000000000"]`} {
		var s IDSet
		if err := json.Unmarshal([]byte(body), &s); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "tagtrack.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := DefaultConfig()
	if !reflect.DeepEqual(cfg.Offsets, def.Offsets) || cfg.BlockSize != def.BlockSize ||
		cfg.Filter != def.Filter || cfg.Channel != def.Channel {
		t.Errorf("shipped configuration differs from the defaults: %+v", cfg)
	}
	for label, want := range def.Populations {
		got, ok := cfg.Population(label)
		if !ok || !reflect.DeepEqual(got.Sorted(), want.Sorted()) {
			t.Errorf("population %s: got %v, want %v", label, got.Sorted(), want.Sorted())
		}
	}
}
