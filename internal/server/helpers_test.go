package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/tag-tracker/internal/batch"
	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
)

var tag5 = []uint8{
	1, 0, 0, 1, 1,
	0, 1, 1, 0, 0,
	1, 1, 0, 0, 1,
	0, 0, 0, 1, 0,
	1, 0, 1, 1, 0,
}

var tag16 = []uint8{
	1, 1, 1, 0, 0,
	0, 0, 1, 1, 0,
	1, 0, 0, 1, 1,
	0, 1, 0, 0, 0,
	0, 1, 1, 0, 1,
}

// newTestServer returns a server over a two-tag codebook that decodes frames
// at native resolution.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	book, err := codebook.New([]int{5, 16}, [][]uint8{tag5, tag16}, 5)
	if err != nil {
		t.Fatalf("codebook.New failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.ResizeFactor = 1
	cfg.ResizeRules = nil

	ds, err := batch.NewDecoderSet(cfg, book, nil)
	if err != nil {
		t.Fatalf("NewDecoderSet failed: %v", err)
	}
	return New(ds)
}

// createTagFrame writes a 60x60 white PNG frame under dir/P2 with tag 5
// printed upright at (19, 19), 2 pixels per cell, and returns its path.
func createTagFrame(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	printed := codebook.AddBorder(codebook.NewPattern(5, 5, tag5), 1, 2).Image(2)
	draw.Draw(img, printed.Bounds().Add(image.Pt(19, 19)), printed, image.Point{}, draw.Src)

	dir := filepath.Join(t.TempDir(), "P2")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, "cam_2019-05-02-10-11-12-000001.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	return path
}

// callTool issues a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the JSON text content of a successful tool response
// into v.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content should hold one item, got %v", result["content"])
	}
	text, ok := content[0]["text"].(string)
	if !ok {
		t.Fatal("content text should be a string")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
}
