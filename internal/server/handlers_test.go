package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/ironsheep/tag-tracker/internal/detection"
	"github.com/ironsheep/tag-tracker/internal/imaging"
)

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var info struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Format    string `json:"format"`
		Decodable bool   `json:"decodable"`
	}
	toolResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	if info.Width != 60 || info.Height != 60 || info.Format != "png" || !info.Decodable {
		t.Errorf("unexpected frame info: %+v", info)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var dims dimensions
	toolResult(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}), &dims)
	if dims.Width != 60 || dims.Height != 60 {
		t.Errorf("dimensions: got %dx%d, want 60x60", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_ImageChannels(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var report imaging.ChannelReport
	toolResult(t, callTool(t, s, "image_channels", map[string]interface{}{
		"path": path, "x1": 19, "y1": 19, "x2": 45, "y2": 45,
	}), &report)

	if len(report.Channels) != 4 {
		t.Fatalf("got %d channels, want 4", len(report.Channels))
	}
	// a black and white print spreads every channel equally
	if report.Recommended != "green" {
		t.Errorf("Recommended: got %s, want green", report.Recommended)
	}
	for _, c := range report.Channels {
		if c.StdDev <= 0 {
			t.Errorf("%s: stddev %f over the tag should be positive", c.Channel, c.StdDev)
		}
	}

	resp := callTool(t, s, "image_channels", map[string]interface{}{"path": path, "x1": 0, "y1": 0})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("a partial region should fail, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_MissingFile(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "tags_decode", map[string]interface{}{"path": "/nonexistent/P2/frame.png"})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected a tool execution error, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_TagsDecode(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var res struct {
		Population string             `json:"population"`
		Time       *time.Time         `json:"time"`
		Offset     int                `json:"offset"`
		Passes     int                `json:"passes"`
		Records    []detection.Record `json:"records"`
	}
	toolResult(t, callTool(t, s, "tags_decode", map[string]interface{}{"path": path}), &res)

	if res.Population != "P2" {
		t.Errorf("population: got %q, want P2", res.Population)
	}
	if res.Time == nil || !res.Time.Equal(time.Date(2019, 5, 2, 10, 11, 12, 1000, time.UTC)) {
		t.Errorf("time: got %v", res.Time)
	}
	if res.Offset != 2 || res.Passes != 6 {
		t.Errorf("sweep: got offset %d after %d passes, want 2 after 6", res.Offset, res.Passes)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records: got %d, want 1", len(res.Records))
	}
	rec := res.Records[0]
	if rec.TagID != 5 || rec.Confidence <= 0.8 {
		t.Errorf("record: got id %d confidence %.3f", rec.TagID, rec.Confidence)
	}
	if math.Abs(rec.X-29.5) > 1.5 || math.Abs(rec.Y-29.5) > 1.5 {
		t.Errorf("record position: got (%.2f, %.2f)", rec.X, rec.Y)
	}
}

func TestHandleToolsCall_TagsDecodeOverrides(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var res struct {
		Offset  int                `json:"offset"`
		Passes  int                `json:"passes"`
		Records []detection.Record `json:"records"`
	}
	args := map[string]interface{}{"path": path, "offsets": []int{-70}, "channel": "red"}
	toolResult(t, callTool(t, s, "tags_decode", args), &res)

	if res.Offset != -70 || res.Passes != 1 || len(res.Records) != 0 {
		t.Errorf("got offset %d, %d passes, %d records; want -70, 1, 0", res.Offset, res.Passes, len(res.Records))
	}

	// the override applies to that call only
	toolResult(t, callTool(t, s, "tags_decode", map[string]interface{}{"path": path}), &res)
	if len(res.Records) != 1 {
		t.Errorf("default settings after an override: got %d records, want 1", len(res.Records))
	}

	resp := callTool(t, s, "tags_decode", map[string]interface{}{"path": path, "channel": "purple"})
	if resp.Error == nil {
		t.Error("an unknown channel should fail")
	}
}

func TestHandleToolsCall_TagsOverlay(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var res struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		Tags        int    `json:"tags"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	args := map[string]interface{}{"path": path, "outline": "#FF00FF", "labels": false}
	toolResult(t, callTool(t, s, "tags_overlay", args), &res)

	if res.Width != 60 || res.Height != 60 || res.Tags != 1 || res.MimeType != "image/png" {
		t.Errorf("unexpected overlay metadata: %+v", res)
	}
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}

	resp := callTool(t, s, "tags_overlay", map[string]interface{}{"path": path, "outline": "magenta"})
	if resp.Error == nil {
		t.Error("a non-hex outline colour should fail")
	}
}

func TestHandleToolsCall_TagsThreshold(t *testing.T) {
	s := newTestServer(t)
	path := createTagFrame(t)

	var res struct {
		Offset      int    `json:"offset"`
		ImageBase64 string `json:"image_base64"`
	}
	toolResult(t, callTool(t, s, "tags_threshold", map[string]interface{}{"path": path, "offset": 2}), &res)

	if res.Offset != 2 {
		t.Errorf("offset: got %d, want 2", res.Offset)
	}
	data, _ := base64.StdEncoding.DecodeString(res.ImageBase64)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("threshold image should be grayscale, got %T", img)
	}
	if gray.GrayAt(5, 5).Y != 255 {
		t.Error("background should be white at offset 2")
	}
	if gray.GrayAt(20, 20).Y != 0 {
		t.Error("the printed black frame should be black")
	}
}

func TestHandleToolsCall_TagsCodebook(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		population string
		want       []int
	}{
		{"", []int{5, 16}},
		{"P2", []int{5, 16}},
		{"P1", []int{}},
		{"P99", []int{5, 16}},
	}
	for _, tt := range tests {
		var res struct {
			TagSize int   `json:"tag_size"`
			IDs     []int `json:"ids"`
		}
		toolResult(t, callTool(t, s, "tags_codebook", map[string]interface{}{"population": tt.population}), &res)

		if res.TagSize != 5 {
			t.Errorf("%q: tag size %d, want 5", tt.population, res.TagSize)
		}
		got, _ := json.Marshal(res.IDs)
		want, _ := json.Marshal(tt.want)
		if !bytes.Equal(got, want) {
			t.Errorf("%q: ids %s, want %s", tt.population, got, want)
		}
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "tags_track", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected a tool execution error, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp == nil || resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected invalid params error, got %+v", resp)
	}
}
