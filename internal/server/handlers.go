package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/tag-tracker/internal/annotate"
	"github.com/ironsheep/tag-tracker/internal/batch"
	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/detection"
	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "tags_decode").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Frame information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_channels":
		return s.handleImageChannels(args)

	// Tag decoding
	case "tags_decode":
		return s.handleTagsDecode(args)
	case "tags_overlay":
		return s.handleTagsOverlay(args)
	case "tags_threshold":
		return s.handleTagsThreshold(args)
	case "tags_codebook":
		return s.handleTagsCodebook(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; absent arguments decode as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Frame Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

type dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

type imageChannelsArgs struct {
	Path string `json:"path"`
	X1   *int   `json:"x1"`
	Y1   *int   `json:"y1"`
	X2   *int   `json:"x2"`
	Y2   *int   `json:"y2"`
}

// region returns nil when no corner is given and an error when only some are.
func (a imageChannelsArgs) region() (*config.Rect, error) {
	set := 0
	for _, v := range []*int{a.X1, a.Y1, a.X2, a.Y2} {
		if v != nil {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case 4:
		return &config.Rect{X1: *a.X1, Y1: *a.Y1, X2: *a.X2, Y2: *a.Y2}, nil
	default:
		return nil, fmt.Errorf("region needs all of x1, y1, x2, y2")
	}
}

func (s *Server) handleImageChannels(args json.RawMessage) (interface{}, error) {
	var a imageChannelsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	region, err := a.region()
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CompareChannels(img, region)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &dimensions{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

// === Tag Decoding Handlers ===

type tagsDecodeArgs struct {
	Path       string `json:"path"`
	Population string `json:"population"`
	Channel    string `json:"channel"`
	Offsets    []int  `json:"offsets"`
	SweepMode  string `json:"sweep_mode"`
}

// overrides reports whether a carries per-call settings, and applies them.
func (a *tagsDecodeArgs) overrides(cfg *config.Config) bool {
	changed := false
	if a.Channel != "" {
		cfg.Channel = a.Channel
		changed = true
	}
	if len(a.Offsets) > 0 {
		cfg.Offsets = append([]int(nil), a.Offsets...)
		changed = true
	}
	if a.SweepMode != "" {
		cfg.SweepMode = a.SweepMode
		changed = true
	}
	return changed
}

type tagsDecodeResult struct {
	Path       string             `json:"path"`
	Population string             `json:"population"`
	Time       *time.Time         `json:"time,omitempty"`
	Offset     int                `json:"offset"`
	Passes     int                `json:"passes"`
	Records    []detection.Record `json:"records"`
}

func (s *Server) handleTagsDecode(args json.RawMessage) (interface{}, error) {
	var a tagsDecodeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.decode(&a)
	if err != nil {
		return nil, err
	}

	out := &tagsDecodeResult{
		Path:       a.Path,
		Population: res.Frame.Population,
		Offset:     res.Offset,
		Passes:     res.Passes,
		Records:    res.Records(),
	}
	if !res.Frame.Time.IsZero() {
		t := res.Frame.Time
		out.Time = &t
	}
	return out, nil
}

type tagsOverlayArgs struct {
	Path       string `json:"path"`
	Population string `json:"population"`
	Outline    string `json:"outline"`
	Labels     *bool  `json:"labels"`
}

func (s *Server) handleTagsOverlay(args json.RawMessage) (interface{}, error) {
	var a tagsOverlayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	opts := annotate.DefaultOptions()
	if a.Outline != "" {
		opts.Outline = a.Outline
	}
	if a.Labels != nil {
		opts.Labels = *a.Labels
	}

	res, err := s.decode(&tagsDecodeArgs{Path: a.Path, Population: a.Population})
	if err != nil {
		return nil, err
	}
	drawn, err := annotate.DrawResult(res, opts)
	if err != nil {
		return nil, err
	}
	return annotate.Encode(drawn, len(res.Detections))
}

type tagsThresholdArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
}

type tagsThresholdResult struct {
	imaging.EncodedImage
	Offset int `json:"offset"`
}

func (s *Server) handleTagsThreshold(args json.RawMessage) (interface{}, error) {
	var a tagsThresholdArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	cfg := s.decoders.Config()

	frame, err := s.prepare(cfg, a.Path)
	if err != nil {
		return nil, err
	}
	gray, err := imaging.Grayscale(frame.Image, cfg.Channel)
	if err != nil {
		return nil, err
	}
	if cfg.SmoothRadius > 0 {
		gray = imaging.Smooth(gray, cfg.SmoothRadius)
	}
	bin, err := imaging.AdaptiveThreshold(gray, cfg.BlockSize, a.Offset)
	if err != nil {
		return nil, err
	}

	enc, err := imaging.EncodePNG(bin)
	if err != nil {
		return nil, err
	}
	return &tagsThresholdResult{EncodedImage: *enc, Offset: a.Offset}, nil
}

type tagsCodebookArgs struct {
	Population string `json:"population"`
}

type tagsCodebookResult struct {
	Population string `json:"population,omitempty"`
	TagSize    int    `json:"tag_size"`
	IDs        []int  `json:"ids"`
}

func (s *Server) handleTagsCodebook(args json.RawMessage) (interface{}, error) {
	var a tagsCodebookArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	book := s.decoders.Codebook()
	filter := codebook.All
	if a.Population != "" {
		filter = s.decoders.Filter(a.Population)
	}

	ids := []int{}
	for _, id := range book.IDs() {
		if filter.Admits(id) {
			ids = append(ids, id)
		}
	}
	return &tagsCodebookResult{Population: a.Population, TagSize: book.TagSize(), IDs: ids}, nil
}

// decode runs the decoder on one cached frame.
func (s *Server) decode(a *tagsDecodeArgs) (*detection.Result, error) {
	pop := a.Population
	if pop == "" {
		pop = batch.PopulationFromPath(a.Path)
	}

	cfg := s.decoders.Config()
	var dec *detection.Decoder
	var err error

	local := *cfg
	if a.overrides(&local) {
		cfg = &local
		m, err := s.decoders.Codebook().Restrict(s.decoders.Filter(pop), codebook.RenderOptionsFrom(cfg))
		if err != nil {
			return nil, err
		}
		if dec, err = detection.NewDecoder(cfg, m); err != nil {
			return nil, err
		}
	} else if dec, err = s.decoders.For(pop); err != nil {
		return nil, err
	}

	frame, err := s.prepare(cfg, a.Path)
	if err != nil {
		return nil, err
	}
	frame.Population = pop
	if ts, err := batch.ParseTimestamp(a.Path); err == nil {
		frame.Time = ts
	}
	return dec.Decode(frame)
}

// prepare loads path through the cache, scales it for its camera and
// applies the region of interest.
func (s *Server) prepare(cfg *config.Config, path string) (detection.Frame, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return detection.Frame{}, err
	}
	return batch.PrepareFrame(cfg, imaging.Scale(img, cfg.ResizeFor(path)))
}
