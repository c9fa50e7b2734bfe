package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame information
		{
			Name:        "image_load",
			Description: "Load a frame file and return its dimensions, format and whether the decoder can read its pixel layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the native width and height of a frame file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_channels",
			Description: "Compare the grayscale channel policies (green, red, blue, none) over a frame region and recommend the one with the widest intensity spread. Use a region around a tag for a useful answer.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame file",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge of the region (inclusive)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge of the region (inclusive)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge of the region (exclusive). Omit all four for the whole frame",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge of the region (exclusive)",
					},
				},
				"required": []string{"path"},
			},
		},

		// Tag decoding
		{
			Name:        "tags_decode",
			Description: "Decode the fiducial tags in one frame. Returns one record per tag (id, confidence, centre, orientation) and the threshold offset that found them. Optional arguments override the configured grayscale channel, offset sweep and sweep mode for this call only.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame file",
					},
					"population": map[string]interface{}{
						"type":        "string",
						"description": "Population label (e.g. P2) selecting the admissible tag IDs. Default: taken from the directory path",
					},
					"channel": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"blue", "green", "red", "none"},
						"description": "Grayscale channel. Default from configuration (green)",
					},
					"offsets": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Threshold offsets to sweep, in order. Default [-70, -50, -30, -10, 0, 2]",
					},
					"sweep_mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"first", "best"},
						"description": "first: stop at the first offset with a detection. best: keep the offset with the most detections",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tags_overlay",
			Description: "Decode one frame and return it as base64-encoded PNG with each tag outlined, its reference edge highlighted and its ID printed. Use this to check decoded IDs and orientations by eye.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame file",
					},
					"population": map[string]interface{}{
						"type":        "string",
						"description": "Population label. Default: taken from the directory path",
					},
					"outline": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (e.g. #00FF00). Default: #00FF00",
						"default":     "#00FF00",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Print tag IDs. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tags_threshold",
			Description: "Return the binarized frame the decoder sees at one threshold offset, as base64-encoded PNG. White regions are candidate tag interiors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame file",
					},
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "Threshold offset subtracted from the local mean. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tags_codebook",
			Description: "List the tag IDs a population decodes against. Without a population, list the whole codebook.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"population": map[string]interface{}{
						"type":        "string",
						"description": "Population label (e.g. P2)",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
