// Package server implements the MCP (Model Context Protocol) server for tag
// decoding tools.
//
// The server lets an operator, or an AI assistant acting for one, inspect
// field frames interactively: decode a single frame with adjusted settings,
// look at the binarized image a threshold offset produces, and overlay the
// decoded tags on the frame to check them by eye.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frame information:
//   - image_load: Load a frame and report its metadata
//   - image_dimensions: Get width and height
//   - image_channels: Compare grayscale channel policies over a region
//
// Tag decoding:
//   - tags_decode: Decode one frame and return its records
//   - tags_overlay: Decode one frame and return it annotated as PNG
//   - tags_threshold: Return the binarized frame for one offset as PNG
//   - tags_codebook: List the tag IDs admitted for a population
//
// # Image Caching
//
// Frames are cached by path at native resolution and reused across tool
// calls. Scaling and region-of-interest cropping are applied per call, so a
// cached frame serves every configuration.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	decoders, err := batch.NewDecoderSet(cfg, book, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(decoders).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
