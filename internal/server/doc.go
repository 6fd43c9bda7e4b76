// Package server implements the MCP (Model Context Protocol) server for the
// OCR layout tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with protocol output.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Extraction:
//   - ocr_extract_regions: OCR and barcode decoding of an image or PDF into page records
//   - layout_group_detections: line grouping and region merging of caller-supplied detections
//
// Coordinates:
//   - coordinates_rescale: map a page record from processed-raster to original pixels
//   - image_dimensions: size of an image, or of a PDF's first page at 300 dpi
//
// Regions:
//   - region_crop: crop a region box as base64 PNG
//
// Engine:
//   - ocr_engine_info: recognizer version and active layout settings
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A page that fails during ocr_extract_regions does not fail the call; it is
// listed under "failed" in the result.
//
// # Usage
//
//	proc, _ := pipeline.New(cfg, pipeline.WithLogger(log))
//	srv := server.New(proc, nil, log)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
