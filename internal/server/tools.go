package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func schema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func propDefault(typ, description string, def interface{}) map[string]interface{} {
	p := prop(typ, description)
	p["default"] = def
	return p
}

func propEnum(description string, values ...string) map[string]interface{} {
	p := prop("string", description)
	p["enum"] = values
	return p
}

var jsonModeProp = propEnum("Page record shape: with_text keeps region text and page text, boxes_only keeps geometry", "with_text", "boxes_only")

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Extraction
		{
			Name:        "ocr_extract_regions",
			Description: "Run OCR and barcode decoding on an image or PDF and return one page record per page: merged text regions with corners, followed by barcode regions. Coordinates are in the processed raster's pixels; use coordinates_rescale to map them onto the original.",
			InputSchema: schema(map[string]interface{}{
				"path":      prop("string", "Absolute path to the image or PDF file"),
				"json_mode": jsonModeProp,
			}, "path"),
		},
		{
			Name:        "layout_group_detections",
			Description: "Group raw OCR word detections into lines and merge the lines into text regions. Each detection is {quad: [[x,y]x4], text, confidence} or a barcode {rect: [x,y,w,h], payload, symbology}.",
			InputSchema: schema(map[string]interface{}{
				"detections": map[string]interface{}{
					"type":        "array",
					"description": "Word and barcode detections in page pixel coordinates",
					"items":       map[string]interface{}{"type": "object"},
				},
				"page":                   propDefault("integer", "1-based page number", 1),
				"engine":                 propEnum("Confidence scale of the detections (tesseract 0-100, easyocr 0-1)", "tesseract", "easyocr"),
				"confidence_threshold":   prop("number", "Override the engine's confidence threshold"),
				"line_threshold":         prop("number", "Maximum vertical center distance for words on one line"),
				"max_horizontal_gap":     prop("number", "Maximum horizontal gap between words on one line, and between merged regions"),
				"merge_threshold":        prop("number", "Distance within which regions are merged"),
				"merge_max_vertical_gap": prop("number", "Maximum vertical gap between merged regions"),
				"merge_strategy":         propEnum("Merge pass behaviour", "restart", "sweep", "components"),
				"json_mode":              jsonModeProp,
			}, "detections"),
		},

		// Coordinates
		{
			Name:        "coordinates_rescale",
			Description: "Rescale a page record from processed-raster pixels to original-image pixels. Give either explicit dimensions or file paths; PDFs are measured at 300 dpi on their first page. With page_json and both paths, the result is also written next to page_json.",
			InputSchema: schema(map[string]interface{}{
				"record":           map[string]interface{}{"type": "object", "description": "Page record {page, boxes, text?}"},
				"page_json":        prop("string", "Path to a page record file, used when record is omitted"),
				"original_path":    prop("string", "Original image or PDF"),
				"processed_path":   prop("string", "Processed raster the record was extracted from"),
				"original_width":   prop("integer", "Original width in pixels"),
				"original_height":  prop("integer", "Original height in pixels"),
				"processed_width":  prop("integer", "Processed width in pixels"),
				"processed_height": prop("integer", "Processed height in pixels"),
			}),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file, or of a PDF's first page rendered at 300 dpi.",
			InputSchema: schema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image or PDF file"),
			}, "path"),
		},

		// Regions
		{
			Name:        "region_crop",
			Description: "Crop a region box from an image and return it as base64-encoded PNG. Fractional boxes are widened to whole pixels.",
			InputSchema: schema(map[string]interface{}{
				"path":    prop("string", "Absolute path to the image file"),
				"x":       prop("number", "Left edge"),
				"y":       prop("number", "Top edge"),
				"width":   prop("number", "Box width"),
				"height":  prop("number", "Box height"),
				"padding": propDefault("integer", "Pixels added on every side", 0),
				"scale":   propDefault("number", "Scale factor for the crop", 1.0),
				"recognize": propDefault("boolean",
					"Also run text recognition on the cropped area (tesseract engine only); quads are in full-image coordinates", false),
			}, "path", "x", "y", "width", "height"),
		},

		// Engine
		{
			Name:        "ocr_engine_info",
			Description: "Report the OCR engine, its version, languages and the active layout settings.",
			InputSchema: schema(map[string]interface{}{}),
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
