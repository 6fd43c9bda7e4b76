package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/imaging"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
	"github.com/ironsheep/ocr-layout-mcp/internal/ocr"
	"github.com/ironsheep/ocr-layout-mcp/internal/rescale"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ocr_extract_regions").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.WithError(err).Warnw("Tool failed", "tool", params.Name)
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "ocr_extract_regions":
		return s.handleExtractRegions(ctx, args)
	case "layout_group_detections":
		return s.handleGroupDetections(args)
	case "coordinates_rescale":
		return s.handleRescale(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "region_crop":
		return s.handleRegionCrop(ctx, args)
	case "ocr_engine_info":
		return s.handleEngineInfo()
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

// === Extraction ===

type extractArgs struct {
	Path     string `json:"path"`
	JSONMode string `json:"json_mode"`
}

type pageFailure struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

type extractResult struct {
	Source    string         `json:"source"`
	OutputDir string         `json:"output_dir"`
	Pages     []*layout.Page `json:"pages"`
	Failed    []pageFailure  `json:"failed,omitempty"`
}

func (s *Server) handleExtractRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	mode := s.processor.Config().Mode()
	if a.JSONMode != "" {
		m, err := layout.ParseJSONMode(a.JSONMode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	res, err := s.processor.ProcessDocument(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	out := &extractResult{
		Source:    res.Source,
		OutputDir: s.processor.Config().OutputDir,
		Pages:     make([]*layout.Page, 0, len(res.Pages)),
	}
	for _, pr := range res.Pages {
		if pr.Err != nil {
			out.Failed = append(out.Failed, pageFailure{Page: pr.Page, Error: pr.Err.Error()})
			continue
		}
		out.Pages = append(out.Pages, layout.NewPage(pr.Page, pr.Regions, mode))
	}
	return out, nil
}

// === Layout ===

type groupArgs struct {
	Detections          json.RawMessage `json:"detections"`
	Page                int             `json:"page"`
	Engine              string          `json:"engine"`
	ConfidenceThreshold *float64        `json:"confidence_threshold"`
	LineThreshold       *float64        `json:"line_threshold"`
	MaxHorizontalGap    *float64        `json:"max_horizontal_gap"`
	MergeThreshold      *float64        `json:"merge_threshold"`
	MergeMaxVerticalGap *float64        `json:"merge_max_vertical_gap"`
	MergeStrategy       string          `json:"merge_strategy"`
	JSONMode            string          `json:"json_mode"`
}

// engine returns a copy of the server's layout engine with the call's
// overrides applied.
func (a *groupArgs) engine(base layout.Engine) (*layout.Engine, error) {
	e := base
	if a.Engine != "" {
		p, ok := layout.ProfileByName(a.Engine)
		if !ok {
			return nil, fmt.Errorf("unknown engine %q", a.Engine)
		}
		e.Profile = p
	}
	if a.ConfidenceThreshold != nil {
		e.Profile.Threshold = *a.ConfidenceThreshold
	}
	if a.LineThreshold != nil {
		e.Group.LineThreshold = *a.LineThreshold
	}
	if a.MaxHorizontalGap != nil {
		e.Group.MaxHorizontalGap = *a.MaxHorizontalGap
		e.Merge.MaxHorizontalGap = *a.MaxHorizontalGap
	}
	if a.MergeThreshold != nil {
		e.Merge.Threshold = *a.MergeThreshold
	}
	if a.MergeMaxVerticalGap != nil {
		e.Merge.MaxVerticalGap = *a.MergeMaxVerticalGap
	}
	if a.MergeStrategy != "" {
		st, err := layout.ParseMergeStrategy(a.MergeStrategy)
		if err != nil {
			return nil, err
		}
		e.Merge.Strategy = st
	}
	return &e, nil
}

func (s *Server) handleGroupDetections(args json.RawMessage) (interface{}, error) {
	var a groupArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Detections) == 0 {
		return nil, fmt.Errorf("detections is required")
	}
	if a.Page == 0 {
		a.Page = 1
	}

	mode := s.processor.Config().Mode()
	if a.JSONMode != "" {
		m, err := layout.ParseJSONMode(a.JSONMode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	engine, err := a.engine(*s.processor.Engine())
	if err != nil {
		return nil, err
	}

	dets, barcodes, err := layout.ParseDetections(a.Detections)
	if err != nil {
		return nil, err
	}
	return engine.BuildPage(a.Page, dets, barcodes, mode)
}

// === Coordinates ===

type rescaleArgs struct {
	Record          *layout.Page `json:"record"`
	PageJSON        string       `json:"page_json"`
	OriginalPath    string       `json:"original_path"`
	ProcessedPath   string       `json:"processed_path"`
	OriginalWidth   int          `json:"original_width"`
	OriginalHeight  int          `json:"original_height"`
	ProcessedWidth  int          `json:"processed_width"`
	ProcessedHeight int          `json:"processed_height"`
}

func (s *Server) handleRescale(args json.RawMessage) (interface{}, error) {
	var a rescaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	// The file-based flow also persists the rescaled record.
	if a.Record == nil && a.PageJSON != "" && a.OriginalPath != "" && a.ProcessedPath != "" {
		res, err := s.processor.RescaleToOriginal(a.OriginalPath, a.ProcessedPath, a.PageJSON)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	rec := a.Record
	if rec == nil {
		if a.PageJSON == "" {
			return nil, fmt.Errorf("record or page_json is required")
		}
		data, err := os.ReadFile(a.PageJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to read page record: %w", err)
		}
		if rec, err = rescale.ParsePage(data); err != nil {
			return nil, err
		}
	}

	original := rescale.Dimensions{Width: a.OriginalWidth, Height: a.OriginalHeight}
	processed := rescale.Dimensions{Width: a.ProcessedWidth, Height: a.ProcessedHeight}
	var err error
	if a.OriginalPath != "" {
		if original, err = rescale.FileDimensions(a.OriginalPath); err != nil {
			return nil, err
		}
	}
	if a.ProcessedPath != "" {
		if processed, err = rescale.FileDimensions(a.ProcessedPath); err != nil {
			return nil, err
		}
	}

	return rescale.RescalePage(rec, original, processed)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return rescale.FileDimensions(a.Path)
}

// === Regions ===

type cropArgs struct {
	Path    string  `json:"path"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`

	Recognize bool `json:"recognize"`
}

type cropResult struct {
	*imaging.CropResult
	Detections []layout.Detection `json:"detections,omitempty"`
}

func (s *Server) handleRegionCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	box := geometry.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
	crop, err := imaging.CropBox(img, box, a.Padding, a.Scale)
	if err != nil {
		return nil, err
	}
	if !a.Recognize {
		return crop, nil
	}

	cfg := s.processor.Config()
	if cfg.Engine != layout.ProfileTesseract.Name {
		return nil, fmt.Errorf("recognize is not available for engine %q", cfg.Engine)
	}
	// Quads come back in the coordinates of the full image.
	dets, err := ocr.NewTesseract(cfg.Languages).RecognizeRegion(ctx, img, imaging.PixelRect(box, a.Padding, img.Bounds()))
	if err != nil {
		return nil, err
	}
	return &cropResult{CropResult: crop, Detections: dets}, nil
}

// === Engine ===

type engineInfo struct {
	Engine        string              `json:"engine"`
	OCR           *ocr.Info           `json:"ocr,omitempty"`
	Threshold     float64             `json:"confidence_threshold"`
	MaxConfidence float64             `json:"max_confidence"`
	Group         layout.GroupOptions `json:"grouping"`
	Merge         layout.MergeOptions `json:"merge"`
	JSONMode      layout.JSONMode     `json:"json_mode"`
	Resolution    map[string]int      `json:"resolution"`
}

func (s *Server) handleEngineInfo() (interface{}, error) {
	cfg := s.processor.Config()
	e := s.processor.Engine()

	info := &engineInfo{
		Engine:        e.Profile.Name,
		Threshold:     e.Profile.Threshold,
		MaxConfidence: e.Profile.MaxConfidence,
		Group:         e.Group,
		Merge:         e.Merge,
		JSONMode:      cfg.Mode(),
		Resolution: map[string]int{
			"conversion_dpi": cfg.ConversionDPI,
			"render_dpi":     cfg.RenderDPI,
		},
	}
	if cfg.Engine == layout.ProfileTesseract.Name {
		oi := ocr.NewTesseract(cfg.Languages).Info()
		info.OCR = &oi
	}
	return info, nil
}
