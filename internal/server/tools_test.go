package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"ocr_extract_regions",
		"layout_group_detections",
		"coordinates_rescale",
		"image_dimensions",
		"region_crop",
		"ocr_engine_info",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing properties")
			}

			// Every required field must be a declared property.
			if req, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range req {
					if _, ok := props[r]; !ok {
						t.Errorf("required field %s has no property", r)
					}
				}
			}

			// Schemas must serialize for tools/list.
			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_RequiredFields(t *testing.T) {
	want := map[string][]string{
		"ocr_extract_regions":     {"path"},
		"layout_group_detections": {"detections"},
		"image_dimensions":        {"path"},
		"region_crop":             {"path", "x", "y", "width", "height"},
	}

	for _, tool := range GetToolDefinitions() {
		expected, ok := want[tool.Name]
		if !ok {
			continue
		}
		got, _ := tool.InputSchema["required"].([]string)
		if len(got) != len(expected) {
			t.Errorf("%s required: got %v, want %v", tool.Name, got, expected)
			continue
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("%s required: got %v, want %v", tool.Name, got, expected)
			}
		}
	}
}

func TestToolDefinitions_EnumsMatchParsers(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != "layout_group_detections" {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})

		strategy := props["merge_strategy"].(map[string]interface{})
		if got := strategy["enum"].([]string); len(got) != 3 {
			t.Errorf("merge_strategy enum: got %v", got)
		}
		mode := props["json_mode"].(map[string]interface{})
		if got := mode["enum"].([]string); len(got) != 2 {
			t.Errorf("json_mode enum: got %v", got)
		}
	}
}
