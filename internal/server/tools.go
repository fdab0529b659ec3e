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
		// Lifecycle
		{
			Name:        "view_load",
			Description: "Load an image file and compute every derived view. Replaces the previous views only if all of them compute; selects the default view.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the image file (PNG, JPEG, GIF, BMP, TIFF). A leading ~ is expanded",
					},
					"view": map[string]interface{}{
						"type":        "string",
						"description": "Optional view to select after loading",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "view_unload",
			Description: "Drop every view and the loaded source.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "view_list",
			Description: "List the views present, the current view and the highlight and reduce parameters.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Selection and Reconfiguration
		{
			Name:        "view_select",
			Description: "Make a view current. Never recomputes anything.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"description": "View name to display",
					},
				},
				"required": []string{"view"},
			},
		},
		{
			Name:        "view_highlight",
			Description: "Recompute the highlight view as source - threshold*edges.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Edge attenuation factor. 0 reproduces the source",
					},
				},
				"required": []string{"threshold"},
			},
		},
		{
			Name:        "view_reduce",
			Description: "Recompute the reduce view with a new palette size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"colors": map[string]interface{}{
						"type":        "integer",
						"description": "Number of palette colors, at least 1",
						"minimum":     1,
					},
				},
				"required": []string{"colors"},
			},
		},

		// Display
		{
			Name:        "view_render",
			Description: "Render a view as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"description": "View name (original, edges, highlight, pixelate, grey, gauss, median, reduce, otsu, ohbuchi). Defaults to the current view",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},
		{
			Name:        "view_gallery",
			Description: "Render every present view as a labeled contact sheet, in display order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"thumb_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of each thumbnail in pixels. Default 160",
						"default":     160,
					},
					"columns": map[string]interface{}{
						"type":        "integer",
						"description": "Thumbnails per row. Default picks a near square layout",
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Background color as #RRGGBB. Default dark gray",
					},
				},
			},
		},
		{
			Name:        "view_sample_color",
			Description: "Get the color of a view at a pixel. (0,0) is the bottom-left pixel and y grows upward.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"description": "View name (original, edges, highlight, pixelate, grey, gauss, median, reduce, otsu, ohbuchi). Defaults to the current view",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from the left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from the bottom)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "view_sample_colors_multi",
			Description: "Sample the colors of a view at several pixels in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"description": "View name (original, edges, highlight, pixelate, grey, gauss, median, reduce, otsu, ohbuchi). Defaults to the current view",
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points to sample, bottom-left origin",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "view_dominant_colors",
			Description: "List the most common colors of a view.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"description": "View name (original, edges, highlight, pixelate, grey, gauss, median, reduce, otsu, ohbuchi). Defaults to the current view",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
				},
			},
		},
		{
			Name:        "view_compare",
			Description: "Compare two views pixel by pixel and report how much they differ.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view_a": map[string]interface{}{
						"type":        "string",
						"description": "First view name",
					},
					"view_b": map[string]interface{}{
						"type":        "string",
						"description": "Second view name",
					},
				},
				"required": []string{"view_a", "view_b"},
			},
		},

		// Files
		{
			Name:        "view_save",
			Description: "Write a view to an image file. The format follows the extension (.png, .jpg, .gif, .bmp, .tif).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"description": "View name (original, edges, highlight, pixelate, grey, gauss, median, reduce, otsu, ohbuchi). Defaults to the current view",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Output path. A leading ~ is expanded",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "view_export",
			Description: "Write every present view to a directory as <view>.<format>.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Output directory, created if missing",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"description": "File extension: png, jpg, gif, bmp or tif. Default png",
						"default":     "png",
					},
				},
				"required": []string{"dir"},
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
