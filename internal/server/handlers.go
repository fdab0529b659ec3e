package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/ironsheep/image-views/internal/imaging"
	"github.com/ironsheep/image-views/internal/raster"
	"github.com/ironsheep/image-views/internal/viewset"
)

// errInvalidArgs marks arguments that could not be decoded.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "view_load", "view_select").
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
// Invalid arguments, unknown views and out-of-domain parameters return
// code -32602. Every other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	entry := s.log.WithField("tool", params.Name).WithField("elapsed", time.Since(start).String())
	if err != nil {
		entry.WithError(err).Debug("tool failed")
		if isInvalidParams(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("tool done")

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

func isInvalidParams(err error) bool {
	return errors.Is(err, errInvalidArgs) ||
		errors.Is(err, viewset.ErrInvalidParameter) ||
		errors.Is(err, viewset.ErrUnknownView)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Lifecycle
	case "view_load":
		return s.handleViewLoad(args)
	case "view_unload":
		return s.handleViewUnload(args)
	case "view_list":
		return s.handleViewList(args)

	// Selection and reconfiguration
	case "view_select":
		return s.handleViewSelect(args)
	case "view_highlight":
		return s.handleViewHighlight(args)
	case "view_reduce":
		return s.handleViewReduce(args)

	// Display
	case "view_render":
		return s.handleViewRender(args)
	case "view_gallery":
		return s.handleViewGallery(args)
	case "view_sample_color":
		return s.handleViewSampleColor(args)
	case "view_sample_colors_multi":
		return s.handleViewSampleColorsMulti(args)
	case "view_dominant_colors":
		return s.handleViewDominantColors(args)
	case "view_compare":
		return s.handleViewCompare(args)

	// Files
	case "view_save":
		return s.handleViewSave(args)
	case "view_export":
		return s.handleViewExport(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// expandPath resolves a leading "~" to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return p, nil
}

// resolveView returns the named view, or the current view when name is empty.
func (s *Server) resolveView(name string) (viewset.Name, *raster.Image, error) {
	if !s.views.Loaded() {
		return 0, nil, viewset.ErrNotLoaded
	}
	if name == "" {
		n, img, _ := s.views.Current()
		return n, img, nil
	}
	n, err := viewset.ParseName(name)
	if err != nil {
		return 0, nil, err
	}
	img, err := s.views.View(n)
	if err != nil {
		return 0, nil, err
	}
	return n, img, nil
}

// entries lists every present view, in display order.
func (s *Server) entries() []imaging.Entry {
	names := s.views.Names()
	out := make([]imaging.Entry, 0, len(names))
	for _, n := range names {
		img, _ := s.views.View(n)
		out = append(out, imaging.Entry{Name: n.String(), Image: img})
	}
	return out
}

// === Lifecycle Handlers ===

// StatusResult describes the view set after a tool call.
type StatusResult struct {
	Loaded       bool           `json:"loaded"`
	Source       string         `json:"source,omitempty"`
	Width        int            `json:"width,omitempty"`
	Height       int            `json:"height,omitempty"`
	Level        string         `json:"level"`
	Views        []viewset.Name `json:"views"`
	Current      *viewset.Name  `json:"current,omitempty"`
	Threshold    float64        `json:"highlight_threshold"`
	ReduceColors int            `json:"reduce_colors"`
}

func (s *Server) status() *StatusResult {
	w, h := s.views.Size()
	res := &StatusResult{
		Loaded:       s.views.Loaded(),
		Source:       s.source,
		Width:        w,
		Height:       h,
		Level:        s.views.Options().Level.String(),
		Views:        s.views.Names(),
		Threshold:    s.views.Threshold(),
		ReduceColors: s.views.ReduceColors(),
	}
	if n, _, ok := s.views.Current(); ok {
		res.Current = &n
	}
	return res
}

// LoadResult is returned by view_load.
type LoadResult struct {
	File *imaging.ImageInfo `json:"file"`
	*StatusResult
}

type viewLoadArgs struct {
	Path string `json:"path"`
	View string `json:"view"`
}

func (s *Server) handleViewLoad(args json.RawMessage) (interface{}, error) {
	var a viewLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := expandPath(a.Path)
	if err != nil {
		return nil, err
	}
	selected := s.views.Options().DefaultView
	if a.View != "" {
		if selected, err = viewset.ParseName(a.View); err != nil {
			return nil, err
		}
		if !s.views.Options().Level.Includes(selected) {
			return nil, fmt.Errorf("%w: %s is not computed at level %s",
				viewset.ErrUnknownView, selected, s.views.Options().Level)
		}
	}

	info, err := imaging.LoadImageInfo(s.cache, path)
	if err != nil {
		return nil, err
	}
	src, err := s.cache.Raster(path)
	if err != nil {
		return nil, err
	}
	if err := s.views.LoadView(src, selected); err != nil {
		return nil, err
	}
	s.source = path
	return &LoadResult{File: info, StatusResult: s.status()}, nil
}

func (s *Server) handleViewUnload(json.RawMessage) (interface{}, error) {
	s.views.Unload()
	if s.source != "" {
		s.cache.Evict(s.source)
	}
	s.source = ""
	return s.status(), nil
}

func (s *Server) handleViewList(json.RawMessage) (interface{}, error) {
	return s.status(), nil
}

// === Selection and Reconfiguration Handlers ===

type viewSelectArgs struct {
	View string `json:"view"`
}

func (s *Server) handleViewSelect(args json.RawMessage) (interface{}, error) {
	var a viewSelectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	n, err := viewset.ParseName(a.View)
	if err != nil {
		return nil, err
	}
	if err := s.views.SelectView(n); err != nil {
		return nil, err
	}
	return s.status(), nil
}

type viewHighlightArgs struct {
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleViewHighlight(args json.RawMessage) (interface{}, error) {
	var a viewHighlightArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == nil {
		return nil, fmt.Errorf("%w: threshold is required", errInvalidArgs)
	}
	if err := s.views.ReconfigureHighlight(*a.Threshold); err != nil {
		return nil, err
	}
	return s.status(), nil
}

type viewReduceArgs struct {
	Colors *int `json:"colors"`
}

func (s *Server) handleViewReduce(args json.RawMessage) (interface{}, error) {
	var a viewReduceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Colors == nil {
		return nil, fmt.Errorf("%w: colors is required", errInvalidArgs)
	}
	if err := s.views.ReconfigureReduce(*a.Colors); err != nil {
		return nil, err
	}
	return s.status(), nil
}

// === Display Handlers ===

// ViewRenderResult is an encoded view.
type ViewRenderResult struct {
	View viewset.Name `json:"view"`
	*imaging.RenderResult
}

type viewRenderArgs struct {
	View  string  `json:"view"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleViewRender(args json.RawMessage) (interface{}, error) {
	var a viewRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	n, img, err := s.resolveView(a.View)
	if err != nil {
		return nil, err
	}
	res, err := imaging.Render(img, a.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return &ViewRenderResult{View: n, RenderResult: res}, nil
}

type viewGalleryArgs struct {
	ThumbSize  int    `json:"thumb_size"`
	Columns    int    `json:"columns"`
	Background string `json:"background"`
}

func (s *Server) handleViewGallery(args json.RawMessage) (interface{}, error) {
	var a viewGalleryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if !s.views.Loaded() {
		return nil, viewset.ErrNotLoaded
	}
	return imaging.RenderGallery(s.entries(), imaging.GalleryOptions{
		ThumbSize:  a.ThumbSize,
		Columns:    a.Columns,
		Background: a.Background,
	})
}

type viewSampleColorArgs struct {
	View string `json:"view"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleViewSampleColor(args json.RawMessage) (interface{}, error) {
	var a viewSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, img, err := s.resolveView(a.View)
	if err != nil {
		return nil, err
	}
	res, err := imaging.SampleColor(img, a.X, a.Y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return res, nil
}

type viewSampleColorsMultiArgs struct {
	View   string `json:"view"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleViewSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a viewSampleColorsMultiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, img, err := s.resolveView(a.View)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	res, err := imaging.SampleColorsMulti(img, points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return res, nil
}

type viewDominantColorsArgs struct {
	View  string `json:"view"`
	Count int    `json:"count"`
}

func (s *Server) handleViewDominantColors(args json.RawMessage) (interface{}, error) {
	var a viewDominantColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	_, img, err := s.resolveView(a.View)
	if err != nil {
		return nil, err
	}
	res, err := imaging.DominantColors(img, a.Count)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return res, nil
}

type viewCompareArgs struct {
	A string `json:"view_a"`
	B string `json:"view_b"`
}

func (s *Server) handleViewCompare(args json.RawMessage) (interface{}, error) {
	var a viewCompareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.A == "" || a.B == "" {
		return nil, fmt.Errorf("%w: view_a and view_b are required", errInvalidArgs)
	}
	_, imgA, err := s.resolveView(a.A)
	if err != nil {
		return nil, err
	}
	_, imgB, err := s.resolveView(a.B)
	if err != nil {
		return nil, err
	}
	return imaging.CompareViews(imgA, imgB)
}

// === File Handlers ===

// SaveResult lists the files written by view_save and view_export.
type SaveResult struct {
	Files []string `json:"files"`
}

type viewSaveArgs struct {
	View string `json:"view"`
	Path string `json:"path"`
}

func (s *Server) handleViewSave(args json.RawMessage) (interface{}, error) {
	var a viewSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := expandPath(a.Path)
	if err != nil {
		return nil, err
	}
	_, img, err := s.resolveView(a.View)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(img, path); err != nil {
		return nil, err
	}
	return &SaveResult{Files: []string{path}}, nil
}

type viewExportArgs struct {
	Dir    string `json:"dir"`
	Format string `json:"format"`
}

func (s *Server) handleViewExport(args json.RawMessage) (interface{}, error) {
	var a viewExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = "png"
	}
	dir, err := expandPath(a.Dir)
	if err != nil {
		return nil, err
	}
	if !s.views.Loaded() {
		return nil, viewset.ErrNotLoaded
	}
	files, err := imaging.SaveAll(s.entries(), dir, a.Format)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Files: files}, nil
}
