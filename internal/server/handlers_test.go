package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/image-views/internal/config"
	"github.com/ironsheep/image-views/internal/viewset"
)

// writeTestPNG writes a PNG with a white right half and a black left half.
func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= width/2 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	return s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: raw})
}

// mustCall runs a tool that must succeed and decodes its text result.
func mustCall(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s failed: %s: %v", name, resp.Error.Message, resp.Error.Data)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	text := content[0]["text"].(string)
	if out != nil {
		if err := json.Unmarshal([]byte(text), out); err != nil {
			t.Fatalf("%s: invalid result %q: %v", name, text, err)
		}
	}
}

// callError runs a tool that must fail and returns the error code.
func callError(t *testing.T, s *Server, name string, args interface{}) int {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s should fail", name)
	}
	return resp.Error.Code
}

type statusJSON struct {
	Loaded       bool     `json:"loaded"`
	Source       string   `json:"source"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Level        string   `json:"level"`
	Views        []string `json:"views"`
	Current      string   `json:"current"`
	Threshold    float64  `json:"highlight_threshold"`
	ReduceColors int      `json:"reduce_colors"`
}

func loadedServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := newTestServer(t)
	path := writeTestPNG(t, 12, 9)
	mustCall(t, s, "view_load", map[string]interface{}{"path": path}, nil)
	s.drainNotifications()
	return s, path
}

func TestViewLoad(t *testing.T) {
	s := newTestServer(t)
	path := writeTestPNG(t, 12, 9)

	var res struct {
		File struct {
			Format string `json:"format"`
			Width  int    `json:"width"`
		} `json:"file"`
		statusJSON
	}
	mustCall(t, s, "view_load", map[string]interface{}{"path": path, "view": "highlight"}, &res)

	if !res.Loaded || res.Source != path {
		t.Errorf("unexpected status: %+v", res.statusJSON)
	}
	if res.File.Format != "png" || res.File.Width != 12 {
		t.Errorf("file info: got %+v", res.File)
	}
	if res.Width != 12 || res.Height != 9 {
		t.Errorf("size: got %dx%d", res.Width, res.Height)
	}
	if len(res.Views) != 10 || res.Views[0] != "original" {
		t.Errorf("views: got %v", res.Views)
	}
	if res.Current != "highlight" {
		t.Errorf("current: got %s, want highlight", res.Current)
	}
	if res.Level != "full" {
		t.Errorf("level: got %s", res.Level)
	}
}

func TestViewLoad_SelectionNotifications(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want viewset.Name
	}{
		{"default view", map[string]interface{}{}, viewset.Edges},
		{"requested view", map[string]interface{}{"view": "otsu"}, viewset.Otsu},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.args["path"] = writeTestPNG(t, 6, 6)
			mustCall(t, s, "view_load", tt.args, nil)

			notes := s.drainNotifications()
			if len(notes) != 1 {
				t.Fatalf("got %d notifications, want 1", len(notes))
			}
			params, ok := notes[0].Params.(map[string]interface{})
			if !ok {
				t.Fatalf("params: got %T", notes[0].Params)
			}
			data, ok := params["data"].(viewEvent)
			if !ok {
				t.Fatalf("data: got %T", params["data"])
			}
			if data.Event != "current_changed" || data.View == nil || *data.View != tt.want {
				t.Errorf("notification: got %+v", data)
			}
		})
	}
}

func TestViewLoad_Errors(t *testing.T) {
	s, _ := loadedServer(t)

	tests := []struct {
		name     string
		args     interface{}
		wantCode int
	}{
		{"missing path", map[string]interface{}{}, -32602},
		{"bad arguments", map[string]interface{}{"path": 7}, -32602},
		{"nonexistent file", map[string]interface{}{"path": "/nonexistent/image.png"}, -32000},
		{"unknown view", map[string]interface{}{"path": writeTestPNG(t, 4, 4), "view": "sepia"}, -32602},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := callError(t, s, "view_load", tt.args); code != tt.wantCode {
				t.Errorf("code: got %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestViewLoad_FailureKeepsViews(t *testing.T) {
	s, path := loadedServer(t)

	callError(t, s, "view_load", map[string]interface{}{"path": "/nonexistent/image.png"})

	var st statusJSON
	mustCall(t, s, "view_list", nil, &st)
	if !st.Loaded || st.Source != path || st.Width != 12 {
		t.Errorf("previous views should survive a failed load: %+v", st)
	}
}

func TestViewSelect(t *testing.T) {
	s, _ := loadedServer(t)

	var st statusJSON
	mustCall(t, s, "view_select", map[string]interface{}{"view": "Otsu"}, &st)
	if st.Current != "otsu" {
		t.Errorf("current: got %s, want otsu", st.Current)
	}

	notes := s.drainNotifications()
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}

	if code := callError(t, s, "view_select", map[string]interface{}{"view": "Bogus"}); code != -32602 {
		t.Errorf("unknown view code: got %d, want -32602", code)
	}
	mustCall(t, s, "view_list", nil, &st)
	if st.Current != "otsu" {
		t.Errorf("failed select changed current to %s", st.Current)
	}
}

func TestViewSelect_MinimalLevel(t *testing.T) {
	cfg := config.Default()
	cfg.FeatureLevel = "minimal"
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	mustCall(t, s, "view_load", map[string]interface{}{"path": writeTestPNG(t, 6, 6)}, nil)

	if code := callError(t, s, "view_select", map[string]interface{}{"view": "grey"}); code != -32602 {
		t.Errorf("code: got %d, want -32602", code)
	}
	if code := callError(t, s, "view_reduce", map[string]interface{}{"colors": 4}); code != -32602 {
		t.Errorf("reduce at minimal level: got %d, want -32602", code)
	}
}

func TestViewHighlight(t *testing.T) {
	s, _ := loadedServer(t)

	var st statusJSON
	mustCall(t, s, "view_highlight", map[string]interface{}{"threshold": 0}, &st)
	if st.Threshold != 0 {
		t.Errorf("threshold: got %v, want 0", st.Threshold)
	}

	orig, _ := s.views.View(viewset.Original)
	high, _ := s.views.View(viewset.Highlight)
	if !high.Equal(orig) {
		t.Error("threshold 0 should reproduce the source")
	}

	notes := s.drainNotifications()
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	data := notes[0].Params.(map[string]interface{})["data"].(viewEvent)
	if data.Event != "view_recomputed" || data.View == nil || *data.View != viewset.Highlight {
		t.Errorf("notification: got %+v", data)
	}

	if code := callError(t, s, "view_highlight", map[string]interface{}{}); code != -32602 {
		t.Errorf("missing threshold code: got %d", code)
	}
}

func TestViewReduce(t *testing.T) {
	s, _ := loadedServer(t)

	var st statusJSON
	mustCall(t, s, "view_reduce", map[string]interface{}{"colors": 2}, &st)
	if st.ReduceColors != 2 {
		t.Errorf("reduce_colors: got %d, want 2", st.ReduceColors)
	}

	for _, args := range []map[string]interface{}{{"colors": 0}, {"colors": -1}, {}} {
		if code := callError(t, s, "view_reduce", args); code != -32602 {
			t.Errorf("%v: got %d, want -32602", args, code)
		}
	}
	mustCall(t, s, "view_list", nil, &st)
	if st.ReduceColors != 2 {
		t.Errorf("failed reduce changed colors to %d", st.ReduceColors)
	}
}

func TestViewUnload(t *testing.T) {
	s, path := loadedServer(t)

	var st statusJSON
	mustCall(t, s, "view_unload", nil, &st)
	if st.Loaded || st.Source != "" || len(st.Views) != 0 || st.Current != "" {
		t.Errorf("unexpected status after unload: %+v", st)
	}
	if s.cache.Len() != 0 {
		t.Error("unload should evict the source file")
	}

	for _, tool := range []string{"view_render", "view_gallery", "view_sample_color"} {
		if code := callError(t, s, tool, map[string]interface{}{}); code != -32000 {
			t.Errorf("%s on empty set: got %d, want -32000", tool, code)
		}
	}
	if code := callError(t, s, "view_highlight", map[string]interface{}{"threshold": 0.5}); code != -32000 {
		t.Errorf("highlight on empty set: got %d, want -32000", code)
	}

	// A fresh load works after unload
	mustCall(t, s, "view_load", map[string]interface{}{"path": path}, &st)
	if !st.Loaded {
		t.Error("reload failed")
	}
}

func TestViewRender(t *testing.T) {
	s, _ := loadedServer(t)

	var res struct {
		View        string `json:"view"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	mustCall(t, s, "view_render", map[string]interface{}{}, &res)
	if res.View != "edges" || res.Width != 12 || res.Height != 9 {
		t.Errorf("current view render: got %s %dx%d", res.View, res.Width, res.Height)
	}
	if res.ImageBase64 == "" || res.MimeType != "image/png" {
		t.Error("render should return a base64 PNG")
	}

	mustCall(t, s, "view_render", map[string]interface{}{"view": "pixelize", "scale": 2.0}, &res)
	if res.View != "pixelate" || res.Width != 24 {
		t.Errorf("scaled render: got %s width %d", res.View, res.Width)
	}

	if code := callError(t, s, "view_render", map[string]interface{}{"scale": -1}); code != -32602 {
		t.Errorf("negative scale: got %d", code)
	}
	if code := callError(t, s, "view_render", map[string]interface{}{"scale": 1e5}); code != -32602 {
		t.Errorf("oversized scale: got %d", code)
	}
}

func TestViewGallery(t *testing.T) {
	s, _ := loadedServer(t)

	var res struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	mustCall(t, s, "view_gallery", map[string]interface{}{"thumb_size": 32, "columns": 5}, &res)
	// 10 views in 5 columns of 38px cells plus padding
	if res.Width != 5*38+6 {
		t.Errorf("gallery width: got %d", res.Width)
	}
	if res.Height != 2*(32+16+6)+6 {
		t.Errorf("gallery height: got %d", res.Height)
	}
}

func TestViewSampleColor(t *testing.T) {
	s, _ := loadedServer(t)

	var res struct {
		Hex string `json:"hex"`
	}
	mustCall(t, s, "view_sample_color", map[string]interface{}{"view": "original", "x": 11, "y": 0}, &res)
	if res.Hex != "#FFFFFF" {
		t.Errorf("right half: got %s, want #FFFFFF", res.Hex)
	}
	mustCall(t, s, "view_sample_color", map[string]interface{}{"view": "original", "x": 0, "y": 8}, &res)
	if res.Hex != "#000000" {
		t.Errorf("left half: got %s, want #000000", res.Hex)
	}

	if code := callError(t, s, "view_sample_color", map[string]interface{}{"x": 12, "y": 0}); code != -32602 {
		t.Errorf("out of bounds: got %d, want -32602", code)
	}
}

func TestViewSampleColorsMultiAndDominant(t *testing.T) {
	s, _ := loadedServer(t)

	var multi struct {
		Samples []struct {
			Label string `json:"label"`
		} `json:"samples"`
	}
	mustCall(t, s, "view_sample_colors_multi", map[string]interface{}{
		"view":   "original",
		"points": []map[string]interface{}{{"x": 0, "y": 0, "label": "a"}, {"x": 6, "y": 4}},
	}, &multi)
	if len(multi.Samples) != 2 || multi.Samples[0].Label != "a" {
		t.Errorf("samples: got %+v", multi.Samples)
	}

	var dom struct {
		Colors []struct {
			Hex        string  `json:"hex"`
			Percentage float64 `json:"percentage"`
		} `json:"colors"`
	}
	mustCall(t, s, "view_dominant_colors", map[string]interface{}{"view": "original"}, &dom)
	if len(dom.Colors) != 2 || dom.Colors[0].Percentage != 50 {
		t.Errorf("dominant colors: got %+v", dom.Colors)
	}
}

func TestViewCompare(t *testing.T) {
	s, _ := loadedServer(t)
	mustCall(t, s, "view_highlight", map[string]interface{}{"threshold": 0}, nil)

	var res struct {
		SimilarityScore float64 `json:"similarity_score"`
	}
	mustCall(t, s, "view_compare", map[string]interface{}{"view_a": "original", "view_b": "highlight"}, &res)
	if res.SimilarityScore != 1 {
		t.Errorf("similarity: got %v, want 1", res.SimilarityScore)
	}

	if code := callError(t, s, "view_compare", map[string]interface{}{"view_a": "original"}); code != -32602 {
		t.Errorf("missing view_b: got %d", code)
	}
}

func TestViewSaveAndExport(t *testing.T) {
	s, _ := loadedServer(t)
	dir := t.TempDir()

	var saved SaveResult
	out := filepath.Join(dir, "edges.bmp")
	mustCall(t, s, "view_save", map[string]interface{}{"path": out}, &saved)
	if len(saved.Files) != 1 || saved.Files[0] != out {
		t.Errorf("saved: got %v", saved.Files)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output missing: %v", err)
	}

	if code := callError(t, s, "view_save", map[string]interface{}{"path": filepath.Join(dir, "x.unknown")}); code != -32000 {
		t.Errorf("unsupported format: got %d, want -32000", code)
	}

	exportDir := filepath.Join(dir, "all")
	mustCall(t, s, "view_export", map[string]interface{}{"dir": exportDir}, &saved)
	if len(saved.Files) != 10 {
		t.Fatalf("export: got %d files, want 10", len(saved.Files))
	}
	if !strings.HasSuffix(saved.Files[0], "original.png") {
		t.Errorf("first export: got %s", saved.Files[0])
	}
}

func TestExecuteTool_Unknown(t *testing.T) {
	s := newTestServer(t)
	if code := callError(t, s, "image_crop", nil); code != -32000 {
		t.Errorf("unknown tool: got %d, want -32000", code)
	}

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("malformed params: got %+v", resp.Error)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/views/out.png")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	if got != filepath.Join(home, "views", "out.png") {
		t.Errorf("got %s", got)
	}
	if _, err := expandPath(""); err == nil {
		t.Error("empty path should fail")
	}
}
