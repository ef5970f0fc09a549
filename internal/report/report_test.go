package report

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/vistest/internal/action"
	"github.com/v0xg/vistest/internal/run"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func failedRun(t *testing.T, shot string) *run.Run {
	t.Helper()
	r := run.New("Login Test", "Open the app and log in", []action.Action{
		action.Visit("example.com"),
		action.Click("Login button"),
		action.AssertText("welcome banner", "Welcome"),
	})
	r.RecordResult(action.Result{Success: true, Message: "visited", Screenshot: shot})
	r.RecordResult(action.Result{Message: "Failed to click on Login button", Error: "targeting: no element"})
	return r
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "out.json")

	require.NoError(t, WriteJSON(failedRun(t, "").Report(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "failed", decoded["status"])
	assert.Equal(t, "2/3", decoded["progress"])

	steps := decoded["steps"].([]any)
	require.Len(t, steps, 3)
	assert.Equal(t, "pending", steps[2].(map[string]any)["result"])
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	shot := filepath.Join(dir, "step_01_visit.png")
	writePNG(t, shot, 100, 80)
	path := filepath.Join(dir, "report.html")

	require.NoError(t, WriteHTML(failedRun(t, shot).Report(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "Test Report: Login Test")
	assert.Contains(t, html, "FAILED")
	assert.Contains(t, html, "targeting: no element")
	assert.Contains(t, html, "Pending")
	assert.Contains(t, html, "step_01_visit.png", "screenshot is referenced relative to the HTML file")
}

func TestThumbnailSkipsNarrowImages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	writePNG(t, src, 100, 80)

	out, err := Thumbnail(src, thumbWidth)
	require.NoError(t, err)
	assert.Equal(t, src, out, "narrow images are used as-is")
}

func TestThumbnailDownscalesWideImages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	writePNG(t, src, 1280, 800)

	out, err := Thumbnail(src, thumbWidth)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "wide_thumb.png"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, thumbWidth, cfg.Width)
	assert.Equal(t, 300, cfg.Height, "aspect ratio is preserved")
}
