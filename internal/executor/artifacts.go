package executor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/v0xg/vistest/internal/action"
)

// artifactStore writes per-step screenshot evidence. Failures are logged
// and swallowed: missing evidence must never fail a step.
type artifactStore struct {
	dir string
	log *slog.Logger
}

func (a *artifactStore) save(index int, kind action.Kind, png []byte) string {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		a.log.Warn("artifact dir", "dir", a.dir, "error", err)
		return ""
	}
	name := fmt.Sprintf("step_%02d_%s.png", index+1, kind)
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		a.log.Warn("write screenshot", "path", path, "error", err)
		return ""
	}
	return path
}
