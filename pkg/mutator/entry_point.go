package mutator

import (
	"fmt"
	"path/filepath"

	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// EntryPoint retains every top-level declaration in configured entry-point
// files.
type EntryPoint struct {
	cfg *config.Config
}

// Name identifies the pass.
func (m *EntryPoint) Name() string { return "entry-point" }

// Mutate marks entry-point file top levels as retained. An explicitly
// configured filename matching no indexed file is fatal.
func (m *EntryPoint) Mutate(g *graph.Graph) error {
	matched := make(map[string]bool, len(m.cfg.EntryPointFilenames))

	for _, d := range g.Declarations() {
		if d.Kind == index.KindModule || d.Location.File == "" {
			continue
		}
		if !m.cfg.IsEntryPointFile(d.Location.File) {
			continue
		}
		matched[filepath.Base(d.Location.File)] = true
		if isTopLevel(d) {
			g.MarkRetained(d)
		}
	}

	if m.cfg.EntryPointsExplicit {
		for _, name := range m.cfg.EntryPointFilenames {
			if !matched[name] {
				return fmt.Errorf("%w: entry point file %q not present in the index",
					config.ErrConfiguration, name)
			}
		}
	}
	return nil
}

// isTopLevel reports whether the declaration's parent chain stops at the
// top or at a synthetic module container.
func isTopLevel(d *graph.Declaration) bool {
	p := d.Parent.NearestDecl()
	return p == nil || p.Kind == index.KindModule
}
