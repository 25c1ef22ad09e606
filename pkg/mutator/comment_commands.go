package mutator

import (
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// CommentCommands applies parsed reviewer directives: ignore, ignore with
// parameters, and ignore-to-end-of-file.
type CommentCommands struct{}

// Name identifies the pass.
func (m *CommentCommands) Name() string { return "comment-commands" }

// Mutate marks ignored declarations per attached directives.
func (m *CommentCommands) Mutate(g *graph.Graph) error {
	for _, d := range g.Declarations() {
		for _, cmd := range d.CommentCommands {
			switch cmd {
			case graph.CommandIgnore:
				m.ignoreSubtree(g, d)
			case graph.CommandIgnoreParameters:
				for _, p := range d.Parameters() {
					g.MarkIgnored(p)
				}
			case graph.CommandIgnoreAll:
				m.ignoreFromLine(g, d.Location.File, d.Location.Line)
			}
		}
	}
	return nil
}

func (m *CommentCommands) ignoreSubtree(g *graph.Graph, d *graph.Declaration) {
	g.MarkIgnored(d)
	for _, c := range g.Descendants(d) {
		g.MarkIgnored(c)
	}
}

func (m *CommentCommands) ignoreFromLine(g *graph.Graph, file string, line int) {
	for _, d := range g.Declarations() {
		if d.Kind == index.KindModule {
			continue
		}
		if d.Location.File == file && d.Location.Line >= line {
			g.MarkIgnored(d)
		}
	}
}
