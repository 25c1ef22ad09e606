package indexer

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/swift"

	"github.com/vestige-dev/vestige/pkg/graph"
)

// directiveMarker introduces a reviewer command inside a comment.
const directiveMarker = "periphery:"

// directive is a parsed comment command and the line its comment ends on.
type directive struct {
	command graph.CommentCommand
	line    int
}

// scanDirectives parses a source file and extracts directives from its
// comments. Unknown sub-commands are returned as warnings, not errors.
func scanDirectives(path string) ([]directive, []string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("scan comments: %w", err)
	}
	if !strings.Contains(string(source), directiveMarker) {
		return nil, nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(swift.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, nil, fmt.Errorf("scan comments: %w", err)
	}
	defer tree.Close()

	var directives []directive
	var warnings []string
	walkComments(tree.RootNode(), func(n *sitter.Node) {
		text := string(source[n.StartByte():n.EndByte()])
		endLine := int(n.EndPoint().Row) + 1
		cmd, ok, warn := parseDirective(text)
		if warn != "" {
			warnings = append(warnings, fmt.Sprintf("%s:%d: %s", path, endLine, warn))
		}
		if ok {
			directives = append(directives, directive{command: cmd, line: endLine})
		}
	})
	return directives, warnings, nil
}

func walkComments(node *sitter.Node, fn func(*sitter.Node)) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "comment", "multiline_comment":
		fn(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkComments(node.Child(i), fn)
	}
}

// parseDirective extracts a command from comment text. The accepted forms
// are "periphery:ignore", "periphery:ignore:parameters" and
// "periphery:ignore:all".
func parseDirective(text string) (graph.CommentCommand, bool, string) {
	i := strings.Index(text, directiveMarker)
	if i < 0 {
		return 0, false, ""
	}
	rest := text[i+len(directiveMarker):]
	// Cut trailing comment syntax and prose after the command word.
	rest = strings.TrimSuffix(rest, "*/")
	if j := strings.IndexAny(rest, " \t\r\n"); j >= 0 {
		rest = rest[:j]
	}
	switch rest {
	case "ignore":
		return graph.CommandIgnore, true, ""
	case "ignore:parameters":
		return graph.CommandIgnoreParameters, true, ""
	case "ignore:all":
		return graph.CommandIgnoreAll, true, ""
	}
	return 0, false, fmt.Sprintf("unknown directive %q", directiveMarker+rest)
}
