// FILE: lixenwraith/nodeconf/render/tree.go

// Package render turns constructed configuration trees, schema listings and
// serialized documents into terminal text.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/lixenwraith/nodeconf"
)

var (
	nodeStyle  = lipgloss.NewStyle().Bold(true)
	typeStyle  = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Tree renders root as an indented tree, one line per node and leaf. The
// hierarchy is rebuilt from traversal records: every record's parent path has
// been emitted before it, so each line attaches to an existing branch.
func Tree(root *nodeconf.Node, title string) string {
	t := tree.Root(titleStyle.Render(title)).Enumerator(tree.RoundedEnumerator)
	branches := map[string]*tree.Tree{"": t}

	for rec := range nodeconf.Traverse(root, true, true) {
		parent, ok := branches[rec.Parent()]
		if !ok {
			// Parent always precedes its children; a miss means a corrupt tree
			parent = t
		}
		if rec.IsNode {
			branch := tree.Root(nodeLabel(rec)).Enumerator(tree.RoundedEnumerator)
			parent.Child(branch)
			branches[rec.Path] = branch
			continue
		}
		parent.Child(leafLabel(rec))
	}
	return t.String()
}

func nodeLabel(rec nodeconf.Record) string {
	return nodeStyle.Render(fmt.Sprint(rec.Key)) + " " + typeStyle.Render("("+rec.Type.String()+")")
}

func leafLabel(rec nodeconf.Record) string {
	return fmt.Sprintf("%v: %s", rec.Key, FormatValue(rec.Value))
}

// FormatValue renders a leaf value on one line.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		if t == "" {
			return `""`
		}
		return t
	case time.Duration:
		return t.String()
	case []any:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = FormatValue(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case *nodeconf.Map:
		items := make([]string, 0, t.Len())
		for k, item := range t.All() {
			items = append(items, k+": "+FormatValue(item))
		}
		return "{" + strings.Join(items, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
