// FILE: lixenwraith/nodeconf/render/diff.go
package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	addStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Diff compares two documents line by line. Unchanged lines are prefixed
// with two spaces, removed lines with "- " and added lines with "+ ".
// Identical inputs yield "".
func Diff(oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	var b strings.Builder
	for _, d := range diffs {
		for _, r := range d.Text {
			idx := int(r)
			if idx < 0 || idx >= len(lineArray) {
				continue
			}
			line := strings.TrimSuffix(lineArray[idx], "\n")
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				b.WriteString("  " + line)
			case diffmatchpatch.DiffDelete:
				b.WriteString(delStyle.Render("- " + line))
			case diffmatchpatch.DiffInsert:
				b.WriteString(addStyle.Render("+ " + line))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Highlight colors a YAML, JSON or TOML document for a 256-color terminal.
// Unknown languages and highlighter errors return the text unchanged.
func Highlight(text, language string) string {
	if language == "" {
		return text
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, text, language, "terminal256", "monokai"); err != nil {
		return text
	}
	return buffer.String()
}
