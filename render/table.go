// FILE: lixenwraith/nodeconf/render/table.go
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lixenwraith/nodeconf"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Params renders the schema's flattened parameter listing as a table with
// path, type, default and help columns. Required parameters show "required"
// in place of a default.
func Params(schema *nodeconf.Schema) string {
	rows := make([][]string, 0)
	for _, info := range schema.Parameters() {
		def := FormatValue(info.Default)
		if info.Required {
			def = "required"
		}
		rows = append(rows, []string{info.Path, info.Type.String(), def, info.Help})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PARAMETER", "TYPE", "DEFAULT", "HELP").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// ParamLines renders the listing one "path: type = default" line per parameter.
func ParamLines(schema *nodeconf.Schema) string {
	var b strings.Builder
	for _, info := range schema.Parameters() {
		b.WriteString(info.Path)
		b.WriteString(": ")
		b.WriteString(info.Type.String())
		if !info.Required {
			b.WriteString(" = ")
			b.WriteString(FormatValue(info.Default))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Separator returns a horizontal rule of the given width.
func Separator(width int) string {
	if width <= 0 {
		width = 80
	}
	return strings.Repeat("─", width)
}

// Indent prefixes every non-empty line of text with level levels of two spaces.
func Indent(text string, level int) string {
	if level <= 0 {
		return text
	}
	pad := strings.Repeat("  ", level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
