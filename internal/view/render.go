package view

import (
	"fmt"
	"html"
	"strings"

	"github.com/mwolter/daylist/internal/task"
)

// RenderResult is one render cycle's output: the markup fragment for the
// visible subset plus the two live counters over the full list.
type RenderResult struct {
	Fragment   string      `json:"fragment"`
	Total      int         `json:"total"`
	Done       int         `json:"done"`
	Generation uint64      `json:"generation"`
	Visible    []task.Task `json:"-"`
}

// renderFragment builds the display list markup from the visible subset,
// in the list's existing order. All user-supplied fields are escaped
// before embedding.
func renderFragment(visible []task.Task) string {
	var b strings.Builder
	for _, t := range visible {
		doneClass := ""
		checked := ""
		if t.Completed {
			doneClass = "done"
			checked = " checked"
		}

		// The data attributes carry the current field values so the edit
		// flow can pre-fill its prompts without another fetch.
		fmt.Fprintf(&b, "<li class=%q data-id=%q data-text=\"%s\" data-date=\"%s\" data-time-start=\"%s\" data-time-end=\"%s\" data-priority=\"%s\">\n",
			doneClass, t.ID,
			html.EscapeString(t.Text), html.EscapeString(t.Date),
			html.EscapeString(t.TimeStart), html.EscapeString(t.TimeEnd), t.Priority)
		fmt.Fprintf(&b, "  <input class=\"checkbox\" type=\"checkbox\"%s />\n", checked)
		b.WriteString("  <div class=\"task\">\n")
		fmt.Fprintf(&b, "    <strong>%s</strong>\n", html.EscapeString(t.Text))
		b.WriteString("    <div class=\"meta\">\n")
		fmt.Fprintf(&b, "      <span>%s | %s</span>\n",
			html.EscapeString(t.Date), html.EscapeString(formatTimeRange(t.TimeStart, t.TimeEnd)))
		fmt.Fprintf(&b, "      <span class=\"badge %s\">%s</span>\n", t.Priority, t.Priority)
		b.WriteString("    </div>\n")
		if t.Attachment != nil {
			writeAttachment(&b, t.Attachment)
		}
		b.WriteString("  </div>\n")
		b.WriteString("  <div class=\"actions\">\n")
		b.WriteString("    <button class=\"edit\" type=\"button\">Edit</button>\n")
		b.WriteString("    <button class=\"delete\" type=\"button\">X</button>\n")
		b.WriteString("  </div>\n")
		b.WriteString("</li>\n")
	}
	return b.String()
}

func writeAttachment(b *strings.Builder, ref *task.AttachmentRef) {
	b.WriteString("    <div class=\"attachment\">\n")
	if ref.IsImage {
		// Placeholder; the hydration pass assigns the blob URL.
		fmt.Fprintf(b, "      <img class=\"preview\" data-attachment-id=%q alt=%q />\n",
			ref.ID, html.EscapeString(ref.Name))
	}
	fmt.Fprintf(b, "      <span class=\"filename\">%s</span>\n", html.EscapeString(ref.Name))
	if ref.Type != "" && ref.Type != "unknown" {
		fmt.Fprintf(b, "      <span class=\"filetype\">%s</span>\n", html.EscapeString(ref.Type))
	}
	b.WriteString("      <button class=\"open-attachment\" type=\"button\">Open</button>\n")
	b.WriteString("    </div>\n")
}

func formatTimeRange(start, end string) string {
	if end == "" {
		return start + " - open"
	}
	return start + " - " + end
}
