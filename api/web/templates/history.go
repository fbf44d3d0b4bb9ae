// Package templates renders the html fragments served under /ui
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

type HistoryItem struct {
	Name       string
	CreatedAt  time.Time
	Size       int64
	HasOutline bool
}

// History lists saved presentations with download, load and delete
// actions. Load is only offered when an outline was saved with the file.
func History(items []HistoryItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<div class=\"history-list\" id=\"history-list\">\n")
		if len(items) == 0 {
			b.WriteString("  <p class=\"history-empty\">No presentations yet</p>\n")
		}
		for _, item := range items {
			name := templ.EscapeString(item.Name)

			b.WriteString("  <div class=\"history-item\">\n")
			fmt.Fprintf(&b, "    <a class=\"history-name\" href=\"%s\" download>%s</a>\n", fileURL(item), name)
			fmt.Fprintf(&b, "    <span class=\"history-meta\">%s · %s</span>\n",
				templ.EscapeString(formatTime(item.CreatedAt)), formatSize(item.Size))
			if item.HasOutline {
				fmt.Fprintf(&b,
					"    <button class=\"history-load\" hx-post=\"%s\" hx-swap=\"none\">Edit outline</button>\n",
					loadURL(item))
			}
			fmt.Fprintf(&b,
				"    <button class=\"history-delete\" hx-delete=\"%s\" hx-target=\"#history-list\" hx-swap=\"outerHTML\" hx-confirm=\"Delete %s?\">Delete</button>\n",
				deleteURL(item), name)
			b.WriteString("  </div>\n")
		}
		b.WriteString("</div>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}
