// Package report renders ingestion and validation results for people.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/ingest"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// Markdown renders one section per pack followed by batch totals
func Markdown(title string, reports []*ingest.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)

	for _, r := range reports {
		writePack(&b, r)
	}

	s := ingest.Summarize(reports)
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Packs:** %d (%d valid, %d dropped)\n", s.Packs, s.Valid, s.Dropped)
	fmt.Fprintf(&b, "- **Sticker failures:** %d\n", s.Failures)
	if s.Quarantined > 0 {
		fmt.Fprintf(&b, "- **Quarantined:** %d\n", s.Quarantined)
	}
	if s.Retryable > 0 {
		fmt.Fprintf(&b, "- **Retryable:** %d\n", s.Retryable)
	}

	return b.String()
}

func writePack(b *strings.Builder, r *ingest.Report) {
	status := "✅"
	switch {
	case r.Dropped:
		status = "❌"
	case !r.OK():
		status = "⚠️"
	}

	name := r.Name
	if name == "" {
		name = r.Identifier
	}
	fmt.Fprintf(b, "## %s %s (`%s`)\n\n", status, name, r.Identifier)

	if r.PackErr != nil {
		kind := validate.KindOf(r.PackErr)
		fmt.Fprintf(b, "- **Pack:** %s (fix: %s)\n", r.PackErr, validate.Remedy(kind))
	}
	fmt.Fprintf(b, "- **Stickers kept:** %d\n", r.Kept)
	if r.Quarantined > 0 {
		fmt.Fprintf(b, "- **Quarantined:** %d\n", r.Quarantined)
	}

	if len(r.Failures) > 0 {
		b.WriteString("\n| Sticker | Problem | Fix |\n|---|---|---|\n")
		for _, f := range r.Failures {
			writeFailure(b, f)
		}
	}
	if len(r.Retryable) > 0 {
		b.WriteString("\nCould not be read (retry):\n\n")
		for _, f := range r.Retryable {
			fmt.Fprintf(b, "- `%s`: %v\n", f.FileName, f.Err)
		}
	}
	b.WriteString("\n")
}

func writeFailure(b *strings.Builder, f validate.StickerFailure) {
	kind := validate.KindOf(f.Err)
	problem := string(kind)
	var verr *validate.Error
	if errors.As(f.Err, &verr) && verr.Reason != "" {
		problem += ": " + verr.Reason
	}
	fmt.Fprintf(b, "| `%s` | %s | %s |\n", f.FileName, escapeCell(problem), validate.Remedy(kind))
}

// HTML converts the Markdown report into a standalone HTML document
func HTML(title string, reports []*ingest.Report) string {
	body := markdownToHTML(Markdown(title, reports))
	return fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body>\n</html>\n",
		htmlEscaper.Replace(title), body)
}

// markdownToHTML converts markdown to HTML
func markdownToHTML(text string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)

	doc := p.Parse([]byte(text))

	opts := html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank}
	renderer := html.NewRenderer(opts)

	return string(markdown.Render(doc, renderer))
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
