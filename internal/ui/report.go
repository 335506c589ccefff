package ui

import (
	"fmt"
	"strings"

	"github.com/untoldecay/lorebook/internal/validation"
)

// RenderReport renders every report entry on its own line, errors first,
// followed by a one-line summary.
func RenderReport(r *validation.Report) string {
	var b strings.Builder
	for _, e := range r.Entries() {
		icon, style := RenderFail("✗"), FailStyle
		if e.Severity == "warning" {
			icon, style = RenderWarn("⚠"), WarnStyle
		}
		fmt.Fprintf(&b, "%s %s %s\n", icon, RenderMuted("["+e.Kind+"]"), style.Render(e.Message))
	}
	if len(r.Errors)+len(r.Warnings) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(RenderSummary(r))
	b.WriteString("\n")
	return b.String()
}

// RenderSummary is the closing line of a report.
func RenderSummary(r *validation.Report) string {
	docs := plural(r.Documents, "document")
	warnings := ""
	if n := len(r.Warnings); n > 0 {
		warnings = " " + RenderWarn(fmt.Sprintf("(%s)", plural(n, "warning")))
	}
	if r.HasErrors() {
		return RenderFail(fmt.Sprintf("✗ %s in %s", plural(len(r.Errors), "error"), docs)) + warnings
	}
	return RenderPass(fmt.Sprintf("✓ %s valid", docs)) + warnings
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
