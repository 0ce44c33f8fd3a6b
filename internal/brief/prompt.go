package brief

import (
	"fmt"
	"strings"

	"github.com/jonathan/shorts-planner/internal/prompts"
)

// descriptionLimit bounds how much of the source description is interpolated
// into the prompt. Long YouTube descriptions are mostly links and boilerplate.
const descriptionLimit = 300

// BuildPrompt renders the deterministic instruction prompt for a source
// video. Given the same media and variant it always yields a byte-identical
// string; all variability lives in the model, not the prompt.
func BuildPrompt(media SourceMedia, variant Variant) string {
	task := prompts.Format(prompts.MustGet("brief.json", "task"), map[string]string{
		"Title":       media.Title,
		"Description": truncateRunes(media.Description, descriptionLimit),
		"Channel":     media.Channel,
	})
	constraints := prompts.Format(prompts.MustGet("brief.json", "constraints"), map[string]string{
		"MarkerTag": MarkerTag,
		"Denylist":  strings.Join(vendorDenylist, ", "),
	})

	var sb strings.Builder
	sb.WriteString(task)
	sb.WriteString("\n\n")
	sb.WriteString(constraints)
	sb.WriteString("\n\n")
	sb.WriteString(prompts.MustGet("brief.json", "output"))
	sb.WriteString("\n{\n")
	fields := Fields(variant)
	for i, f := range fields {
		sb.WriteString(fmt.Sprintf("  %q: \"string\"", f.Name))
		if f.Required {
			sb.WriteString(" (required)")
		}
		if f.Description != "" {
			sb.WriteString(" // ")
			sb.WriteString(f.Description)
		}
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// truncateRunes shortens s to at most n runes, appending an ellipsis when
// anything was cut.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
