// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/shorts-planner/internal/brief"
	"github.com/jonathan/shorts-planner/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxFieldLen caps how much of a long field is displayed
	maxFieldLen = 160
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSourceMedia outputs a summary of the reference video.
func (p *Printer) PrintSourceMedia(m *brief.SourceMedia) {
	if m == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", m.Title))
	sb.WriteString(fmt.Sprintf("Channel:  %s\n", m.Channel))
	if m.Views > 0 {
		sb.WriteString(fmt.Sprintf("Views:    %d\n", m.Views))
	}
	if m.URL() != "" {
		sb.WriteString(fmt.Sprintf("URL:      %s", m.URL()))
	}

	p.printBox("REFERENCE VIDEO", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBrief outputs the finished creative brief field by field.
func (p *Printer) PrintBrief(b *brief.CreativeBrief) {
	if b == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title (EN):  %s\n", truncate(b.TitleEnglish)))
	sb.WriteString(fmt.Sprintf("Title:       %s\n", truncate(b.TitleLocal)))
	sb.WriteString(fmt.Sprintf("Prompt:      %s\n", truncate(b.PrimaryPrompt)))
	if b.SecondaryPrompt != "" {
		sb.WriteString(fmt.Sprintf("Prompt 2:    %s\n", truncate(b.SecondaryPrompt)))
	}
	sb.WriteString(fmt.Sprintf("Script (EN): %s\n", truncate(b.ScriptEnglish)))
	sb.WriteString(fmt.Sprintf("Script:      %s\n", truncate(b.ScriptLocal)))
	sb.WriteString(fmt.Sprintf("Tags:        %s\n", strings.Join(b.Tags, " ")))
	sb.WriteString(fmt.Sprintf("Comment:     %s", truncate(b.Comment)))

	p.printBox("CREATIVE BRIEF", sb.String())
}

// PrintTrail outputs the rejection trail of an exhausted run, one line per
// candidate model.
func (p *Printer) PrintTrail(trail []pipeline.Attempt) {
	if len(trail) == 0 {
		return
	}

	var sb strings.Builder
	for i, a := range trail {
		sb.WriteString(fmt.Sprintf("%s: %s after %d attempt(s)", a.Model, a.Kind, a.Attempts))
		if i < len(trail)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("MODELS TRIED", sb.String())
}

// ProgressLine formats one pipeline progress event for plain log output.
func ProgressLine(event pipeline.ProgressEvent) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", event.State))
	if event.Model != "" {
		sb.WriteString(" " + event.Model)
	}
	if event.Attempt > 0 {
		sb.WriteString(fmt.Sprintf(" (attempt %d)", event.Attempt))
	}
	if event.Message != "" {
		sb.WriteString(": " + event.Message)
	}
	return sb.String()
}

func truncate(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	return s[:maxFieldLen-3] + "..."
}
