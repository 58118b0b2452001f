// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/portfolio/internal/loader"
	"github.com/jonathan/portfolio/internal/schemas"
	"github.com/jonathan/portfolio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
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
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintProfile outputs a human-readable summary of a loaded profile document.
func (p *Printer) PrintProfile(doc *types.ProfileDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:     %s\n", doc.About.Name)
	fmt.Fprintf(&sb, "Title:    %s\n", doc.About.Title)
	fmt.Fprintf(&sb, "Resume:   %s\n", doc.About.Resume)
	sb.WriteString("\n")

	if len(doc.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills (%d): %s\n", len(doc.Skills), strings.Join(doc.Skills, ", "))
	}

	if len(doc.Projects) > 0 {
		fmt.Fprintf(&sb, "Projects (%d):\n", len(doc.Projects))
		count := min(len(doc.Projects), maxItemsToShow)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "  • %s\n", doc.Projects[i].Title)
		}
		if len(doc.Projects) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(doc.Projects)-maxItemsToShow)
		}
	}

	if len(doc.WorkExperience) > 0 {
		fmt.Fprintf(&sb, "Work (%d):\n", len(doc.WorkExperience))
		count := min(len(doc.WorkExperience), maxItemsToShow)
		for i := 0; i < count; i++ {
			job := doc.WorkExperience[i]
			fmt.Fprintf(&sb, "  • %s, %s (%d details)\n", job.Company, job.Role, len(job.Details))
		}
		if len(doc.WorkExperience) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(doc.WorkExperience)-maxItemsToShow)
		}
	}

	p.printBox("PROFILE DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLoadError outputs why a profile document was rejected, listing schema
// field errors when there are any.
func (p *Printer) PrintLoadError(err error) {
	if err == nil {
		return
	}

	var sb strings.Builder
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		fmt.Fprintf(&sb, "Location: %s\n", loadErr.Location)
		fmt.Fprintf(&sb, "Kind:     %s\n", loadErr.Kind)
		fmt.Fprintf(&sb, "Reason:   %s\n", loadErr.Message)
	} else {
		fmt.Fprintf(&sb, "Reason:   %v\n", err)
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		sb.WriteString("\n")
		for _, fe := range validationErr.Errors {
			fmt.Fprintf(&sb, "⚠ %s: %s\n", fe.Field, fe.Message)
		}
	} else if loadErr != nil && loadErr.Cause != nil {
		fmt.Fprintf(&sb, "Cause:    %v\n", loadErr.Cause)
	}

	p.printBox("PROFILE LOAD FAILED", strings.TrimSuffix(sb.String(), "\n"))
}

// PageSummary counts what a rendered page contains.
type PageSummary struct {
	Sections     []string
	SkillCards   int
	ProjectCards int
	WorkBlocks   int
	Loading      bool
	Failed       bool
}

// SummarizePage parses rendered HTML and counts its sections and cards.
func SummarizePage(r io.Reader) (*PageSummary, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	summary := &PageSummary{
		SkillCards:   doc.Find("section#skills .skill-card").Length(),
		ProjectCards: doc.Find("section#projects .project-card").Length(),
		WorkBlocks:   doc.Find("section#work .work-block").Length(),
		Loading:      doc.Find("#loading").Length() > 0,
		Failed:       doc.Find("#load-failed").Length() > 0,
	}
	doc.Find("section[id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		summary.Sections = append(summary.Sections, id)
	})
	return summary, nil
}

// PrintPageSummary outputs the counts of a rendered page.
func (p *Printer) PrintPageSummary(summary *PageSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	switch {
	case summary.Failed:
		sb.WriteString("State:    failed\n")
	case summary.Loading:
		sb.WriteString("State:    loading\n")
	default:
		sb.WriteString("State:    loaded\n")
	}
	fmt.Fprintf(&sb, "Sections: %s\n", strings.Join(summary.Sections, ", "))
	fmt.Fprintf(&sb, "Skills:   %d cards\n", summary.SkillCards)
	fmt.Fprintf(&sb, "Projects: %d cards\n", summary.ProjectCards)
	fmt.Fprintf(&sb, "Work:     %d blocks", summary.WorkBlocks)

	p.printBox("RENDERED PAGE", sb.String())
}
