// Package export renders candidate lists as CSV, plain text, or a printable
// text document.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"namesmith/internal/domain"
)

// Format selects the export layout.
type Format string

const (
	FormatCSV Format = "csv"
	FormatTXT Format = "txt"
	FormatPDF Format = "pdf"
)

// ParseFormat maps user input to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatTXT, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Extension returns the file extension for a text export of f.
func (f Format) Extension() string {
	if f == FormatPDF {
		return ".txt"
	}
	return "." + string(f)
}

// Export renders candidates in format f. The output depends only on its input.
func Export(candidates []domain.Candidate, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return exportCSV(candidates)
	case FormatTXT:
		return exportTXT(candidates), nil
	case FormatPDF:
		return exportDocument(candidates), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func exportCSV(candidates []domain.Candidate) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"Name", "Category", "Created", "Favorite", "Rating", "Available", "Taken", "Unknown"}}
	for _, c := range candidates {
		available, taken, unknown := c.Domains.Partition()
		rows = append(rows, []string{
			c.Name,
			c.Category,
			timestamp(c.CreatedAt),
			fmt.Sprintf("%t", c.IsFavorite),
			fmt.Sprintf("%d", c.Rating),
			strings.Join(available, " "),
			strings.Join(taken, " "),
			strings.Join(unknown, " "),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func exportTXT(candidates []domain.Candidate) []byte {
	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n")
		}
		writeEntry(&b, c)
	}
	return []byte(b.String())
}

func exportDocument(candidates []domain.Candidate) []byte {
	var b strings.Builder
	b.WriteString("BUSINESS NAME CANDIDATES\n")
	b.WriteString(strings.Repeat("=", 24) + "\n")
	fmt.Fprintf(&b, "Total: %d\n\n", len(candidates))
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. ", i+1)
		writeEntry(&b, c)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func writeEntry(b *strings.Builder, c domain.Candidate) {
	available, taken, unknown := c.Domains.Partition()
	fmt.Fprintf(b, "%s\n", c.Name)
	fmt.Fprintf(b, "Category: %s\n", c.Category)
	fmt.Fprintf(b, "Created: %s\n", timestamp(c.CreatedAt))
	fmt.Fprintf(b, "Favorite: %s\n", yesNo(c.IsFavorite))
	if c.Rating > 0 {
		fmt.Fprintf(b, "Rating: %d/%d\n", c.Rating, domain.MaxRating)
		if c.RatingComment != "" {
			fmt.Fprintf(b, "Comment: %s\n", c.RatingComment)
		}
	}
	fmt.Fprintf(b, "Available: %s\n", listOrNone(available))
	fmt.Fprintf(b, "Taken: %s\n", listOrNone(taken))
	fmt.Fprintf(b, "Unknown: %s\n", listOrNone(unknown))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func listOrNone(exts []string) string {
	if len(exts) == 0 {
		return "none"
	}
	return strings.Join(exts, ", ")
}
