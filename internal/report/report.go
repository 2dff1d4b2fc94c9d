// Package report renders recommendations as Markdown prescription cards and serves them as HTML.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/myrjola/overload/internal/progression"
)

//go:embed page.gohtml
var pageTemplate string

// Card is one exercise's prescription.
type Card struct {
	ExerciseName   string
	Recommendation progression.Recommendation
}

// Renderer converts cards to HTML. It is safe for concurrent use.
type Renderer struct {
	markdown goldmark.Markdown
	page     *template.Template
}

func NewRenderer() (*Renderer, error) {
	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{
		// Raw HTML in the source is omitted since goldmark runs without html.WithUnsafe.
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
		page:     page,
	}, nil
}

var decisionTitles = map[progression.Decision]string{ //nolint:gochecknoglobals // lookup table.
	progression.DecisionBaseline:          "Starting point",
	progression.DecisionProgression:       "Add load",
	progression.DecisionDeload:            "Deload",
	progression.DecisionDoubleProgression: "Add reps",
}

// Markdown renders c as a Markdown card: a heading, the working prescription, the reason and a table of sets.
func Markdown(c Card) string {
	rec := c.Recommendation
	var b strings.Builder
	name := c.ExerciseName
	if name == "" {
		name = rec.ExerciseID
	}
	fmt.Fprintf(&b, "## %s\n\n", escape(name))

	title, ok := decisionTitles[rec.Decision]
	if !ok {
		title = string(rec.Decision)
	}
	fmt.Fprintf(&b, "**%s:** %d × %d", title, rec.WorkingSets, rec.WorkingReps)
	if rec.WorkingWeight != nil {
		fmt.Fprintf(&b, " @ %s %s", formatFloat(*rec.WorkingWeight), rec.Unit)
	}
	b.WriteString("\n\n")
	if rec.Reason != "" {
		fmt.Fprintf(&b, "> %s\n\n", escape(rec.Reason))
	}

	b.WriteString("| Set | Type | Target |\n|---:|---|---|\n")
	for _, s := range rec.Sets {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", s.SetIndex+1, s.Type, target(s))
	}
	return b.String()
}

// target describes the values of a set, for example "135 lbs × 8", "12 reps" or "45 s".
func target(s progression.SuggestedSet) string {
	var parts []string
	values, seconds := s.Values, s.ValuesSec
	for _, d := range s.Types {
		switch d {
		case progression.DimensionTime:
			if len(seconds) > 0 {
				parts = append(parts, strconv.Itoa(seconds[0])+" s")
				seconds = seconds[1:]
			}
		case progression.DimensionWeight:
			if len(values) > 0 {
				load := formatFloat(values[0])
				if len(s.Units) > 0 {
					load += " " + string(s.Units[0])
				}
				parts = append(parts, load)
				values = values[1:]
			}
		case progression.DimensionReps:
			if len(values) > 0 {
				parts = append(parts, formatFloat(values[0])+" reps")
				values = values[1:]
			}
		}
	}
	return strings.Join(parts, " × ")
}

// HTML converts the Markdown card of c to HTML.
func (r *Renderer) HTML(c Card) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(Markdown(c)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark escapes the source and omits raw HTML.
}

type pageData struct {
	Title   string
	Cards   []template.HTML
	Missing []string
}

// Page writes a standalone HTML document with one card per recommendation.
func (r *Renderer) Page(w io.Writer, title string, cards []Card, missing []string) error {
	data := pageData{Title: title, Cards: make([]template.HTML, 0, len(cards)), Missing: missing}
	for _, c := range cards {
		card, err := r.HTML(c)
		if err != nil {
			return fmt.Errorf("render %s: %w", c.Recommendation.ExerciseID, err)
		}
		data.Cards = append(data.Cards, card)
	}
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// formatFloat removes trailing zeros, so 135.0 becomes 135 and 62.50 becomes 62.5.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var markdownEscaper = strings.NewReplacer( //nolint:gochecknoglobals // stateless replacer.
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "|", `\|`, "<", `\<`, "[", `\[`, "]", `\]`, "#", `\#`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
