package sdlc

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Export formats
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Export writes the SRS, design and plan into a new directory under
// baseDir and returns the written paths keyed by "srs", "design" and
// "plan".
func Export(docs *Documents, baseDir, format string, now time.Time) (map[string]string, error) {
	type file struct {
		key, name string
		render    func() ([]byte, error)
	}

	var files []file
	switch format {
	case FormatJSON:
		files = []file{
			{"srs", "srs.json", func() ([]byte, error) { return json.MarshalIndent(docs.SRS, "", "  ") }},
			{"design", "design.json", func() ([]byte, error) { return json.MarshalIndent(docs.Design, "", "  ") }},
			{"plan", "implementation_plan.json", func() ([]byte, error) { return json.MarshalIndent(docs.Plan, "", "  ") }},
		}
	case FormatMarkdown:
		files = []file{
			{"srs", "srs.md", func() ([]byte, error) { return []byte(SRSMarkdown(docs.SRS)), nil }},
			{"design", "design.md", func() ([]byte, error) { return []byte(DesignMarkdown(docs.Design)), nil }},
			{"plan", "implementation_plan.md", func() ([]byte, error) { return []byte(PlanMarkdown(docs.Plan)), nil }},
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	name := "sdlc_output_" + now.Format("20060102_150405")
	if len(docs.ID) >= 8 {
		name += "_" + docs.ID[:8]
	}
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	paths := make(map[string]string, len(files))
	for _, f := range files {
		data, err := f.render()
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f.key, err)
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths[f.key] = path
	}

	log.Info().Str("dir", dir).Str("format", format).Msg("📦 SDLC documents exported")
	return paths, nil
}

func SRSMarkdown(srs SRS) string {
	var b strings.Builder
	b.WriteString("# Software Requirements Specification\n\n")
	fmt.Fprintf(&b, "## %s\n\n", srs.ProjectTitle)
	fmt.Fprintf(&b, "### Overview\n%s\n\n", srs.Overview)
	fmt.Fprintf(&b, "### Scope\n%s\n\n", srs.Scope)
	b.WriteString("### Functional Requirements\n")
	for _, r := range srs.FunctionalRequirements {
		fmt.Fprintf(&b, "- **%s**: %s\n", r.ID, r.Description)
	}
	b.WriteString("\n### Non-Functional Requirements\n")
	for _, r := range srs.NonFunctionalRequirements {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", r.ID, r.Category, r.Description)
	}
	b.WriteString("\n### User Stories\n")
	for _, s := range srs.UserStories {
		fmt.Fprintf(&b, "- **%s**: %s\n", s.ID, s.Story)
	}
	return b.String()
}

func DesignMarkdown(d Design) string {
	var b strings.Builder
	b.WriteString("# System Design Document\n\n")
	fmt.Fprintf(&b, "## Architecture\n%s\n\n", d.ArchitectureType)
	b.WriteString("## Components\n")
	for _, c := range d.Components {
		fmt.Fprintf(&b, "### %s\n%s\n\n", c.Name, c.Description)
	}
	b.WriteString("## Data Models\n")
	for _, m := range d.DataModels {
		fmt.Fprintf(&b, "### %s\n- Fields: %s\n- Relationships: %s\n\n", m.Name, m.Fields, m.Relationships)
	}
	b.WriteString("## API Endpoints\n")
	for _, e := range d.APIEndpoints {
		fmt.Fprintf(&b, "- `%s %s` %s\n", e.Method, e.Path, e.Description)
	}
	return b.String()
}

func PlanMarkdown(p Plan) string {
	var b strings.Builder
	b.WriteString("# Implementation Plan\n\n")
	b.WriteString("## Timeline\n")
	fmt.Fprintf(&b, "- Total Hours: %d\n", p.Timeline.TotalHours)
	fmt.Fprintf(&b, "- Total Days: %d\n", p.Timeline.TotalDays)
	fmt.Fprintf(&b, "- Total Weeks: %d\n\n", p.Timeline.TotalWeeks)
	b.WriteString("## Phases\n")
	for _, ph := range p.Phases {
		fmt.Fprintf(&b, "### %s\n- Duration: %d hours (%d days)\n- Description: %s\n\n", ph.Name, ph.Hours, ph.Days, ph.Description)
	}
	b.WriteString("## Milestones\n")
	for _, m := range p.Milestones {
		fmt.Fprintf(&b, "- **%s**: %s\n", m.Name, m.Deliverable)
	}
	return b.String()
}
