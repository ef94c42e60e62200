package projects

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/web3guy0/autobid/internal/database"
)

const reportLimit = 5

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date":     func(t time.Time) string { return t.Format("2006-01-02") },
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"due": func(t *time.Time) string {
		if t == nil {
			return "Not set"
		}
		return t.Format("2006-01-02")
	},
}).Parse(`# Project Report: {{.Project.Title}}

## Overview
- **Status**: {{.Project.Status}}
- **Progress**: {{.Project.Progress}}%
- **Client**: {{.Project.ClientName}}
- **Budget**: {{.Project.Currency}} {{.Project.Budget.StringFixed 2}}
- **Deadline**: {{date .Project.Deadline}}

## Progress Summary
- **Total Tasks**: {{.Total}}
- **Completed**: {{.Completed}} ({{.CompletedPct}}%)
- **In Progress**: {{.InProgress}}
- **Blocked**: {{.Blocked}}

## Time Tracking
- **Estimated Hours**: {{printf "%.1f" .EstimatedHours}}
- **Actual Hours**: {{printf "%.1f" .Project.ActualHours}}
- **Efficiency**: {{.Efficiency}}

## Risk Assessment
- **Risk Level**: {{with .Project.RiskLevel}}{{.}}{{else}}Not assessed{{end}}
{{- if .Project.RiskFactors}}
- **Risk Factors**:
{{- range .Project.RiskFactors}}
  - {{.}}
{{- end}}
{{- end}}

## Recent Activities
{{- range .Recent}}
- {{datetime .Timestamp}}: {{.Subject}}
{{- else}}
- None
{{- end}}

## Next Steps
{{- range .Upcoming}}
- {{.Title}} (Due: {{due .DueDate}})
{{- else}}
- None
{{- end}}

---
*Report generated on {{.Generated.Format "2006-01-02 15:04:05"}}*
`))

type reportData struct {
	Project        *database.ManagedProject
	Total          int
	Completed      int
	CompletedPct   int
	InProgress     int
	Blocked        int
	EstimatedHours float64
	Efficiency     string
	Recent         []database.Communication
	Upcoming       []database.Task
	Generated      time.Time
}

// Report renders a Markdown status report for a project
func (m *Manager) Report(projectID uint) (string, error) {
	p, err := m.db.GetManagedProject(projectID)
	if err != nil {
		return "", err
	}

	d := reportData{Project: p, Total: len(p.Tasks), Efficiency: "N/A", Generated: m.now()}
	for _, t := range p.Tasks {
		d.EstimatedHours += t.EstimatedHours
		switch t.Status {
		case database.TaskCompleted:
			d.Completed++
		case database.TaskInProgress:
			d.InProgress++
			d.Upcoming = append(d.Upcoming, t)
		case database.TaskBlocked:
			d.Blocked++
		case database.TaskTodo:
			d.Upcoming = append(d.Upcoming, t)
		}
	}
	if d.Total > 0 {
		d.CompletedPct = int(math.Round(float64(d.Completed) / float64(d.Total) * 100))
	}
	if p.ActualHours > 0 {
		d.Efficiency = fmt.Sprintf("%d%%", int(math.Round(d.EstimatedHours/p.ActualHours*100)))
	}

	sort.SliceStable(d.Upcoming, func(i, j int) bool {
		a, b := d.Upcoming[i].DueDate, d.Upcoming[j].DueDate
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})
	if len(d.Upcoming) > reportLimit {
		d.Upcoming = d.Upcoming[:reportLimit]
	}

	// communications are preloaded newest first
	d.Recent = p.Communications
	if len(d.Recent) > reportLimit {
		d.Recent = d.Recent[:reportLimit]
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, d); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sb.String(), nil
}
