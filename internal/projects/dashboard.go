package projects

import (
	"time"

	"github.com/web3guy0/autobid/internal/database"
)

type ProjectSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Client    string    `json:"client"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Deadline  time.Time `json:"deadline"`
	RiskLevel string    `json:"risk_level"`
}

type TaskSummary struct {
	ID        uint       `json:"id"`
	ProjectID uint       `json:"project_id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Priority  int        `json:"priority"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

type Metrics struct {
	TotalProjects     int     `json:"total_projects"`
	ActiveProjects    int     `json:"active_projects"`
	CompletedProjects int     `json:"completed_projects"`
	TotalHoursTracked float64 `json:"total_hours_tracked"`
	CompletionRate    float64 `json:"completion_rate"`
}

// Dashboard is the project management overview
type Dashboard struct {
	ActiveProjects    []ProjectSummary `json:"active_projects"`
	UpcomingDeadlines []ProjectSummary `json:"upcoming_deadlines"`
	HighRiskProjects  []ProjectSummary `json:"high_risk_projects"`
	TodayTasks        []TaskSummary    `json:"today_tasks"`
	Metrics           Metrics          `json:"metrics"`
}

const deadlineWindow = 7 * 24 * time.Hour

// Dashboard collects active work, deadlines within a week, high risk
// projects and tasks due today.
func (m *Manager) Dashboard() (*Dashboard, error) {
	all, err := m.db.ListManagedProjects()
	if err != nil {
		return nil, err
	}
	now := m.now()

	d := &Dashboard{
		ActiveProjects:    []ProjectSummary{},
		UpcomingDeadlines: []ProjectSummary{},
		HighRiskProjects:  []ProjectSummary{},
		TodayTasks:        []TaskSummary{},
	}

	for i := range all {
		p := &all[i]
		d.Metrics.TotalProjects++
		d.Metrics.TotalHoursTracked += p.ActualHours
		if p.Status == database.StatusCompleted {
			d.Metrics.CompletedProjects++
		}
		if p.IsActive() {
			d.ActiveProjects = append(d.ActiveProjects, summarize(p))
		}
		if p.Deadline.After(now) && p.Deadline.Before(now.Add(deadlineWindow)) && p.Status != database.StatusCompleted {
			d.UpcomingDeadlines = append(d.UpcomingDeadlines, summarize(p))
		}
		if p.RiskLevel == RiskHigh {
			d.HighRiskProjects = append(d.HighRiskProjects, summarize(p))
		}
	}
	d.Metrics.ActiveProjects = len(d.ActiveProjects)
	if d.Metrics.TotalProjects > 0 {
		d.Metrics.CompletionRate = float64(d.Metrics.CompletedProjects) / float64(d.Metrics.TotalProjects) * 100
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tasks, err := m.db.TasksDueBetween(start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		d.TodayTasks = append(d.TodayTasks, TaskSummary{
			ID:        t.ID,
			ProjectID: t.ProjectID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
		})
	}
	return d, nil
}

func summarize(p *database.ManagedProject) ProjectSummary {
	return ProjectSummary{
		ID:        p.ID,
		Title:     p.Title,
		Client:    p.ClientName,
		Status:    p.Status,
		Progress:  p.Progress,
		Deadline:  p.Deadline,
		RiskLevel: p.RiskLevel,
	}
}
