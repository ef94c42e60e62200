// Package projects manages awarded projects: import, task breakdown,
// status tracking, risk assessment, reports and client updates.
package projects

import (
	"strings"
	"time"

	"github.com/web3guy0/autobid/internal/database"
)

// Project types with task templates
const (
	TypeWebDevelopment = "web_development"
	TypeMobileApp      = "mobile_app"
	TypeDataScraping   = "data_scraping"
)

type TaskTemplate struct {
	Title    string
	Hours    float64
	Priority int
}

type MilestoneTemplate struct {
	Name       string
	Percentage int
}

// Template is the standard breakdown for one project type
type Template struct {
	Name         string
	Tasks        []TaskTemplate
	Milestones   []MilestoneTemplate
	DurationDays int
	Technologies []string
}

var templates = map[string]Template{
	TypeWebDevelopment: {
		Name: "Web Development",
		Tasks: []TaskTemplate{
			{"Requirements Analysis", 4, database.PriorityHigh},
			{"Design Mockups", 8, database.PriorityHigh},
			{"Frontend Development", 20, database.PriorityMedium},
			{"Backend Development", 20, database.PriorityMedium},
			{"Testing & QA", 8, database.PriorityHigh},
			{"Deployment", 4, database.PriorityCritical},
			{"Documentation", 4, database.PriorityLow},
		},
		Milestones: []MilestoneTemplate{
			{"Design Approval", 20},
			{"Frontend Complete", 50},
			{"Backend Complete", 80},
			{"Final Delivery", 100},
		},
		DurationDays: 14,
		Technologies: []string{"HTML", "CSS", "JavaScript", "React", "Node.js"},
	},
	TypeMobileApp: {
		Name: "Mobile App Development",
		Tasks: []TaskTemplate{
			{"Requirements & User Stories", 6, database.PriorityHigh},
			{"UI/UX Design", 12, database.PriorityHigh},
			{"App Architecture", 8, database.PriorityCritical},
			{"Core Features Development", 40, database.PriorityHigh},
			{"API Integration", 16, database.PriorityMedium},
			{"Testing on Devices", 12, database.PriorityHigh},
			{"App Store Submission", 4, database.PriorityMedium},
		},
		Milestones: []MilestoneTemplate{
			{"Design Approval", 15},
			{"Alpha Version", 40},
			{"Beta Version", 70},
			{"Final Release", 100},
		},
		DurationDays: 21,
		Technologies: []string{"React Native", "Flutter", "Swift", "Kotlin"},
	},
	TypeDataScraping: {
		Name: "Web Scraping",
		Tasks: []TaskTemplate{
			{"Target Analysis", 2, database.PriorityHigh},
			{"Scraper Development", 8, database.PriorityHigh},
			{"Data Validation", 4, database.PriorityMedium},
			{"Error Handling", 4, database.PriorityHigh},
			{"Performance Optimization", 4, database.PriorityMedium},
			{"Documentation & Delivery", 2, database.PriorityLow},
		},
		Milestones: []MilestoneTemplate{
			{"Prototype Working", 30},
			{"Full Scraper Complete", 70},
			{"Final Delivery", 100},
		},
		DurationDays: 3,
		Technologies: []string{"Python", "BeautifulSoup", "Scrapy", "Selenium"},
	},
}

// TemplateFor returns the template for a project type
func TemplateFor(projectType string) (Template, bool) {
	t, ok := templates[projectType]
	return t, ok
}

var (
	titleHints = []struct {
		projectType string
		words       []string
	}{
		{TypeWebDevelopment, []string{"web", "website", "webapp"}},
		{TypeMobileApp, []string{"mobile", "app", "ios", "android"}},
		{TypeDataScraping, []string{"scrape", "scraping", "extract", "crawl"}},
	}
	techHints = []struct {
		projectType string
		techs       []string
	}{
		{TypeWebDevelopment, []string{"react", "angular", "vue", "django", "laravel"}},
		{TypeMobileApp, []string{"react native", "flutter", "swift", "kotlin"}},
		{TypeDataScraping, []string{"python", "scraping", "beautifulsoup", "scrapy"}},
	}
)

// DetectType guesses the project type from title keywords, then from
// technologies. It returns "" when nothing matches.
func DetectType(title string, technologies []string) string {
	lower := strings.ToLower(title)
	for _, hint := range titleHints {
		for _, w := range hint.words {
			if strings.Contains(lower, w) {
				return hint.projectType
			}
		}
	}

	techs := make(map[string]bool, len(technologies))
	for _, t := range technologies {
		techs[strings.ToLower(t)] = true
	}
	for _, hint := range techHints {
		for _, t := range hint.techs {
			if techs[t] {
				return hint.projectType
			}
		}
	}
	return ""
}

// applyTemplate adds template tasks and milestones to a new project. Task
// i of n is due n-i days before the deadline.
func applyTemplate(p *database.ManagedProject, t Template, start time.Time) {
	n := len(t.Tasks)
	for i, tt := range t.Tasks {
		due := p.Deadline.AddDate(0, 0, -(n - i))
		p.Tasks = append(p.Tasks, database.Task{
			Title:          tt.Title,
			Status:         database.TaskTodo,
			Priority:       tt.Priority,
			EstimatedHours: tt.Hours,
			DueDate:        &due,
		})
		p.EstimatedHours += tt.Hours
	}

	span := p.Deadline.Sub(start)
	for _, m := range t.Milestones {
		p.Milestones = append(p.Milestones, database.Milestone{
			Name:       m.Name,
			Percentage: m.Percentage,
			Due:        start.Add(span * time.Duration(m.Percentage) / 100),
		})
	}
}
