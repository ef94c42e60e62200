package sdlc

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SRS
// ═══════════════════════════════════════════════════════════════════════════════

var nonFunctionalRequirements = []Requirement{
	{ID: "NFR001", Category: "Performance", Description: "System should respond within 2 seconds for all user interactions"},
	{ID: "NFR002", Category: "Security", Description: "All data transmissions must be encrypted using industry standards"},
	{ID: "NFR003", Category: "Usability", Description: "Interface should be intuitive and require minimal training"},
	{ID: "NFR004", Category: "Reliability", Description: "System uptime should be 99.9% excluding scheduled maintenance"},
}

const maxUserStories = 5

// GenerateSRS builds the requirements document from an analysis. Every
// key feature becomes a functional requirement; the first five also get a
// user story.
func GenerateSRS(title string, an Analysis) SRS {
	if title == "" {
		title = "Project"
	}

	srs := SRS{
		ProjectTitle: title,
		Overview: fmt.Sprintf("This document outlines the software requirements for %s, a %s complexity %s project.",
			title, an.Complexity, an.ProjectType),
		Scope: fmt.Sprintf("The project encompasses development of a complete %s with estimated %d hours of development effort.",
			an.ProjectType, an.EstimatedHours),
		FunctionalRequirements:    []Requirement{},
		NonFunctionalRequirements: slices.Clone(nonFunctionalRequirements),
		UserStories:               []UserStory{},
		AcceptanceCriteria: []string{
			"All functional requirements are implemented and tested",
			"System passes all quality assurance tests",
			"Documentation is complete and accurate",
			"User acceptance testing is successful",
		},
		Constraints: []string{
			"Project complexity: " + an.Complexity,
			fmt.Sprintf("Estimated timeline: %d hours", an.EstimatedHours),
			"Technologies: " + strings.Join(an.Technologies, ", "),
		},
		Assumptions: []string{
			"Client will provide timely feedback and clarifications",
			"Required third-party services/APIs will be available",
			"Development environment will be stable",
		},
	}

	for i, feature := range an.KeyFeatures {
		n := i + 1
		priority := "Medium"
		if n <= 3 {
			priority = "High"
		}
		srs.FunctionalRequirements = append(srs.FunctionalRequirements, Requirement{
			ID:          fmt.Sprintf("FR%03d", n),
			Description: feature,
			Priority:    priority,
		})
		if n <= maxUserStories {
			srs.UserStories = append(srs.UserStories, UserStory{
				ID:    fmt.Sprintf("US%03d", n),
				Story: fmt.Sprintf("As a user, I want to %s so that I can achieve my goals", strings.ToLower(feature)),
				AcceptanceCriteria: []string{
					feature + " is fully functional",
					"User can access this feature easily",
				},
			})
		}
	}

	log.Debug().Int("requirements", len(srs.FunctionalRequirements)).Msg("📄 SRS generated")
	return srs
}

// ═══════════════════════════════════════════════════════════════════════════════
// DESIGN
// ═══════════════════════════════════════════════════════════════════════════════

var architectures = map[string]string{
	"web_app":     "Three-tier architecture (Frontend, Backend, Database)",
	"mobile_app":  "Client-Server architecture with REST API",
	"api":         "Microservices architecture with API Gateway",
	"desktop_app": "Model-View-Controller (MVC) architecture",
}

const defaultArchitecture = "Layered architecture"

var (
	baseComponents = []Component{
		{"Authentication Service", "Handles user authentication and authorization"},
		{"Database Layer", "Manages data persistence and retrieval"},
		{"Business Logic Layer", "Implements core business rules and workflows"},
	}
	typeComponents = map[string][]Component{
		"web_app": {
			{"Frontend UI", "User interface components and views"},
			{"API Gateway", "Manages API requests and responses"},
		},
		"mobile_app": {
			{"Mobile Client", "Native mobile application"},
			{"Push Notification Service", "Handles push notifications"},
			{"Offline Sync Module", "Manages offline data synchronization"},
		},
		"api": {
			{"API Gateway", "Routes and manages API requests"},
			{"Service Registry", "Manages microservice discovery"},
			{"Message Queue", "Handles asynchronous communication"},
		},
	}
)

var securityConsiderations = []string{
	"Implement OAuth 2.0 for authentication",
	"Use HTTPS for all communications",
	"Implement input validation and sanitization",
	"Regular security audits and penetration testing",
	"Implement rate limiting for API endpoints",
}

var (
	frontendTechs = []string{"javascript"}
	backendTechs  = []string{"python", "java", "csharp", "php", "ruby", "go", "rust"}
	databaseTechs = []string{"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "firebase"}
	infraTechs    = []string{"aws", "azure", "gcp", "heroku", "vercel", "netlify"}
)

// entitiesFromRequirements is how many requirements get a model and CRUD routes
const entitiesFromRequirements = 3

// GenerateDesign derives architecture, components, models, endpoints and a
// technology stack.
func GenerateDesign(srs SRS, an Analysis) Design {
	arch, ok := architectures[an.ProjectType]
	if !ok {
		arch = defaultArchitecture
	}

	d := Design{
		ArchitectureType: arch,
		Components:       append(slices.Clone(baseComponents), typeComponents[an.ProjectType]...),
		DataModels: []DataModel{
			{"User", "id, username, email, password_hash, created_at, updated_at", "Has many: Sessions, Activities"},
			{"Session", "id, user_id, token, expires_at, created_at", "Belongs to: User"},
		},
		APIEndpoints: []Endpoint{
			{"POST", "/api/auth/login", "User authentication"},
			{"POST", "/api/auth/logout", "User logout"},
			{"GET", "/api/user/profile", "Get user profile"},
		},
		TechnologyStack:        techStack(an),
		SecurityConsiderations: slices.Clone(securityConsiderations),
		ScalabilityPlan:        "Horizontal scaling with load balancing and caching layers",
	}

	title := cases.Title(language.English)
	for i, req := range srs.FunctionalRequirements {
		if i == entitiesFromRequirements {
			break
		}
		words := strings.Fields(req.Description)
		if len(words) == 0 {
			continue
		}
		word := strings.ToLower(words[0])
		d.DataModels = append(d.DataModels, DataModel{
			Name:          title.String(word),
			Fields:        "id, name, description, status, created_at, updated_at",
			Relationships: "Belongs to: User",
		})
		d.APIEndpoints = append(d.APIEndpoints,
			Endpoint{"GET", "/api/" + word + "s", "List all " + word + "s"},
			Endpoint{"POST", "/api/" + word + "s", "Create new " + word},
			Endpoint{"GET", "/api/" + word + "s/{id}", "Get " + word + " by ID"},
			Endpoint{"PUT", "/api/" + word + "s/{id}", "Update " + word},
			Endpoint{"DELETE", "/api/" + word + "s/{id}", "Delete " + word},
		)
	}

	log.Debug().Str("architecture", arch).Int("components", len(d.Components)).Msg("🏗️ Design generated")
	return d
}

func techStack(an Analysis) TechStack {
	s := TechStack{}
	for _, tech := range an.Technologies {
		switch {
		case slices.Contains(frontendTechs, tech):
			s.Frontend = append(s.Frontend, tech)
		case slices.Contains(backendTechs, tech):
			s.Backend = append(s.Backend, tech)
		case slices.Contains(databaseTechs, tech):
			s.Database = append(s.Database, tech)
		case slices.Contains(infraTechs, tech):
			s.Infrastructure = append(s.Infrastructure, tech)
		}
	}

	if len(s.Frontend) == 0 && (an.ProjectType == "web_app" || an.ProjectType == "mobile_app") {
		s.Frontend = []string{"React", "Tailwind CSS"}
	}
	if len(s.Backend) == 0 {
		s.Backend = []string{"Node.js", "Express"}
	}
	if len(s.Database) == 0 {
		s.Database = []string{"PostgreSQL", "Redis"}
	}
	if len(s.Infrastructure) == 0 {
		s.Infrastructure = []string{"Docker", "Kubernetes"}
	}
	s.Tools = []string{"Git", "Jenkins/GitHub Actions", "Jest/Pytest", "Postman"}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════════
// PLAN
// ═══════════════════════════════════════════════════════════════════════════════

const (
	phaseSetup       = "Setup & Planning"
	phaseDevelopment = "Core Development"
	phaseTesting     = "Integration & Testing"
	phaseDeployment  = "Deployment & Documentation"
)

var (
	setupTasks = []string{
		"Set up development environment",
		"Configure version control",
		"Set up CI/CD pipeline",
		"Create project documentation structure",
		"Set up development database",
	}
	testTasks = []string{
		"Write unit tests",
		"Perform integration testing",
		"Conduct security testing",
		"User acceptance testing",
		"Performance optimization",
	}
	deployTasks = []string{
		"Prepare production environment",
		"Create deployment scripts",
		"Write user documentation",
		"Create admin documentation",
		"Final deployment and handover",
	}
)

var baseRoles = []string{"Project Manager", "Backend Developer", "QA Engineer"}

var typeRoles = map[string][]string{
	"web_app":      {"Frontend Developer", "UI/UX Designer"},
	"mobile_app":   {"Mobile Developer", "UI/UX Designer"},
	"api":          {"DevOps Engineer", "API Architect"},
	"data_science": {"Data Scientist", "ML Engineer"},
	"blockchain":   {"Blockchain Developer", "Security Auditor"},
}

// GeneratePlan splits totalHours over four phases (10/50/25/15 %) and
// builds the task list, milestones, dependencies and resourcing.
func GeneratePlan(design Design, an Analysis, totalHours int, start time.Time) Plan {
	phases := []Phase{
		{Name: phaseSetup, DurationPercent: 10, Description: "Project setup, environment configuration, and detailed planning"},
		{Name: phaseDevelopment, DurationPercent: 50, Description: "Implementation of core features and functionality"},
		{Name: phaseTesting, DurationPercent: 25, Description: "System integration, testing, and bug fixes"},
		{Name: phaseDeployment, DurationPercent: 15, Description: "Deployment preparation, documentation, and handover"},
	}
	for i := range phases {
		phases[i].Hours = totalHours * phases[i].DurationPercent / 100
		phases[i].Days = max(1, phases[i].Hours/8)
	}

	tasks := planTasks(design, phases)
	p := Plan{
		Phases: phases,
		Tasks:  tasks,
		Milestones: []PlanMilestone{
			{"Project Kickoff", "Development environment setup and project plan approved", phaseSetup},
			{"Alpha Release", "Core features implemented and functional", phaseDevelopment},
			{"Beta Release", "All features complete with testing", phaseTesting},
			{"Production Release", "Final deployment with documentation", phaseDeployment},
		},
		Dependencies: dependencies(tasks),
		Timeline: Timeline{
			TotalHours: totalHours,
			TotalDays:  max(1, totalHours/8),
			TotalWeeks: max(1, totalHours/40),
			StartDate:  start.Format("2006-01-02"),
			Phases:     phases,
		},
		Resources: Resources{
			Developers: developersNeeded(totalHours, an.Complexity),
			Roles:      roles(an.ProjectType),
			Tools:      design.TechnologyStack.Tools,
		},
	}

	log.Debug().Int("tasks", len(p.Tasks)).Int("hours", totalHours).Msg("📋 Plan generated")
	return p
}

func taskID(n int) string { return fmt.Sprintf("T%03d", n) }

func planTasks(design Design, phases []Phase) []PlanTask {
	var tasks []PlanTask
	next := 1
	add := func(name, phase string, hours int, deps []string) {
		if deps == nil {
			deps = []string{}
		}
		tasks = append(tasks, PlanTask{ID: taskID(next), Name: name, Phase: phase, EstimatedHours: hours, Dependencies: deps})
		next++
	}

	for _, name := range setupTasks {
		add(name, phaseSetup, phases[0].Hours/len(setupTasks), nil)
	}

	for _, c := range design.Components {
		add("Implement "+c.Name, phaseDevelopment, phases[1].Hours/max(1, len(design.Components)), []string{"T001", "T002"})
	}

	// testing depends on the first development tasks
	firstDev := len(setupTasks) + 1
	var devDeps []string
	for n := firstDev; n < next && len(devDeps) < 3; n++ {
		devDeps = append(devDeps, taskID(n))
	}
	for _, name := range testTasks {
		add(name, phaseTesting, phases[2].Hours/len(testTasks), slices.Clone(devDeps))
	}

	for _, name := range deployTasks {
		add(name, phaseDeployment, phases[3].Hours/len(deployTasks), []string{taskID(next - len(testTasks) - 1)})
	}
	return tasks
}

func dependencies(tasks []PlanTask) []Dependency {
	deps := []Dependency{}
	for _, t := range tasks {
		for _, d := range t.Dependencies {
			deps = append(deps, Dependency{From: d, To: t.ID, Type: "finish-to-start"})
		}
	}
	return deps
}

func developersNeeded(totalHours int, complexity string) int {
	weeks := float64(totalHours) / 40
	high := complexity == ComplexityHigh
	switch {
	case weeks <= 2:
		return 1
	case weeks <= 4:
		if high {
			return 2
		}
		return 1
	case weeks <= 12:
		if high {
			return 3
		}
		return 2
	default:
		if high {
			return 4
		}
		return 3
	}
}

func roles(projectType string) []string {
	out := slices.Clone(baseRoles)
	for _, r := range typeRoles[projectType] {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
