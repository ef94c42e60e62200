// Package sdlc turns a project description into an analysis, a requirements
// document, a system design and an implementation plan.
package sdlc

// Complexity levels
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Analysis summarizes what a project description asks for
type Analysis struct {
	ProjectType    string   `json:"project_type"`
	Complexity     string   `json:"complexity"`
	EstimatedHours int      `json:"estimated_hours"`
	Technologies   []string `json:"technologies"`
	KeyFeatures    []string `json:"key_features"`
	Risks          []string `json:"risks"`
}

type Requirement struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
}

type UserStory struct {
	ID                 string   `json:"id"`
	Story              string   `json:"story"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// SRS is a software requirements specification
type SRS struct {
	ProjectTitle              string        `json:"project_title"`
	Overview                  string        `json:"overview"`
	Scope                     string        `json:"scope"`
	FunctionalRequirements    []Requirement `json:"functional_requirements"`
	NonFunctionalRequirements []Requirement `json:"non_functional_requirements"`
	UserStories               []UserStory   `json:"user_stories"`
	AcceptanceCriteria        []string      `json:"acceptance_criteria"`
	Constraints               []string      `json:"constraints"`
	Assumptions               []string      `json:"assumptions"`
}

type Component struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DataModel struct {
	Name          string `json:"name"`
	Fields        string `json:"fields"`
	Relationships string `json:"relationships"`
}

type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// TechStack groups recommended technologies by layer
type TechStack struct {
	Frontend       []string `json:"frontend"`
	Backend        []string `json:"backend"`
	Database       []string `json:"database"`
	Infrastructure []string `json:"infrastructure"`
	Tools          []string `json:"tools"`
}

// Design is a system design document
type Design struct {
	ArchitectureType       string      `json:"architecture_type"`
	Components             []Component `json:"components"`
	DataModels             []DataModel `json:"data_models"`
	APIEndpoints           []Endpoint  `json:"api_endpoints"`
	TechnologyStack        TechStack   `json:"technology_stack"`
	SecurityConsiderations []string    `json:"security_considerations"`
	ScalabilityPlan        string      `json:"scalability_plan"`
}

type Phase struct {
	Name            string `json:"name"`
	DurationPercent int    `json:"duration_percent"`
	Description     string `json:"description"`
	Hours           int    `json:"hours"`
	Days            int    `json:"days"`
}

type PlanTask struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Phase          string   `json:"phase"`
	EstimatedHours int      `json:"estimated_hours"`
	Dependencies   []string `json:"dependencies"`
}

type PlanMilestone struct {
	Name        string `json:"name"`
	Deliverable string `json:"deliverable"`
	Phase       string `json:"phase"`
}

type Dependency struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type Timeline struct {
	TotalHours int     `json:"total_hours"`
	TotalDays  int     `json:"total_days"`
	TotalWeeks int     `json:"total_weeks"`
	StartDate  string  `json:"start_date"`
	Phases     []Phase `json:"phases"`
}

type Resources struct {
	Developers int      `json:"developers"`
	Roles      []string `json:"roles"`
	Tools      []string `json:"tools"`
}

// Plan is an implementation plan with a task breakdown
type Plan struct {
	Phases       []Phase         `json:"phases"`
	Tasks        []PlanTask      `json:"tasks"`
	Milestones   []PlanMilestone `json:"milestones"`
	Dependencies []Dependency    `json:"dependencies"`
	Timeline     Timeline        `json:"timeline"`
	Resources    Resources       `json:"resource_allocation"`
}

// Documents is the full generated set for one project
type Documents struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Analysis Analysis `json:"analysis"`
	SRS      SRS      `json:"srs"`
	Design   Design   `json:"design"`
	Plan     Plan     `json:"plan"`
}
