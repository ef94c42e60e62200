package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bidding models

// SeenProject is a snapshot of a fetched project and what the bot decided
type SeenProject struct {
	ID          int64 `gorm:"primaryKey;autoIncrement:false"`
	Title       string
	OwnerID     int64           `gorm:"index"`
	MinBudget   decimal.Decimal `gorm:"type:decimal(20,2)"`
	MaxBudget   decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency    string
	BudgetType  string
	BidCount    int
	Skills      []string `gorm:"serializer:json"`
	Elite       bool
	Priority    int
	Decision    string `gorm:"index"` // "bid", "dry_run", "skipped", "failed"
	SkipReason  string
	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bid is one bid attempt. Rows are never updated.
type Bid struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RequestID   string `gorm:"uniqueIndex"`
	ProjectID   int64  `gorm:"index"`
	BidID       int64  `gorm:"index"`
	Title       string
	Amount      decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency    string
	Period      int
	Description string
	Status      string `gorm:"index"` // "success" or "failed"
	Error       string
	Response    string
	DryRun      bool
	CreatedAt   time.Time
}

// Project management models

// Managed project statuses. Any status may be set at any time.
const (
	StatusAwarded    = "awarded"
	StatusPlanning   = "planning"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusRevision   = "revision"
	StatusCompleted  = "completed"
	StatusDelivered  = "delivered"
	StatusPaid       = "paid"
	StatusDisputed   = "disputed"
	StatusCancelled  = "cancelled"
)

// ValidProjectStatus reports whether s is a known managed project status
func ValidProjectStatus(s string) bool {
	switch s {
	case StatusAwarded, StatusPlanning, StatusInProgress, StatusReview, StatusRevision,
		StatusCompleted, StatusDelivered, StatusPaid, StatusDisputed, StatusCancelled:
		return true
	}
	return false
}

// Task statuses
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskBlocked    = "blocked"
	TaskReview     = "review"
	TaskCompleted  = "completed"
)

// ValidTaskStatus reports whether s is a known task status
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskBlocked, TaskReview, TaskCompleted:
		return true
	}
	return false
}

// Priorities, shared by projects and tasks
const (
	PriorityLow      = 1
	PriorityMedium   = 2
	PriorityHigh     = 3
	PriorityCritical = 4
)

// Communication types
const (
	MessageClient   = "client_message"
	MessageInternal = "internal_note"
	MessageUpdate   = "update"
)

// Milestone is a dated checkpoint stored on the project row
type Milestone struct {
	Name       string    `json:"name"`
	Percentage int       `json:"percentage"`
	Due        time.Time `json:"due"`
	Completed  bool      `json:"completed"`
}

// ManagedProject is an awarded project being delivered
type ManagedProject struct {
	ID                  uint  `gorm:"primaryKey;autoIncrement"`
	FreelancerProjectID int64 `gorm:"uniqueIndex"`
	Title               string
	Description         string
	ClientID            int64
	ClientName          string
	Budget              decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency            string
	ProjectType         string
	Status              string `gorm:"index"`
	Priority            int
	Progress            int
	StartDate           *time.Time
	Deadline            time.Time
	ActualEndDate       *time.Time
	EstimatedHours      float64
	ActualHours         float64
	RiskLevel           string
	RiskFactors         []string    `gorm:"serializer:json"`
	Milestones          []Milestone `gorm:"serializer:json"`
	Technologies        []string    `gorm:"serializer:json"`
	Notes               string

	Tasks          []Task          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Communications []Communication `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	TimeLogs       []TimeLog       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Files          []ProjectFile   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether work on the project is ongoing
func (p *ManagedProject) IsActive() bool {
	switch p.Status {
	case StatusPlanning, StatusInProgress, StatusReview:
		return true
	}
	return false
}

type Task struct {
	ID             uint `gorm:"primaryKey;autoIncrement"`
	ProjectID      uint `gorm:"index"`
	Title          string
	Description    string
	Status         string `gorm:"index"`
	Priority       int
	EstimatedHours float64
	ActualHours    float64
	DueDate        *time.Time
	CompletedDate  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Communication struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID   uint   `gorm:"index"`
	MessageType string `gorm:"index"`
	Sender      string
	Recipient   string
	Subject     string
	Content     string
	Timestamp   time.Time `gorm:"index"`
}

type TimeLog struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	ProjectID   uint `gorm:"index"`
	TaskID      *uint
	User        string
	Hours       float64
	Description string
	Date        time.Time
}

type ProjectFile struct {
	ID            uint `gorm:"primaryKey;autoIncrement"`
	ProjectID     uint `gorm:"index"`
	Filename      string
	FileType      string
	Path          string
	Size          int64
	Version       int
	IsDeliverable bool
	UploadedAt    time.Time
}
