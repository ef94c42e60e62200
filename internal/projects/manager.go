package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/freelancer"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidHours  = errors.New("hours must be positive")
	ErrNoAPI         = errors.New("marketplace API not configured")
)

const (
	defaultBidPeriod = 7
	awardedBidsLimit = 100
)

// MarketplaceAPI is the slice of the Freelancer client the manager uses
type MarketplaceAPI interface {
	Project(ctx context.Context, id int64) (*freelancer.Project, error)
	Bids(ctx context.Context, bidderID int64, limit int) ([]freelancer.BidInfo, error)
	SendMessage(ctx context.Context, projectID, toUserID int64, message string) error
	UserID() int64
}

// Manager tracks awarded projects through delivery
type Manager struct {
	db  *database.Database
	api MarketplaceAPI
	now func() time.Time
}

// NewManager creates a manager. api may be nil, which disables import,
// sync and client updates.
func NewManager(db *database.Database, api MarketplaceAPI) *Manager {
	return &Manager{db: db, api: api, now: time.Now}
}

// ImportProject creates a managed project from an awarded marketplace
// project, with tasks from the detected template. An already imported
// project is returned as is.
func (m *Manager) ImportProject(ctx context.Context, freelancerID int64) (*database.ManagedProject, error) {
	if existing, err := m.db.GetManagedProjectByFreelancerID(freelancerID); err == nil {
		log.Info().Int64("project_id", freelancerID).Msg("Project already imported")
		return existing, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if m.api == nil {
		return nil, ErrNoAPI
	}

	src, err := m.api.Project(ctx, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("fetch project %d: %w", freelancerID, err)
	}

	now := m.now()
	period := src.BidPeriod
	if period <= 0 {
		period = defaultBidPeriod
	}

	p := &database.ManagedProject{
		FreelancerProjectID: freelancerID,
		Title:               src.Title,
		Description:         src.Description,
		ClientID:            src.OwnerID,
		ClientName:          src.Owner.Username,
		Budget:              src.Budget.Minimum,
		Currency:            src.CurrencyCode(),
		Status:              database.StatusAwarded,
		Priority:            database.PriorityMedium,
		Deadline:            now.AddDate(0, 0, period),
		Technologies:        src.SkillNames(),
		RiskLevel:           "low",
	}

	p.ProjectType = DetectType(p.Title, p.Technologies)
	if t, ok := TemplateFor(p.ProjectType); ok {
		applyTemplate(p, t, now)
	}

	if err := m.db.CreateManagedProject(p); err != nil {
		return nil, fmt.Errorf("save project %d: %w", freelancerID, err)
	}

	log.Info().
		Int64("project_id", freelancerID).
		Str("title", p.Title).
		Str("type", p.ProjectType).
		Int("tasks", len(p.Tasks)).
		Msg("📥 Imported awarded project")
	return p, nil
}

// SyncAwarded imports every awarded bid's project not yet managed
func (m *Manager) SyncAwarded(ctx context.Context) ([]database.ManagedProject, error) {
	if m.api == nil {
		return nil, ErrNoAPI
	}
	bids, err := m.api.Bids(ctx, m.api.UserID(), awardedBidsLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch bids: %w", err)
	}

	var imported []database.ManagedProject
	for _, bid := range bids {
		if !bid.IsAwarded() || bid.ProjectID == 0 {
			continue
		}
		if _, err := m.db.GetManagedProjectByFreelancerID(bid.ProjectID); err == nil {
			continue
		}
		p, err := m.ImportProject(ctx, bid.ProjectID)
		if err != nil {
			if errors.Is(err, freelancer.ErrInvalidToken) {
				return imported, err
			}
			log.Warn().Err(err).Int64("project_id", bid.ProjectID).Msg("⚠️ Awarded project import failed")
			continue
		}
		imported = append(imported, *p)
	}

	log.Info().Int("bids", len(bids)).Int("imported", len(imported)).Msg("🔄 Awarded projects synced")
	return imported, nil
}

// Get loads a project with its tasks and history
func (m *Manager) Get(id uint) (*database.ManagedProject, error) {
	return m.db.GetManagedProject(id)
}

// List returns projects, optionally filtered by status
func (m *Manager) List(statuses ...string) ([]database.ManagedProject, error) {
	return m.db.ListManagedProjects(statuses...)
}

// UpdateProjectStatus sets any status. Moving to in_progress stamps the
// start date once; completing stamps the end date. The change is logged
// as an internal note.
func (m *Manager) UpdateProjectStatus(id uint, status string) error {
	if !database.ValidProjectStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	p, err := m.db.GetManagedProject(id)
	if err != nil {
		return err
	}

	old := p.Status
	p.Status = status
	now := m.now()
	switch status {
	case database.StatusInProgress:
		if p.StartDate == nil {
			p.StartDate = &now
		}
	case database.StatusCompleted:
		p.ActualEndDate = &now
	}
	if err := m.db.UpdateManagedProject(p); err != nil {
		return err
	}

	log.Info().Uint("id", id).Str("from", old).Str("to", status).Msg("📋 Project status changed")
	return m.AddCommunication(id, database.MessageInternal, "Status Update",
		fmt.Sprintf("Project status changed from %s to %s", old, status), "System", "All")
}

// UpdateTaskStatus sets a task status and recalculates project progress
func (m *Manager) UpdateTaskStatus(taskID uint, status string) error {
	if !database.ValidTaskStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	task, err := m.db.GetTask(taskID)
	if err != nil {
		return err
	}

	task.Status = status
	if status == database.TaskCompleted {
		now := m.now()
		task.CompletedDate = &now
	} else {
		task.CompletedDate = nil
	}
	if err := m.db.UpdateTask(task); err != nil {
		return err
	}
	return m.recalculateProgress(task.ProjectID)
}

func (m *Manager) recalculateProgress(projectID uint) error {
	tasks, err := m.db.ListTasks(projectID)
	if err != nil {
		return err
	}
	p, err := m.db.GetManagedProject(projectID)
	if err != nil {
		return err
	}
	p.Progress = progress(tasks)
	return m.db.UpdateManagedProject(p)
}

func progress(tasks []database.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == database.TaskCompleted {
			done++
		}
	}
	return done * 100 / len(tasks)
}

// AddCommunication records a message, note or update on a project
func (m *Manager) AddCommunication(projectID uint, messageType, subject, content, sender, recipient string) error {
	switch messageType {
	case database.MessageClient, database.MessageInternal, database.MessageUpdate:
	default:
		return fmt.Errorf("unknown message type %q", messageType)
	}
	return m.db.AddCommunication(&database.Communication{
		ProjectID:   projectID,
		MessageType: messageType,
		Sender:      sender,
		Recipient:   recipient,
		Subject:     subject,
		Content:     content,
		Timestamp:   m.now(),
	})
}

// LogTime records hours against a project and optionally one of its tasks
func (m *Manager) LogTime(projectID uint, taskID *uint, hours float64, description, user string) error {
	if hours <= 0 {
		return ErrInvalidHours
	}
	if user == "" {
		user = "Developer"
	}
	return m.db.LogTime(&database.TimeLog{
		ProjectID:   projectID,
		TaskID:      taskID,
		User:        user,
		Hours:       hours,
		Description: description,
		Date:        m.now(),
	})
}

// SendClientUpdate messages the client with a progress summary and logs it
func (m *Manager) SendClientUpdate(ctx context.Context, projectID uint, updateType string) error {
	if m.api == nil {
		return ErrNoAPI
	}
	p, err := m.db.GetManagedProject(projectID)
	if err != nil {
		return err
	}
	if updateType == "" {
		updateType = "progress"
	}

	message := progressMessage(p)
	if err := m.api.SendMessage(ctx, p.FreelancerProjectID, p.ClientID, message); err != nil {
		return fmt.Errorf("send update: %w", err)
	}

	subject := cases.Title(language.English).String(updateType) + " Update"
	log.Info().Uint("id", projectID).Str("type", updateType).Msg("📨 Client update sent")
	return m.AddCommunication(projectID, database.MessageClient, subject, message, "System", p.ClientName)
}

func progressMessage(p *database.ManagedProject) string {
	var completed, current []string
	for _, t := range p.Tasks {
		switch t.Status {
		case database.TaskCompleted:
			completed = append(completed, "✓ "+t.Title)
		case database.TaskInProgress:
			current = append(current, "→ "+t.Title)
		}
	}
	if len(completed) > 3 {
		completed = completed[len(completed)-3:]
	}
	if len(current) > 3 {
		current = current[:3]
	}
	completedText := strings.Join(completed, "\n")
	if completedText == "" {
		completedText = "No tasks completed yet"
	}
	currentText := strings.Join(current, "\n")
	if currentText == "" {
		currentText = "Preparing next phase"
	}

	status := cases.Title(language.English).String(strings.ReplaceAll(p.Status, "_", " "))
	return fmt.Sprintf(`Hello %s,

I wanted to provide you with an update on your project "%s".

Current Progress: %d%%
Status: %s

Completed Tasks:
%s

Currently Working On:
%s

The project is progressing well and we're on track to meet the deadline.

Please let me know if you have any questions or need any clarification.

Best regards`, p.ClientName, p.Title, p.Progress, status, completedText, currentText)
}
