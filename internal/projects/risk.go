package projects

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/autobid/internal/database"
)

// Risk levels
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskAssessment is the scored outcome for one project
type RiskAssessment struct {
	Level         string   `json:"level"`
	Score         int      `json:"score"`
	Factors       []string `json:"factors"`
	DaysRemaining int      `json:"days_remaining"`
}

const clientSilence = 3 * 24 * time.Hour

// AssessRisk scores deadline, schedule, blocker and communication risk,
// then persists the level and factors on the project.
func (m *Manager) AssessRisk(projectID uint) (*RiskAssessment, error) {
	p, err := m.db.GetManagedProject(projectID)
	if err != nil {
		return nil, err
	}
	now := m.now()

	var lastClient *time.Time
	if c, err := m.db.LastCommunication(projectID, database.MessageClient); err == nil {
		lastClient = &c.Timestamp
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	a := scoreRisk(p, lastClient, now)

	p.RiskLevel = a.Level
	p.RiskFactors = a.Factors
	if err := m.db.UpdateManagedProject(p); err != nil {
		return nil, err
	}

	if a.Level == RiskHigh {
		log.Warn().Uint("id", projectID).Int("score", a.Score).Strs("factors", a.Factors).Msg("🚨 High risk project")
	}
	return a, nil
}

func scoreRisk(p *database.ManagedProject, lastClient *time.Time, now time.Time) *RiskAssessment {
	a := &RiskAssessment{Factors: []string{}}

	days := int(math.Floor(p.Deadline.Sub(now).Hours() / 24))
	a.DaysRemaining = days
	switch {
	case days < 3:
		a.Score += 30
		a.Factors = append(a.Factors, fmt.Sprintf("Deadline in %d days", days))
	case days < 7:
		a.Score += 20
		a.Factors = append(a.Factors, fmt.Sprintf("Deadline approaching (%d days)", days))
	}

	if p.StartDate != nil {
		total := p.Deadline.Sub(*p.StartDate)
		if total > 0 {
			elapsed := float64(now.Sub(*p.StartDate)) / float64(total) * 100
			if elapsed > float64(p.Progress+20) {
				a.Score += 25
				a.Factors = append(a.Factors, fmt.Sprintf("Behind schedule (%.0f%% time elapsed, %d%% complete)", elapsed, p.Progress))
			}
		}
	}

	blocked := 0
	for _, t := range p.Tasks {
		if t.Status == database.TaskBlocked {
			blocked++
		}
	}
	if blocked > 0 {
		a.Score += blocked * 10
		a.Factors = append(a.Factors, fmt.Sprintf("%d blocked tasks", blocked))
	}

	if p.Status == database.StatusInProgress && (lastClient == nil || now.Sub(*lastClient) > clientSilence) {
		a.Score += 15
		a.Factors = append(a.Factors, "No client communication in 3+ days")
	}

	switch {
	case a.Score >= 50:
		a.Level = RiskHigh
	case a.Score >= 25:
		a.Level = RiskMedium
	default:
		a.Level = RiskLow
	}
	return a
}
