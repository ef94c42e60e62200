package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/freelancer"
)

type sentMessage struct {
	projectID, toUserID int64
	body                string
}

type fakeAPI struct {
	projects map[int64]*freelancer.Project
	bids     []freelancer.BidInfo
	sent     []sentMessage
	fetched  int
}

func (f *fakeAPI) Project(ctx context.Context, id int64) (*freelancer.Project, error) {
	f.fetched++
	p, ok := f.projects[id]
	if !ok {
		return nil, freelancer.ErrNotFound
	}
	return p, nil
}

func (f *fakeAPI) Bids(ctx context.Context, bidderID int64, limit int) ([]freelancer.BidInfo, error) {
	return f.bids, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, projectID, toUserID int64, message string) error {
	f.sent = append(f.sent, sentMessage{projectID, toUserID, message})
	return nil
}

func (f *fakeAPI) UserID() int64 { return 42 }

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *fakeAPI, *database.Database) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := &fakeAPI{projects: map[int64]*freelancer.Project{
		100: {
			ID:          100,
			Title:       "Company website redesign",
			Description: "Refresh our marketing site",
			OwnerID:     7,
			Owner:       freelancer.Owner{ID: 7, Username: "acme"},
			Budget:      freelancer.Budget{Minimum: decimal.NewFromInt(800)},
			Currency:    freelancer.Currency{Code: "USD"},
			Jobs:        []freelancer.Job{{Name: "React"}, {Name: "Node.js"}},
			BidPeriod:   14,
		},
		200: {
			ID:        200,
			Title:     "Collect product prices",
			OwnerID:   8,
			Owner:     freelancer.Owner{ID: 8, Username: "shop"},
			Budget:    freelancer.Budget{Minimum: decimal.NewFromInt(300)},
			Currency:  freelancer.Currency{Code: "USD"},
			Jobs:      []freelancer.Job{{Name: "Scrapy"}},
			BidPeriod: 0,
		},
	}}
	m := NewManager(db, api)
	m.now = func() time.Time { return testNow }
	return m, api, db
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		title string
		techs []string
		want  string
	}{
		{"Build a website for my bakery", nil, TypeWebDevelopment},
		{"iOS fitness tracker", nil, TypeMobileApp},
		{"Scrape real estate listings", nil, TypeDataScraping},
		{"Need help", []string{"Flutter"}, TypeMobileApp},
		{"Need help", []string{"Django"}, TypeWebDevelopment},
		{"Need help", []string{"BeautifulSoup"}, TypeDataScraping},
		{"Logo redesign", []string{"Illustrator"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectType(tt.title, tt.techs), tt.title)
	}
}

func TestImportProject_AppliesTemplate(t *testing.T) {
	m, api, _ := newTestManager(t)

	p, err := m.ImportProject(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, TypeWebDevelopment, p.ProjectType)
	assert.Equal(t, database.StatusAwarded, p.Status)
	assert.Equal(t, "acme", p.ClientName)
	assert.Equal(t, testNow.AddDate(0, 0, 14), p.Deadline)
	assert.Len(t, p.Tasks, 7)
	assert.InDelta(t, 68, p.EstimatedHours, 0.001)
	require.Len(t, p.Milestones, 4)
	assert.Equal(t, "Final Delivery", p.Milestones[3].Name)
	assert.True(t, p.Milestones[3].Due.Equal(p.Deadline))

	// first task is due n days before the deadline, last one day before
	require.NotNil(t, p.Tasks[0].DueDate)
	assert.True(t, p.Tasks[0].DueDate.Equal(p.Deadline.AddDate(0, 0, -7)))
	assert.True(t, p.Tasks[6].DueDate.Equal(p.Deadline.AddDate(0, 0, -1)))

	again, err := m.ImportProject(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, 1, api.fetched, "second import reads from the database")
}

func TestImportProject_DefaultPeriodAndTechDetection(t *testing.T) {
	m, _, _ := newTestManager(t)

	p, err := m.ImportProject(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, TypeDataScraping, p.ProjectType)
	assert.Equal(t, testNow.AddDate(0, 0, defaultBidPeriod), p.Deadline)
	assert.Len(t, p.Tasks, 6)
}

func TestImportProject_NotFound(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.ImportProject(context.Background(), 999)
	assert.True(t, errors.Is(err, freelancer.ErrNotFound))
}

func TestSyncAwarded(t *testing.T) {
	m, api, _ := newTestManager(t)
	api.bids = []freelancer.BidInfo{
		{ID: 1, ProjectID: 100, Awarded: true},
		{ID: 2, ProjectID: 200, AwardStatus: "awarded"},
		{ID: 3, ProjectID: 300},
		{ID: 4, ProjectID: 999, Awarded: true},
	}

	imported, err := m.SyncAwarded(context.Background())
	require.NoError(t, err)
	assert.Len(t, imported, 2)

	imported, err = m.SyncAwarded(context.Background())
	require.NoError(t, err)
	assert.Empty(t, imported)

	all, err := m.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateProjectStatus(t *testing.T) {
	m, _, _ := newTestManager(t)
	p, err := m.ImportProject(context.Background(), 100)
	require.NoError(t, err)

	require.NoError(t, m.UpdateProjectStatus(p.ID, database.StatusInProgress))
	got, err := m.Get(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(testNow))
	require.Len(t, got.Communications, 1)
	assert.Equal(t, database.MessageInternal, got.Communications[0].MessageType)
	assert.Equal(t, "Project status changed from awarded to in_progress", got.Communications[0].Content)

	require.NoError(t, m.UpdateProjectStatus(p.ID, database.StatusCompleted))
	got, err = m.Get(p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ActualEndDate)

	err = m.UpdateProjectStatus(p.ID, "finished")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateTaskStatus_RecalculatesProgress(t *testing.T) {
	m, _, _ := newTestManager(t)
	p, err := m.ImportProject(context.Background(), 200)
	require.NoError(t, err)

	require.NoError(t, m.UpdateTaskStatus(p.Tasks[0].ID, database.TaskCompleted))
	require.NoError(t, m.UpdateTaskStatus(p.Tasks[1].ID, database.TaskCompleted))
	require.NoError(t, m.UpdateTaskStatus(p.Tasks[2].ID, database.TaskCompleted))

	got, err := m.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
	assert.NotNil(t, got.Tasks[0].CompletedDate)

	require.NoError(t, m.UpdateTaskStatus(p.Tasks[2].ID, database.TaskTodo))
	got, err = m.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, got.Progress)
	assert.Nil(t, got.Tasks[2].CompletedDate)

	assert.ErrorIs(t, m.UpdateTaskStatus(p.Tasks[0].ID, "done"), ErrInvalidStatus)
}

func TestLogTime(t *testing.T) {
	m, _, _ := newTestManager(t)
	p, err := m.ImportProject(context.Background(), 200)
	require.NoError(t, err)

	taskID := p.Tasks[1].ID
	require.NoError(t, m.LogTime(p.ID, &taskID, 2.5, "initial scraper", ""))
	require.NoError(t, m.LogTime(p.ID, nil, 1, "call with client", "Sam"))
	assert.ErrorIs(t, m.LogTime(p.ID, nil, 0, "nothing", ""), ErrInvalidHours)

	got, err := m.Get(p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.ActualHours, 0.001)
	assert.InDelta(t, 2.5, got.Tasks[1].ActualHours, 0.001)
	require.Len(t, got.TimeLogs, 2)
}

func TestAssessRisk(t *testing.T) {
	start := testNow.AddDate(0, 0, -10)
	tests := []struct {
		name    string
		project database.ManagedProject
		client  *time.Time
		score   int
		level   string
	}{
		{
			name:    "comfortable",
			project: database.ManagedProject{Status: database.StatusAwarded, Deadline: testNow.AddDate(0, 0, 20)},
			score:   0,
			level:   RiskLow,
		},
		{
			name:    "deadline within a week",
			project: database.ManagedProject{Status: database.StatusAwarded, Deadline: testNow.AddDate(0, 0, 5)},
			score:   20,
			level:   RiskLow,
		},
		{
			name: "blocked and silent",
			project: database.ManagedProject{
				Status:   database.StatusInProgress,
				Deadline: testNow.AddDate(0, 0, 30),
				Tasks:    []database.Task{{Status: database.TaskBlocked}, {Status: database.TaskTodo}},
			},
			score: 25,
			level: RiskMedium,
		},
		{
			name: "late and behind",
			project: database.ManagedProject{
				Status:    database.StatusInProgress,
				StartDate: &start,
				Deadline:  testNow.AddDate(0, 0, 2),
				Progress:  10,
				Tasks:     []database.Task{{Status: database.TaskBlocked}},
			},
			client: ptr(testNow.Add(-time.Hour)),
			// 30 deadline + 25 schedule + 10 blocked
			score: 65,
			level: RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := scoreRisk(&tt.project, tt.client, testNow)
			assert.Equal(t, tt.score, a.Score, a.Factors)
			assert.Equal(t, tt.level, a.Level)
		})
	}
}

func TestAssessRisk_Persists(t *testing.T) {
	m, _, _ := newTestManager(t)
	p, err := m.ImportProject(context.Background(), 200)
	require.NoError(t, err)
	require.NoError(t, m.UpdateProjectStatus(p.ID, database.StatusInProgress))

	a, err := m.AssessRisk(p.ID)
	require.NoError(t, err)
	// 7 days left, no client message yet
	assert.Equal(t, 15, a.Score)
	assert.Equal(t, RiskLow, a.Level)

	// two days later with no progress
	m.now = func() time.Time { return testNow.Add(48 * time.Hour) }
	a, err = m.AssessRisk(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, a.DaysRemaining)
	assert.Equal(t, 20+25+15, a.Score)
	assert.Equal(t, RiskHigh, a.Level)

	got, err := m.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, got.RiskLevel)
	assert.Len(t, got.RiskFactors, 3)
}

func TestReport(t *testing.T) {
	m, _, _ := newTestManager(t)
	p, err := m.ImportProject(context.Background(), 100)
	require.NoError(t, err)
	require.NoError(t, m.UpdateTaskStatus(p.Tasks[0].ID, database.TaskCompleted))
	require.NoError(t, m.UpdateTaskStatus(p.Tasks[1].ID, database.TaskBlocked))
	require.NoError(t, m.LogTime(p.ID, nil, 4, "analysis", ""))

	report, err := m.Report(p.ID)
	require.NoError(t, err)
	assert.Contains(t, report, "# Project Report: Company website redesign")
	assert.Contains(t, report, "- **Completed**: 1 (14%)")
	assert.Contains(t, report, "- **Blocked**: 1")
	assert.Contains(t, report, "- **Budget**: USD 800.00")
	assert.Contains(t, report, "- **Efficiency**: 1700%")
	assert.Contains(t, report, "- **Risk Level**: low")
	assert.Contains(t, report, "- Frontend Development (Due: ")
	assert.NotContains(t, report, "- Requirements Analysis (Due:")
}

func TestDashboard(t *testing.T) {
	m, _, db := newTestManager(t)
	web, err := m.ImportProject(context.Background(), 100)
	require.NoError(t, err)
	scrape, err := m.ImportProject(context.Background(), 200)
	require.NoError(t, err)

	require.NoError(t, m.UpdateProjectStatus(web.ID, database.StatusInProgress))
	require.NoError(t, m.LogTime(web.ID, nil, 3, "setup", ""))

	// a task due today
	task := scrape.Tasks[0]
	due := testNow.Add(time.Hour)
	task.DueDate = &due
	require.NoError(t, db.UpdateTask(&task))

	// an hour later the 7 day deadline falls inside the window
	m.now = func() time.Time { return testNow.Add(time.Hour) }
	d, err := m.Dashboard()
	require.NoError(t, err)
	assert.Len(t, d.ActiveProjects, 1)
	require.Len(t, d.UpcomingDeadlines, 1)
	assert.Equal(t, scrape.ID, d.UpcomingDeadlines[0].ID)
	assert.Empty(t, d.HighRiskProjects)
	require.Len(t, d.TodayTasks, 1)
	assert.Equal(t, task.ID, d.TodayTasks[0].ID)
	assert.Equal(t, 2, d.Metrics.TotalProjects)
	assert.InDelta(t, 3, d.Metrics.TotalHoursTracked, 0.001)
	assert.Zero(t, d.Metrics.CompletionRate)
}

func TestSendClientUpdate(t *testing.T) {
	m, api, _ := newTestManager(t)
	p, err := m.ImportProject(context.Background(), 100)
	require.NoError(t, err)
	require.NoError(t, m.UpdateTaskStatus(p.Tasks[0].ID, database.TaskCompleted))
	require.NoError(t, m.UpdateTaskStatus(p.Tasks[1].ID, database.TaskInProgress))

	require.NoError(t, m.SendClientUpdate(context.Background(), p.ID, "weekly"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(100), api.sent[0].projectID)
	assert.Equal(t, int64(7), api.sent[0].toUserID)
	assert.Contains(t, api.sent[0].body, "Current Progress: 14%")
	assert.Contains(t, api.sent[0].body, "✓ Requirements Analysis")
	assert.Contains(t, api.sent[0].body, "→ Design Mockups")

	got, err := m.Get(p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.Communications)
	assert.Equal(t, "Weekly Update", got.Communications[0].Subject)
	assert.Equal(t, database.MessageClient, got.Communications[0].MessageType)
}

func ptr[T any](v T) *T { return &v }
