package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

type Database struct {
	db *gorm.DB
}

func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	// Check if this is a PostgreSQL connection string
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		// SQLite fallback
		if dbPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		// one connection: each new :memory: connection would be an empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		log.Info().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	// Auto migrate all models
	if err := db.AutoMigrate(
		&SeenProject{}, &Bid{},
		&ManagedProject{}, &Task{}, &Communication{}, &TimeLog{}, &ProjectFile{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Database{db: db}, nil
}

// Close releases the underlying connection pool
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Seen project operations

func (d *Database) SaveSeenProject(p *SeenProject) error {
	return d.db.Save(p).Error
}

func (d *Database) GetSeenProject(id int64) (*SeenProject, error) {
	var p SeenProject
	if err := d.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Bid operations

func (d *Database) SaveBid(bid *Bid) error {
	if bid.RequestID == "" {
		bid.RequestID = uuid.NewString()
	}
	return d.db.Create(bid).Error
}

func (d *Database) GetRecentBids(limit int) ([]Bid, error) {
	var bids []Bid
	err := d.db.Order("created_at DESC, id DESC").Limit(limit).Find(&bids).Error
	return bids, err
}

func (d *Database) GetBidsByProject(projectID int64) ([]Bid, error) {
	var bids []Bid
	err := d.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&bids).Error
	return bids, err
}

// Managed project operations

// CreateManagedProject inserts a project together with its tasks
func (d *Database) CreateManagedProject(p *ManagedProject) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
}

// GetManagedProject loads a project with tasks, communications, time logs
// and files
func (d *Database) GetManagedProject(id uint) (*ManagedProject, error) {
	var p ManagedProject
	err := d.db.
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Communications", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp DESC, id DESC") }).
		Preload("TimeLogs").
		Preload("Files").
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (d *Database) GetManagedProjectByFreelancerID(freelancerID int64) (*ManagedProject, error) {
	var p ManagedProject
	if err := d.db.Where("freelancer_project_id = ?", freelancerID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return d.GetManagedProject(p.ID)
}

// ListManagedProjects returns projects with tasks, optionally filtered by status
func (d *Database) ListManagedProjects(statuses ...string) ([]ManagedProject, error) {
	var projects []ManagedProject
	q := d.db.Preload("Tasks").Order("deadline ASC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Find(&projects).Error
	return projects, err
}

// UpdateManagedProject saves project columns without touching associations
func (d *Database) UpdateManagedProject(p *ManagedProject) error {
	return d.db.Omit(clause.Associations).Save(p).Error
}

// Task operations

func (d *Database) GetTask(id uint) (*Task, error) {
	var t Task
	if err := d.db.First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (d *Database) UpdateTask(t *Task) error {
	return d.db.Save(t).Error
}

func (d *Database) ListTasks(projectID uint) ([]Task, error) {
	var tasks []Task
	err := d.db.Where("project_id = ?", projectID).Order("id ASC").Find(&tasks).Error
	return tasks, err
}

// TasksDueBetween returns open tasks due in [from, to)
func (d *Database) TasksDueBetween(from, to time.Time) ([]Task, error) {
	var tasks []Task
	err := d.db.
		Where("due_date >= ? AND due_date < ? AND status <> ?", from, to, TaskCompleted).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, err
}

// Communication operations

func (d *Database) AddCommunication(c *Communication) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	return d.db.Create(c).Error
}

// LastCommunication returns the newest message of a type, ErrNotFound if none
func (d *Database) LastCommunication(projectID uint, messageType string) (*Communication, error) {
	var c Communication
	err := d.db.
		Where("project_id = ? AND message_type = ?", projectID, messageType).
		Order("timestamp DESC").
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Time tracking

// LogTime records hours and adds them to the project and task totals
func (d *Database) LogTime(entry *TimeLog) error {
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		res := tx.Model(&ManagedProject{}).Where("id = ?", entry.ProjectID).
			UpdateColumn("actual_hours", gorm.Expr("actual_hours + ?", entry.Hours))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if entry.TaskID != nil {
			if err := tx.Model(&Task{}).Where("id = ? AND project_id = ?", *entry.TaskID, entry.ProjectID).
				UpdateColumn("actual_hours", gorm.Expr("actual_hours + ?", entry.Hours)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// File operations

func (d *Database) AddFile(f *ProjectFile) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now()
	}
	if f.Version == 0 {
		var latest int
		if err := d.db.Model(&ProjectFile{}).
			Where("project_id = ? AND filename = ?", f.ProjectID, f.Filename).
			Select("COALESCE(MAX(version), 0)").Scan(&latest).Error; err != nil {
			return fmt.Errorf("latest file version: %w", err)
		}
		f.Version = latest + 1
	}
	return d.db.Create(f).Error
}

// Stats operations

func (d *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var seen int64
	if err := d.db.Model(&SeenProject{}).Count(&seen).Error; err != nil {
		return nil, err
	}
	stats["projects_seen"] = seen

	var total, success int64
	if err := d.db.Model(&Bid{}).Where("dry_run = ?", false).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&Bid{}).Where("dry_run = ? AND status = ?", false, "success").Count(&success).Error; err != nil {
		return nil, err
	}
	stats["total_bids"] = total
	stats["successful_bids"] = success
	stats["failed_bids"] = total - success
	rate := 0.0
	if total > 0 {
		rate = float64(success) / float64(total) * 100
	}
	stats["success_rate"] = rate

	var managed, active int64
	if err := d.db.Model(&ManagedProject{}).Count(&managed).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&ManagedProject{}).
		Where("status IN ?", []string{StatusPlanning, StatusInProgress, StatusReview}).
		Count(&active).Error; err != nil {
		return nil, err
	}
	stats["managed_projects"] = managed
	stats["active_projects"] = active

	return stats, nil
}
