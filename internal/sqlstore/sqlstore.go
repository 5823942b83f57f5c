// Package sqlstore keeps the task history in SQLite.
package sqlstore

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"

	"github.com/mytube/mytube/internal/session"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var _ session.Database = (*Database)(nil)

type taskRecord struct {
	ID          string `gorm:"primaryKey"`
	VideoID     string
	Title       string
	URL         string
	Destination string
	Requested   string
	Resolution  string
	Status      string
	Progress    float64
	Path        string
	Attempts    int
	Error       string
	AddedAt     time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (taskRecord) TableName() string {
	return "task"
}

func newTaskRecord(t *session.Task) taskRecord {
	return taskRecord{
		ID:          string(t.ID),
		VideoID:     t.VideoID,
		Title:       t.Title,
		URL:         t.URL,
		Destination: t.Destination,
		Requested:   t.Requested,
		Resolution:  t.Resolution,
		Status:      string(t.Status),
		Progress:    t.Progress,
		Path:        t.Path,
		Attempts:    t.Attempts,
		Error:       t.Error,
		AddedAt:     t.AddedAt,
		StartedAt:   t.StartedAt,
		FinishedAt:  t.FinishedAt,
	}
}

func (r taskRecord) task() session.Task {
	return session.Task{
		ID:          session.TaskID(r.ID),
		VideoID:     r.VideoID,
		Title:       r.Title,
		URL:         r.URL,
		Destination: r.Destination,
		Requested:   r.Requested,
		Resolution:  r.Resolution,
		Status:      session.TaskStatus(r.Status),
		Progress:    r.Progress,
		Path:        r.Path,
		Attempts:    r.Attempts,
		Error:       r.Error,
		AddedAt:     r.AddedAt,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

type Database struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (creating if necessary) the SQLite database at path and brings its schema up to date.
func Open(path string, log *zap.Logger) (*Database, error) {
	gormLog := zapgorm2.New(log.Named("gorm"))
	gormLog.IgnoreRecordNotFoundError = true
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLog.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	d := &Database{db: db, log: log}
	if err := d.Migrate(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}
	return d, nil
}

func (d *Database) Migrate() error {
	fs, err := iofs.New(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", fs, "sqlite3", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	switch {
	case err == nil:
		d.log.Info("history migration complete")
	case errors.Is(err, migrate.ErrNoChange):
		d.log.Debug("no history migration required")
	default:
		return err
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListTasks returns tasks most recently finished first.
func (d *Database) ListTasks() ([]session.Task, error) {
	var records []taskRecord
	if err := d.db.Order("finished_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	tasks := make([]session.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (d *Database) WriteTask(task *session.Task) error {
	record := newTaskRecord(task)
	return d.db.Save(&record).Error
}

func (d *Database) DeleteTask(task *session.Task) error {
	return d.db.Delete(&taskRecord{ID: string(task.ID)}).Error
}
