package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lemonberrylabs/flare/pkg/runtime"
	"github.com/lemonberrylabs/flare/pkg/types"
)

// DefaultSnapshot is the snapshot name used by the shell.
const DefaultSnapshot = "default"

// SavedBinding is one persisted binding. Only numbers and strings are
// saved; built-in procedures are recreated by the default environment.
// Numbers are stored as their rendered text because SQLite turns a NaN REAL
// into NULL.
type SavedBinding struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Snapshot  string    `gorm:"index:idx_snapshot_name,unique;not null"`
	Name      string    `gorm:"index:idx_snapshot_name,unique;not null"`
	Kind      string    `gorm:"not null"`
	Text      string    `gorm:"not null"`
	UpdatedAt time.Time
}

// Snapshots persists environment bindings in a SQLite database.
type Snapshots struct {
	db *gorm.DB
}

// OpenSnapshots opens (creating if needed) the database at path and
// migrates its schema.
func OpenSnapshots(path string) (*Snapshots, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshots %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SavedBinding{}); err != nil {
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}
	return &Snapshots{db: db}, nil
}

// Close closes the underlying database.
func (s *Snapshots) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the snapshot called name with the number and string
// bindings of env. It returns the number of bindings written.
func (s *Snapshots) Save(name string, env *runtime.Environment) (int, error) {
	var rows []SavedBinding
	now := time.Now()
	for _, key := range env.Names() {
		v, _ := env.Lookup(key)
		switch val := v.(type) {
		case types.Number:
			rows = append(rows, SavedBinding{Snapshot: name, Name: key, Kind: types.TypeNumber.String(), Text: types.FormatNumber(val.Value), UpdatedAt: now})
		case types.String:
			rows = append(rows, SavedBinding{Snapshot: name, Name: key, Kind: types.TypeString.String(), Text: val.Text, UpdatedAt: now})
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot = ?", name).Delete(&SavedBinding{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return len(rows), nil
}

// Load defines every binding of the snapshot called name in env and
// returns how many were loaded. A snapshot that was never saved loads
// nothing.
func (s *Snapshots) Load(name string, env *runtime.Environment) (int, error) {
	var rows []SavedBinding
	if err := s.db.Where("snapshot = ?", name).Order("name").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load snapshot %s: %w", name, err)
	}

	for _, row := range rows {
		switch row.Kind {
		case types.TypeNumber.String():
			n, err := strconv.ParseFloat(row.Text, 64)
			if err != nil {
				return 0, fmt.Errorf("load snapshot %s: binding %s: %w", name, row.Name, err)
			}
			env.Define(row.Name, types.NewNumber(n))
		case types.TypeString.String():
			env.Define(row.Name, types.NewString(row.Text))
		default:
			return 0, fmt.Errorf("load snapshot %s: binding %s has unknown kind %q", name, row.Name, row.Kind)
		}
	}
	return len(rows), nil
}

// List returns the names of all saved snapshots.
func (s *Snapshots) List() ([]string, error) {
	var names []string
	if err := s.db.Model(&SavedBinding{}).Distinct("snapshot").Order("snapshot").Pluck("snapshot", &names).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return names, nil
}
