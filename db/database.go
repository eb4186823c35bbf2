package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maxgfr/ratio-master/config"
	"github.com/maxgfr/ratio-master/db/models"
	"github.com/maxgfr/ratio-master/torrent"
)

type Database struct {
	db *gorm.DB
}

func Init() (*Database, error) {
	if dir := filepath.Dir(config.Main.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(config.Main.DB.Path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if err := gdb.AutoMigrate(&models.Session{}, &models.Announce{}); err != nil {
		return nil, fmt.Errorf("migrating session database: %w", err)
	}

	return &Database{db: gdb}, nil
}

func (d *Database) Close() {
	sqlDB, err := d.db.DB()
	if err != nil {
		log.Warn().Err(err).Msg("Error closing session database")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing session database")
	}
}

// CreateSession opens a new session row for one seeding run.
func (d *Database) CreateSession(meta *torrent.Metadata, ih *torrent.InfoHash) (*models.Session, error) {
	runID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}

	session := &models.Session{
		RunID:     runID.String(),
		InfoHash:  ih.Hex(),
		Name:      meta.Name,
		Announce:  meta.Announce,
		TotalSize: meta.TotalLength,
		Status:    models.SessionActive,
		StartedAt: time.Now().Unix(),
	}
	if err := d.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// LastSessions returns the most recent session rows, newest first.
func (d *Database) LastSessions(limit int) ([]models.Session, error) {
	var sessions []models.Session
	err := d.db.Order("started_at desc").Limit(limit).Find(&sessions).Error
	return sessions, err
}
