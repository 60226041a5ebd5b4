// Package store holds the gorm-backed record stores. Every operation is a
// single-record read or write (or one small transaction); callers compose
// them, nothing here caches.
package store

import (
	"errors"
	"log"
	"os"
	"time"

	"pyra-drive/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist. Callers in the
// authorization path treat it as deny, never as a hard failure.
var ErrNotFound = errors.New("record not found")

// notFound maps gorm's sentinel onto ours.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Open connects to the sqlite database at path and runs migrations.
func Open(path string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Team{},
		&model.TeamMember{},
		&model.PathOverride{},
		&model.ShareLink{},
		&model.Notification{},
		&model.ActivityEntry{},
		&model.TrashItem{},
		&model.Review{},
		&model.Config{},
	)
}

// SeedAdmin creates the initial admin account when the users table is empty.
func SeedAdmin(db *gorm.DB, password string) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	admin := model.User{
		Username:    "admin",
		Password:    password,
		DisplayName: "Administrator",
		Role:        model.RoleAdmin,
		Permissions: model.Grant{
			CapabilitySet: model.AllCapabilities(),
			AllowedPaths:  []string{model.PathWildcard},
		},
	}
	return db.Create(&admin).Error
}

// ConfigValue reads one key from the config table, empty when unset.
func ConfigValue(db *gorm.DB, key string) string {
	var cfg model.Config
	db.Where("key = ?", key).First(&cfg)
	return cfg.Value
}

// SetConfigValue upserts one key in the config table.
func SetConfigValue(db *gorm.DB, key, value string) error {
	var cfg model.Config
	err := db.Where("key = ?", key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&model.Config{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	cfg.Value = value
	return db.Save(&cfg).Error
}
