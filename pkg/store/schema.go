package store

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Scan is one run of the checker over a set of files.
type Scan struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"uniqueIndex"` // Stays unique when databases are merged.
	StartedAt time.Time
	Files     int
	Failed    int
	Findings  int
}

// SourceFile is a file as it was seen by a scan: its document as JSON, or
// the reason it could not be converted.
type SourceFile struct {
	ScanID   uint   `gorm:"primaryKey"`
	Path     string `gorm:"primaryKey"`
	Document string
	Error    string
}

// FindingRecord is a stored checker.Finding.
type FindingRecord struct {
	ID       uint   `gorm:"primaryKey"`
	ScanID   uint   `gorm:"index"`
	RuleID   string `gorm:"index"`
	Title    string
	Severity string
	Advice   string
	File     string
	Line     int
}

func getMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202610190001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Scan{}, &SourceFile{}, &FindingRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&FindingRecord{}, &SourceFile{}, &Scan{})
			},
		},
	}
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, getMigrations())
	return m.Migrate()
}

// CheckMigration reports whether every migration has been applied. A
// database without the migrations table is not up to date.
func CheckMigration(db *gorm.DB) (bool, error) {
	var lastMigration string
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Table(gormigrate.DefaultOptions.TableName).
		Select("id").
		Order("id DESC").
		Limit(1).
		Scan(&lastMigration).Error
	if err != nil {
		return false, nil
	}
	migrations := getMigrations()
	return lastMigration == migrations[len(migrations)-1].ID, nil
}
