// Package store keeps the results of checker scans in a SQLite database.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spicery/astdoc/pkg/checker"
	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/logger"
	"github.com/spicery/astdoc/pkg/pipeline"
)

// ErrOutdated is returned by Prepare for an existing database whose schema
// needs migrating when migration was not allowed.
var ErrOutdated = errors.New("database schema is not up to date, use --migrate to update")

type Store struct {
	db    *gorm.DB
	fresh bool // The database file did not exist before Open.
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	_, err := os.Stat(path)
	fresh := errors.Is(err, os.ErrNotExist)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db, fresh: fresh}, nil
}

func (s *Store) Migrate() error {
	return Migrate(s.db)
}

func (s *Store) CheckMigration() (bool, error) {
	return CheckMigration(s.db)
}

// Prepare makes the schema usable. A new database is always migrated, an
// existing one only when allowMigrate is set.
func (s *Store) Prepare(allowMigrate bool) error {
	upToDate, err := s.CheckMigration()
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if upToDate {
		return nil
	}
	if !s.fresh && !allowMigrate {
		return ErrOutdated
	}
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.L().Debug("migrated database", "fresh", s.fresh)
	return nil
}

// SaveScan records the files and findings of one scan and returns the id
// of the new scan.
func (s *Store) SaveScan(results []pipeline.Result, findings []checker.Finding) (uint, error) {
	scan := Scan{RunID: uuid.New().String(), StartedAt: time.Now().UTC(), Files: len(results), Findings: len(findings)}
	sources := make([]SourceFile, 0, len(results))
	for _, r := range results {
		source := SourceFile{Path: r.Path}
		if r.Err != nil {
			scan.Failed++
			source.Error = r.Err.Error()
		} else {
			var buf bytes.Buffer
			if err := common.PrintASTJSON(r.Doc, "", &buf, nil); err != nil {
				scan.Failed++
				source.Error = err.Error()
			} else {
				source.Document = buf.String()
			}
		}
		sources = append(sources, source)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&scan).Error; err != nil {
			return err
		}
		for i := range sources {
			sources[i].ScanID = scan.ID
		}
		if len(sources) > 0 {
			if err := tx.Create(&sources).Error; err != nil {
				return err
			}
		}
		if len(findings) == 0 {
			return nil
		}
		records := make([]FindingRecord, 0, len(findings))
		for _, f := range findings {
			records = append(records, FindingRecord{
				ScanID:   scan.ID,
				RuleID:   f.RuleID,
				Title:    f.Title,
				Severity: f.Severity.String(),
				Advice:   f.Advice,
				File:     f.File,
				Line:     f.Line,
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}
	logger.L().Debug("saved scan", "id", scan.ID, "files", scan.Files, "findings", scan.Findings)
	return scan.ID, nil
}

// Scans lists the recorded scans, newest first.
func (s *Store) Scans() ([]Scan, error) {
	var scans []Scan
	if err := s.db.Order("id DESC").Find(&scans).Error; err != nil {
		return nil, err
	}
	return scans, nil
}

// Findings returns the findings of a scan ordered by file, line and rule.
func (s *Store) Findings(scanID uint) ([]checker.Finding, error) {
	var records []FindingRecord
	if err := s.db.Where("scan_id = ?", scanID).Order("file, line, rule_id").Find(&records).Error; err != nil {
		return nil, err
	}
	findings := make([]checker.Finding, 0, len(records))
	for _, r := range records {
		severity, err := checker.ParseSeverity(r.Severity)
		if err != nil {
			return nil, fmt.Errorf("finding %d: %w", r.ID, err)
		}
		findings = append(findings, checker.Finding{
			RuleID:   r.RuleID,
			Title:    r.Title,
			Severity: severity,
			Advice:   r.Advice,
			File:     r.File,
			Line:     r.Line,
		})
	}
	return findings, nil
}

// ScanByRunID finds a scan by its run id.
func (s *Store) ScanByRunID(runID string) (*Scan, error) {
	var scan Scan
	err := s.db.Where("run_id = ?", runID).First(&scan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no scan with run id '%s'", runID)
	}
	if err != nil {
		return nil, err
	}
	return &scan, nil
}

// Document returns the document stored for path by a scan.
func (s *Store) Document(scanID uint, path string) (common.Document, error) {
	var source SourceFile
	err := s.db.Where("scan_id = ? AND path = ?", scanID, path).First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no document for '%s' in scan %d", path, scanID)
	}
	if err != nil {
		return nil, err
	}
	if source.Error != "" {
		return nil, fmt.Errorf("'%s' failed to convert in scan %d: %s", path, scanID, source.Error)
	}
	return common.ReadASTJSON(strings.NewReader(source.Document))
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
