package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"assettracker/internal/dto"
	"assettracker/internal/model"
)

const dateLayout = "2006-01-02"

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Insert adds a new analysis record to the database.
func (r *AnalysisRepository) Insert(a *model.Analysis) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO analyses (filename, source, timestamp, confidence, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Filename, a.Source, a.Timestamp.UTC(), a.Confidence, a.FilePath, a.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves an analysis by its ID. A missing row is (nil, nil).
func (r *AnalysisRepository) GetByID(id int64) (*model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.scanOne(r.db.Conn().QueryRow(`
		SELECT id, filename, source, timestamp, confidence, filepath, filesize
		FROM analyses WHERE id = ?
	`, id))
}

// GetByFilename retrieves an analysis by its stored filename.
func (r *AnalysisRepository) GetByFilename(filename string) (*model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.scanOne(r.db.Conn().QueryRow(`
		SELECT id, filename, source, timestamp, confidence, filepath, filesize
		FROM analyses WHERE filename = ?
	`, filename))
}

func (r *AnalysisRepository) scanOne(row *sql.Row) (*model.Analysis, error) {
	var a model.Analysis
	err := row.Scan(&a.ID, &a.Filename, &a.Source, &a.Timestamp, &a.Confidence, &a.FilePath, &a.FileSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &a, nil
}

// whereClause builds the shared filter for list and count queries.
func whereClause(filter *dto.AnalysisFilters) (string, []any) {
	query := " WHERE 1=1"
	args := []any{}
	if filter == nil {
		return query, args
	}

	if filter.Label != "" {
		query += " AND EXISTS (SELECT 1 FROM detections d WHERE d.analysis_id = a.id AND d.label = ?)"
		args = append(args, filter.Label)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(a.timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format(dateLayout))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(a.timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format(dateLayout))
	}

	return query, args
}

// GetAll retrieves analyses, newest first, based on filter criteria.
func (r *AnalysisRepository) GetAll(filter *dto.AnalysisFilters) ([]model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `
		SELECT a.id, a.filename, a.source, a.timestamp, a.confidence, a.filepath, a.filesize
		FROM analyses a` + where + " ORDER BY a.timestamp DESC, a.id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		if err := rows.Scan(&a.ID, &a.Filename, &a.Source, &a.Timestamp, &a.Confidence, &a.FilePath, &a.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// GetTotalCount returns the total count of analyses matching the filter.
func (r *AnalysisRepository) GetTotalCount(filter *dto.AnalysisFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM analyses a"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	return count, nil
}

// GetTotalSize returns the summed size of archived images in bytes.
func (r *AnalysisRepository) GetTotalSize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM analyses`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum analysis sizes: %w", err)
	}
	return size, nil
}

// Delete removes an analysis; its detections cascade.
func (r *AnalysisRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteByFilename removes an analysis by its stored filename.
func (r *AnalysisRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteAll removes all analyses and their detections.
func (r *AnalysisRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses`); err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	return nil
}
