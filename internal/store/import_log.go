package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportLog 导入日志
type ImportLog struct {
	ID            int64      `json:"id"`
	Filename      string     `json:"filename"`
	FilePath      string     `json:"filePath"`
	FileSize      int64      `json:"fileSize"`
	FileHash      string     `json:"fileHash"`
	WorkbookID    string     `json:"workbookId"`
	Status        string     `json:"status"`
	TotalSheets   int        `json:"totalSheets"`
	LoadedSheets  int        `json:"loadedSheets"`
	SkippedSheets int        `json:"skippedSheets"`
	TotalRows     int        `json:"totalRows"`
	Cached        bool       `json:"cached"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// ImportLogResult 导入完成时回写的统计
type ImportLogResult struct {
	WorkbookID    string
	Status        string
	TotalSheets   int
	LoadedSheets  int
	SkippedSheets int
	TotalRows     int
	Cached        bool
	ErrorMessage  string
}

const (
	ImportStatusProcessing = "processing"
	ImportStatusSuccess    = "success"
	ImportStatusFailed     = "failed"
)

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename, filePath string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_path, file_size, file_hash, status)
		VALUES (?, ?, ?, ?, ?)
	`, filename, filePath, fileSize, fileHash, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(id int64, r ImportLogResult) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			workbook_id = ?,
			status = ?,
			total_sheets = ?,
			loaded_sheets = ?,
			skipped_sheets = ?,
			total_rows = ?,
			cached = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.WorkbookID, r.Status, r.TotalSheets, r.LoadedSheets, r.SkippedSheets, r.TotalRows, r.Cached, r.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// LatestImportLog 最近一次成功的导入；没有时返回 nil
func (s *Store) LatestImportLog() (*ImportLog, error) {
	row := s.db.QueryRow(`
		SELECT id, filename, file_path, file_size, file_hash, workbook_id, status,
			total_sheets, loaded_sheets, skipped_sheets, total_rows, cached, error_message,
			created_at, completed_at
		FROM import_logs
		WHERE status = ?
		ORDER BY id DESC
		LIMIT 1
	`, ImportStatusSuccess)

	log, err := scanImportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest import log: %w", err)
	}
	return log, nil
}

// ListImportLogs 按时间倒序列出导入日志
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, filename, file_path, file_size, file_hash, workbook_id, status,
			total_sheets, loaded_sheets, skipped_sheets, total_rows, cached, error_message,
			created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	logs := make([]ImportLog, 0)
	for rows.Next() {
		log, err := scanImportLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportLog(row rowScanner) (*ImportLog, error) {
	var (
		log       ImportLog
		completed sql.NullTime
	)
	err := row.Scan(
		&log.ID, &log.Filename, &log.FilePath, &log.FileSize, &log.FileHash, &log.WorkbookID, &log.Status,
		&log.TotalSheets, &log.LoadedSheets, &log.SkippedSheets, &log.TotalRows, &log.Cached, &log.ErrorMessage,
		&log.CreatedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		log.CompletedAt = &completed.Time
	}
	return &log, nil
}
