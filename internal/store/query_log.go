package store

import (
	"database/sql"
	"fmt"
	"time"
)

// QueryLog 一次报价查询的记录
type QueryLog struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"requestId"`
	WorkbookID  string    `json:"workbookId"`
	Warehouse   string    `json:"warehouse"`
	Region      string    `json:"region"`
	TaxType     string    `json:"taxType"`
	KnownRegion bool      `json:"knownRegion"`
	RecordCount int       `json:"recordCount"`
	BestChannel string    `json:"bestChannel"`
	BestPrice   *float64  `json:"bestPrice"`
	DurationMs  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InsertQueryLog 写入查询日志
func (s *Store) InsertQueryLog(q QueryLog) (int64, error) {
	var best sql.NullFloat64
	if q.BestPrice != nil {
		best = sql.NullFloat64{Float64: *q.BestPrice, Valid: true}
	}
	res, err := s.db.Exec(`
		INSERT INTO query_logs (
			request_id, workbook_id, warehouse, region, tax_type,
			known_region, record_count, best_channel, best_price, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.RequestID, q.WorkbookID, q.Warehouse, q.Region, q.TaxType,
		q.KnownRegion, q.RecordCount, q.BestChannel, best, q.DurationMs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert query log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get query log id: %w", err)
	}
	return id, nil
}

// ListQueryLogs 按时间倒序列出最近的查询
func (s *Store) ListQueryLogs(limit int) ([]QueryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, request_id, workbook_id, warehouse, region, tax_type,
			known_region, record_count, best_channel, best_price, duration_ms, created_at
		FROM query_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	defer rows.Close()

	logs := make([]QueryLog, 0)
	for rows.Next() {
		var (
			q    QueryLog
			best sql.NullFloat64
		)
		if err := rows.Scan(
			&q.ID, &q.RequestID, &q.WorkbookID, &q.Warehouse, &q.Region, &q.TaxType,
			&q.KnownRegion, &q.RecordCount, &q.BestChannel, &best, &q.DurationMs, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan query log: %w", err)
		}
		if best.Valid {
			v := best.Float64
			q.BestPrice = &v
		}
		logs = append(logs, q)
	}
	return logs, rows.Err()
}

// CountQueryLogs 查询总次数
func (s *Store) CountQueryLogs() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM query_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count query logs: %w", err)
	}
	return n, nil
}
