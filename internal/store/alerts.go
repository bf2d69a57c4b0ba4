package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/model"
)

// AlertsPerPage is the page size of the alert history.
const AlertsPerPage = 20

// AppendAlert records a breach and enforces the retention cap in the same
// transaction. rec.ID and rec.CreatedAt are filled in. A failed eviction is
// logged and does not discard the new record; the next append retries it.
func (s *Store) AppendAlert(ctx context.Context, rec *model.AlertRecord) (int64, error) {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, model.NewPersistenceError("append alert", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO alert_history (alert_type, alert_message, resource_value, threshold_value, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(rec.AlertType), rec.Message, rec.ResourceValue, rec.ThresholdValue, rec.CreatedAt)
	if err != nil {
		tx.Rollback()
		return 0, model.NewPersistenceError("append alert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, model.NewPersistenceError("append alert", err)
	}

	evicted, err := s.evictOldest(ctx, tx)
	if err != nil {
		s.logger.Warn("alert retention cleanup failed", zap.Error(err))
		evicted = 0
	}

	if err := tx.Commit(); err != nil {
		return 0, model.NewPersistenceError("append alert", err)
	}
	rec.ID = id
	return evicted, nil
}

// evictOldest deletes the oldest records beyond the retention cap.
func (s *Store) evictOldest(ctx context.Context, tx *sql.Tx) (int64, error) {
	var total int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_history").Scan(&total); err != nil {
		return 0, err
	}
	if total <= s.retentionCap {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM alert_history WHERE id IN (
			SELECT id FROM alert_history ORDER BY created_at ASC, id ASC LIMIT ?
		)`, total-s.retentionCap)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAlerts returns one page of the alert history, newest first. An empty
// or unknown filter lists every type; page numbers below 1 mean page 1.
func (s *Store) ListAlerts(ctx context.Context, filter string, page int) (*model.AlertPage, error) {
	if page < 1 {
		page = 1
	}
	where := ""
	var args []any
	if t, ok := model.ParseResourceType(filter); ok {
		where = "WHERE alert_type = ?"
		args = append(args, string(t))
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_history "+where, args...).Scan(&total); err != nil {
		return nil, model.NewPersistenceError("count alerts", err)
	}

	offset := (page - 1) * AlertsPerPage
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alert_type, alert_message, resource_value, threshold_value, created_at
		FROM alert_history `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		append(args, AlertsPerPage, offset)...)
	if err != nil {
		return nil, model.NewPersistenceError("list alerts", err)
	}
	defer rows.Close()

	alerts := []model.AlertRecord{}
	for rows.Next() {
		var r model.AlertRecord
		var alertType string
		if err := rows.Scan(&r.ID, &alertType, &r.Message, &r.ResourceValue, &r.ThresholdValue, &r.CreatedAt); err != nil {
			return nil, model.NewPersistenceError("list alerts", err)
		}
		r.AlertType = model.ResourceType(alertType)
		alerts = append(alerts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewPersistenceError("list alerts", err)
	}

	return &model.AlertPage{
		Alerts: alerts,
		Total:  total,
		Pages:  (total + AlertsPerPage - 1) / AlertsPerPage,
		Page:   page,
	}, nil
}

// CountAlerts returns the number of stored alert records.
func (s *Store) CountAlerts(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_history").Scan(&total); err != nil {
		return 0, model.NewPersistenceError("count alerts", err)
	}
	return total, nil
}

// ClearAlerts deletes the whole alert history. Record ids keep increasing
// across clears.
func (s *Store) ClearAlerts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM alert_history"); err != nil {
		return model.NewPersistenceError("clear alerts", err)
	}
	return nil
}
