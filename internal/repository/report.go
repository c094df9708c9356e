package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/netefood/pos/internal/report"
)

const (
	insertReportSQL = `INSERT INTO daily_reports (id, report_date, ts, total_sales, total_orders, avg_ticket, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listReportsSQL = `SELECT id, report_date, ts, total_sales, total_orders, avg_ticket, categories
		FROM daily_reports ORDER BY ts DESC`

	deleteReportSQL = `DELETE FROM daily_reports WHERE id = $1`
)

var _ report.Store = (*ReportRepository)(nil)

// ReportRepository implements report.Store backed by PostgreSQL.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Save persists a closed daily report.
func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) error {
	catsJSON, err := json.Marshal(rep.Categories)
	if err != nil {
		return fmt.Errorf("marshaling report categories: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertReportSQL,
		rep.ID, rep.Date, rep.Timestamp,
		rep.Summary.TotalSales, rep.Summary.TotalOrders, rep.Summary.AvgTicket,
		catsJSON,
	)
	if err != nil {
		return fmt.Errorf("saving report %q: %w", rep.ID, err)
	}
	return nil
}

// List returns saved reports, newest-first.
func (r *ReportRepository) List(ctx context.Context) ([]report.Report, error) {
	rows, err := r.pool.Query(ctx, listReportsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return pgx.CollectRows(rows, scanReport)
}

// Delete removes a saved report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteReportSQL, id)
	if err != nil {
		return fmt.Errorf("deleting report %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return report.ErrNotFound
	}
	return nil
}

func scanReport(row pgx.CollectableRow) (report.Report, error) {
	var (
		rep        report.Report
		totalSales decimal.Decimal
		avgTicket  decimal.Decimal
		cats       []byte
	)
	err := row.Scan(&rep.ID, &rep.Date, &rep.Timestamp,
		&totalSales, &rep.Summary.TotalOrders, &avgTicket, &cats,
	)
	if err != nil {
		return rep, err
	}
	rep.Summary.TotalSales = totalSales
	rep.Summary.AvgTicket = avgTicket
	if err := json.Unmarshal(cats, &rep.Categories); err != nil {
		return rep, fmt.Errorf("unmarshaling report categories: %w", err)
	}
	return rep, nil
}
