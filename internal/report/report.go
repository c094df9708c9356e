// Package report computes and stores daily closure reports from the sales
// ledger.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netefood/pos/internal/domain/sale"
)

// ErrNoSales is returned when closing a day that has no completed sales.
var ErrNoSales = errors.New("no completed sales to report")

// ErrNotFound is returned when a saved report lookup misses.
var ErrNotFound = errors.New("report not found")

// Summary aggregates the day's completed sales.
type Summary struct {
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalOrders int             `json:"totalOrders"`
	AvgTicket   decimal.Decimal `json:"avgTicket"`
}

// CategoryStat is per-category quantity and revenue, revenue-descending.
type CategoryStat struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Report is a saved daily closure snapshot.
type Report struct {
	ID         string
	Date       string
	Timestamp  time.Time
	Summary    Summary
	Categories []CategoryStat
}

// Store persists closed reports, newest-first.
type Store interface {
	Save(ctx context.Context, r *Report) error
	List(ctx context.Context) ([]Report, error)
	Delete(ctx context.Context, id string) error
}

// Service computes live daily stats and handles close-of-day snapshots.
type Service struct {
	ledger sale.Ledger
	store  Store
	now    func() time.Time
}

// NewService creates a report service reading from the given ledger.
func NewService(ledger sale.Ledger, store Store) *Service {
	return &Service{ledger: ledger, store: store, now: time.Now}
}

// Today computes the current day's summary and category breakdown from
// completed sales only. Canceled sales never count toward revenue.
func (s *Service) Today(ctx context.Context) (Summary, []CategoryStat, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	records, err := s.ledger.ListSince(ctx, dayStart)
	if err != nil {
		return Summary{}, nil, errors.Wrap(err, "list today's sales")
	}

	var (
		total  = decimal.Zero
		orders int
		byCat  = make(map[string]*CategoryStat)
	)
	for _, rec := range records {
		if rec.Status != sale.StatusCompleted {
			continue
		}
		orders++
		total = total.Add(rec.Total)

		for _, item := range rec.Items {
			cat := item.Category
			if cat == "" {
				cat = "Outros"
			}
			stat, ok := byCat[cat]
			if !ok {
				stat = &CategoryStat{Name: cat, Total: decimal.Zero}
				byCat[cat] = stat
			}
			stat.Quantity += item.Quantity
			stat.Total = stat.Total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	summary := Summary{
		TotalSales:  total,
		TotalOrders: orders,
		AvgTicket:   decimal.Zero,
	}
	if orders > 0 {
		summary.AvgTicket = total.Div(decimal.NewFromInt(int64(orders))).Round(2)
	}

	cats := make([]CategoryStat, 0, len(byCat))
	for _, stat := range byCat {
		cats = append(cats, *stat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if !cats[i].Total.Equal(cats[j].Total) {
			return cats[i].Total.GreaterThan(cats[j].Total)
		}
		return cats[i].Name < cats[j].Name
	})

	return summary, cats, nil
}

// Close snapshots today's stats into a saved report. Closing a day with no
// completed sales reports ErrNoSales.
func (s *Service) Close(ctx context.Context) (*Report, error) {
	summary, cats, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}
	if summary.TotalOrders == 0 {
		return nil, ErrNoSales
	}

	now := s.now()
	r := &Report{
		ID:         uuid.New().String(),
		Date:       now.Format("02/01/2006"),
		Timestamp:  now,
		Summary:    summary,
		Categories: cats,
	}
	if err := s.store.Save(ctx, r); err != nil {
		return nil, errors.Wrap(err, "save report")
	}
	return r, nil
}

// List returns saved reports, newest-first.
func (s *Service) List(ctx context.Context) ([]Report, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	return list, nil
}

// Delete removes a saved report.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete report %s", id)
	}
	return nil
}
