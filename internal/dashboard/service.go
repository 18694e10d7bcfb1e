package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Stats is the headline dashboard rollup. ToContact counts the caller's own
// uncontacted leads; the other figures are tenant-wide. Revenue is the open
// pipeline value, the summed budgets of leads still in Qualified.
type Stats struct {
	TotalLeads     int     `json:"totalLeads"`
	ToContact      int     `json:"toContact"`
	QualifiedLeads int     `json:"qualified"`
	TotalClients   int     `json:"totalClients"`
	Revenue        float64 `json:"revenue"`
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service aggregates dashboard figures straight off the pool. The counts are
// cheap index scans, so no cache sits in front of them.
type Service struct {
	db rowQuerier
}

// NewService constructs a dashboard Service.
func NewService(db rowQuerier) *Service {
	return &Service{db: db}
}

const statsQuery = `
	SELECT
		(SELECT COUNT(*) FROM leads),
		(SELECT COUNT(*) FROM leads WHERE status = 'New' AND assigned_to = $1),
		(SELECT COUNT(*) FROM leads WHERE status = 'Qualified'),
		(SELECT COUNT(*) FROM clients),
		(SELECT COALESCE(SUM(budget), 0) FROM leads WHERE status = 'Qualified')`

// Collect computes the stats for the given caller.
func (s *Service) Collect(ctx context.Context, userID int64) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRow(ctx, statsQuery, userID).Scan(&stats.TotalLeads,
		&stats.ToContact, &stats.QualifiedLeads, &stats.TotalClients, &stats.Revenue)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
