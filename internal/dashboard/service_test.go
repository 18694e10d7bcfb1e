package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

type stubRow struct {
	values []any
}

func (r stubRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *int:
			*v = r.values[i].(int)
		case *float64:
			*v = r.values[i].(float64)
		}
	}
	return nil
}

type stubQuerier struct {
	sql  string
	args []any
	row  stubRow
}

func (q *stubQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return q.row
}

func TestCollectScansInQueryOrder(t *testing.T) {
	q := &stubQuerier{row: stubRow{values: []any{12, 3, 4, 2, 50000.0}}}
	svc := NewService(q)

	stats, err := svc.Collect(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []any{int64(7)}, q.args)
	require.Equal(t, &Stats{TotalLeads: 12, ToContact: 3, QualifiedLeads: 4, TotalClients: 2, Revenue: 50000}, stats)
}

func TestRevenueSumsQualifiedPipeline(t *testing.T) {
	q := &stubQuerier{row: stubRow{values: []any{0, 0, 0, 0, 0.0}}}
	svc := NewService(q)

	_, err := svc.Collect(context.Background(), 1)
	require.NoError(t, err)

	// Revenue is open pipeline value. Converted leads live in clients and
	// must not count, so the sum reads leads in Qualified only.
	require.Contains(t, q.sql, `SUM(budget), 0) FROM leads WHERE status = 'Qualified'`)
	require.NotContains(t, q.sql, "JOIN")
}

func TestStatsWireFieldNames(t *testing.T) {
	raw, err := json.Marshal(Stats{TotalLeads: 1, QualifiedLeads: 2, Revenue: 3})
	require.NoError(t, err)

	body := string(raw)
	require.Contains(t, body, `"qualified":2`)
	require.False(t, strings.Contains(body, "qualifiedLeads"))
	require.Contains(t, body, `"totalLeads":1`)
	require.Contains(t, body, `"revenue":3`)
}
