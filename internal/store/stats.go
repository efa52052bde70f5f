package store

import (
	"context"
	"database/sql"
	"fmt"

	"bidwatch/internal/logging"
)

// Stats summarizes the whole loaded dataset in a single aggregate pass.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Stats")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st       Stats
		total    sql.NullFloat64
		avg      sql.NullFloat64
		earliest sql.NullString
		latest   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(amount),
		       AVG(amount),
		       COUNT(DISTINCT organization),
		       COUNT(DISTINCT area),
		       COUNT(DISTINCT category),
		       MIN(NULLIF(award_date, '')),
		       MAX(NULLIF(award_date, ''))
		FROM contracts`).Scan(
		&st.Rows, &total, &avg, &st.Organizations, &st.Areas, &st.Categories, &earliest, &latest)
	if err != nil {
		return Stats{}, fmt.Errorf("compute stats: %w", err)
	}

	st.TotalValue = total.Float64
	st.AverageValue = avg.Float64
	st.EarliestAward = earliest.String
	st.LatestAward = latest.String
	return st, nil
}
