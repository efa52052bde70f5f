package store

import (
	"context"
	"fmt"
	"strings"

	"bidwatch/internal/logging"
)

// sortColumns whitelists the ORDER BY targets a Filter may name. Anything
// outside this map falls back to the amount column.
var sortColumns = map[string]string{
	"amount": "amount",
	"date":   "award_date",
	"title":  "award_title",
}

const defaultLimit = 20

// escapeLike neutralizes LIKE metacharacters in user text so a search for
// "50%" matches the literal characters.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// buildWhere renders the filter as a WHERE clause with bound parameters.
func buildWhere(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses,
			`(award_title LIKE ? ESCAPE '\' OR awardee LIKE ? ESCAPE '\' OR organization LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if a := strings.TrimSpace(f.Area); a != "" {
		clauses = append(clauses, `area LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(a)+"%")
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		clauses = append(clauses, `category LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(c)+"%")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Search returns the page of contracts matching the filter, ordered per its
// sort settings (amount descending when unset).
func (s *Store) Search(ctx context.Context, f Filter) ([]Contract, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Search")
	defer timer.Stop()

	where, args := buildWhere(f)

	column, ok := sortColumns[f.SortKey]
	if !ok {
		column = "amount"
	}
	direction := "DESC"
	if f.SortAsc {
		direction = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT award_id, reference_id, award_title, awardee, organization, area, category, amount, award_date, status
		FROM contracts%s
		ORDER BY %s %s
		LIMIT ? OFFSET ?`, where, column, direction)
	args = append(args, limit, offset)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search contracts: %w", err)
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.AwardID, &c.ReferenceID, &c.AwardTitle, &c.Awardee,
			&c.Organization, &c.Area, &c.Category, &c.Amount, &c.AwardDate, &c.Status); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns how many contracts match the filter, ignoring pagination.
func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildWhere(f)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contracts"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contracts: %w", err)
	}
	return n, nil
}

// AggregateByArea breaks the filtered set down by delivery area, largest
// total first, capped at 50 buckets.
func (s *Store) AggregateByArea(ctx context.Context, f Filter) ([]Bucket, error) {
	return s.aggregate(ctx, "area", f, 50)
}

// AggregateByCategory breaks the filtered set down by business category,
// largest total first, capped at 20 buckets.
func (s *Store) AggregateByCategory(ctx context.Context, f Filter) ([]Bucket, error) {
	return s.aggregate(ctx, "category", f, 20)
}

// TopAwardees returns the awardees with the largest total contract value in
// the filtered set.
func (s *Store) TopAwardees(ctx context.Context, f Filter, limit int) ([]Bucket, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.aggregate(ctx, "awardee", f, limit)
}

func (s *Store) aggregate(ctx context.Context, column string, f Filter, limit int) ([]Bucket, error) {
	timer := logging.StartTimer(logging.CategoryStore, "aggregate_"+column)
	defer timer.Stop()

	where, args := buildWhere(f)
	query := fmt.Sprintf(`
		SELECT COALESCE(NULLIF(%s, ''), '(unspecified)') AS label, COUNT(*), SUM(amount)
		FROM contracts%s
		GROUP BY label
		ORDER BY SUM(amount) DESC
		LIMIT ?`, column, where)
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate by %s: %w", column, err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Label, &b.Count, &b.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
