package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Backend using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true: if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

const tsQuery = "plainto_tsquery('simple', $1)"

// Search ranks ideas by ts_rank over the generated search_vector column and
// highlights the description with ts_headline.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	q = q.normalized()

	where, args := pgWhere(q)

	var total int
	if err := p.db.QueryRowContext(ctx, "SELECT count(*) FROM ideas i WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT i.id, i.title,
			ts_headline('simple', i.description, %s, 'MaxFragments=1,MaxWords=30,StartSel=<mark>,StopSel=</mark>'),
			i.impact_matrix_id, coalesce(i.category_id, ''), i.status
		FROM ideas i
		WHERE %s
		ORDER BY ts_rank(i.search_vector, %s) DESC, i.created_at DESC
		LIMIT %d OFFSET %d`, tsQuery, where, tsQuery, q.Limit, q.Offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{Type: ResultIdea}
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.MatrixID, &r.CategoryID, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// pgWhere builds the WHERE clause; $1 is always the query text.
func pgWhere(q Query) (string, []any) {
	clauses := []string{"i.search_vector @@ " + tsQuery}
	args := []any{q.Text}
	if q.MatrixID != "" {
		args = append(args, q.MatrixID)
		clauses = append(clauses, fmt.Sprintf("i.impact_matrix_id = $%d", len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, fmt.Sprintf("i.status = $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// LoadAllRecords returns every idea for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]IdeaRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT i.id, i.title, i.description, i.impact_matrix_id,
			coalesce(i.category_id, ''), coalesce(c.name, ''), i.status, i.effort, i.business_value
		FROM ideas i
		LEFT JOIN categories c ON c.id = i.category_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}
	defer rows.Close()

	records := make([]IdeaRecord, 0)
	for rows.Next() {
		var r IdeaRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.MatrixID, &r.CategoryID, &r.CategoryName, &r.Status, &r.Effort, &r.BusinessValue); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return records, nil
}
