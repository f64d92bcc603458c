package storage

import (
	"context"
	"fmt"
	"time"
)

// AskRecord is one row of the ask audit log.
type AskRecord struct {
	RequestID    string
	Question     string
	Outcome      string
	ErrorType    string
	ProviderName string
	Model        string
	EntityFilter string
	DocCount     int
	Latency      time.Duration
}

type AskAuditRepo struct {
	db *DB
}

func NewAskAuditRepo(db *DB) *AskAuditRepo {
	return &AskAuditRepo{db: db}
}

const askAuditSchema = `
CREATE TABLE IF NOT EXISTS ask_calls (
	request_id    uuid PRIMARY KEY,
	question      text NOT NULL,
	outcome       text NOT NULL,
	error_type    text,
	provider_name text,
	model         text,
	entity_filter text,
	doc_count     integer NOT NULL DEFAULT 0,
	latency_ms    bigint NOT NULL DEFAULT 0,
	created_at    timestamptz NOT NULL DEFAULT now()
)`

func (r *AskAuditRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, askAuditSchema); err != nil {
		return fmt.Errorf("create ask_calls: %w", err)
	}
	return nil
}

func (r *AskAuditRepo) Insert(ctx context.Context, rec AskRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO ask_calls(request_id, question, outcome, error_type, provider_name, model, entity_filter, doc_count, latency_ms)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8, $9)`,
		rec.RequestID, rec.Question, rec.Outcome, rec.ErrorType, rec.ProviderName, rec.Model, rec.EntityFilter, rec.DocCount, rec.Latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert ask call: %w", err)
	}
	return nil
}

// CountByOutcome summarizes the log for the admin catalog endpoint.
func (r *AskAuditRepo) CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT outcome, count(*) FROM ask_calls WHERE created_at >= $1 GROUP BY outcome`, since)
	if err != nil {
		return nil, fmt.Errorf("count ask calls: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan ask count: %w", err)
		}
		out[outcome] = n
	}
	return out, rows.Err()
}
