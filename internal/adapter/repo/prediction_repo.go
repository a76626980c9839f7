package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
)

// PredictionRepositoryPG implements domain.PredictionRepository on PostgreSQL.
type PredictionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a prediction repository backed by PostgreSQL.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepositoryPG {
	return &PredictionRepositoryPG{pool: pool}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS predictions (
    prediction_id text PRIMARY KEY,
    kind          text NOT NULL,
    status        text NOT NULL DEFAULT 'starting',
    input_json    jsonb,
    output_json   jsonb,
    error_message text NOT NULL DEFAULT '',
    owner_id      text NOT NULL,
    created_at    timestamptz NOT NULL DEFAULT now(),
    updated_at    timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS predictions_status_idx ON predictions (status);
CREATE INDEX IF NOT EXISTS predictions_owner_idx ON predictions (owner_id);
`

// EnsureSchema creates the predictions table and its indexes when missing.
func (r *PredictionRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	return err
}

// Insert stores a newly submitted prediction. Duplicate prediction ids are
// ignored so re-submitting the same provider job never creates a second row.
func (r *PredictionRepositoryPG) Insert(ctx context.Context, rec *domain.PredictionRecord) error {
	query := `
INSERT INTO predictions (prediction_id, kind, status, input_json, owner_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (prediction_id) DO NOTHING;
`
	_, err := r.pool.Exec(ctx, query,
		rec.PredictionID,
		rec.Kind,
		rec.Status,
		nullableBytes(rec.InputJSON),
		rec.OwnerID,
	)
	return err
}

// UpsertResult writes an observed status for a prediction id. Both the
// webhook receiver and the poll fallback call this with values derived from
// the same provider truth, so concurrent writes converge on the same row.
// Rows already in a terminal status are never overwritten; a late or replayed
// notification cannot regress a settled prediction.
func (r *PredictionRepositoryPG) UpsertResult(ctx context.Context, predictionID string, result domain.PredictionResult) error {
	query := `
UPDATE predictions
SET status = $2,
    updated_at = now(),
    output_json = COALESCE($3, output_json),
    error_message = CASE WHEN $4 <> '' THEN $4 ELSE error_message END
WHERE prediction_id = $1
  AND status NOT IN ('succeeded', 'failed', 'canceled');
`
	_, err := r.pool.Exec(ctx, query, predictionID, result.Status, nullableBytes(result.OutputJSON), result.ErrorMessage)
	return err
}

// GetByID fetches a prediction record by its provider-assigned id.
func (r *PredictionRepositoryPG) GetByID(ctx context.Context, predictionID string) (*domain.PredictionRecord, error) {
	return r.get(ctx, `
SELECT prediction_id, kind, status, input_json, output_json, error_message, owner_id, created_at, updated_at
FROM predictions
WHERE prediction_id = $1;
`, predictionID)
}

// GetForOwner fetches a record only when it belongs to the given owner.
func (r *PredictionRepositoryPG) GetForOwner(ctx context.Context, predictionID, ownerID string) (*domain.PredictionRecord, error) {
	return r.get(ctx, `
SELECT prediction_id, kind, status, input_json, output_json, error_message, owner_id, created_at, updated_at
FROM predictions
WHERE prediction_id = $1 AND owner_id = $2;
`, predictionID, ownerID)
}

// DeleteOlderThan removes records older than the given number of days and
// returns how many rows were purged.
func (r *PredictionRepositoryPG) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	query := `
DELETE FROM predictions
WHERE created_at < now() - make_interval(days => $1);
`
	tag, err := r.pool.Exec(ctx, query, days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PredictionRepositoryPG) get(ctx context.Context, query string, args ...any) (*domain.PredictionRecord, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	var rec domain.PredictionRecord
	if err := row.Scan(
		&rec.PredictionID,
		&rec.Kind,
		&rec.Status,
		&rec.InputJSON,
		&rec.OutputJSON,
		&rec.ErrorMessage,
		&rec.OwnerID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
