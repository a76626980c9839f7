package domain

import "context"

// PredictionRepository defines persistence for prediction records.
//
// Insert ignores duplicate prediction ids so an at-least-once submission
// never produces two rows. UpsertResult is the single write path shared by
// the webhook receiver and the poll fallback; it updates the row keyed by
// prediction id regardless of owner, since webhook payloads carry no caller
// identity. Rows already in a terminal status are left untouched, so a late
// or replayed notification can never regress a settled prediction.
type PredictionRepository interface {
	Insert(ctx context.Context, rec *PredictionRecord) error
	UpsertResult(ctx context.Context, predictionID string, result PredictionResult) error
	GetByID(ctx context.Context, predictionID string) (*PredictionRecord, error)
	GetForOwner(ctx context.Context, predictionID, ownerID string) (*PredictionRecord, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// MediaLibrary is the asset-store collaborator: it turns uploaded bytes and
// remote result URLs into locally served assets.
type MediaLibrary interface {
	SaveUpload(ctx context.Context, filename, mime string, data []byte) (*MediaAsset, error)
	SaveRemote(ctx context.Context, url string) (*MediaAsset, error)
	URLFor(key string) string
}

// MediaAsset is a stored media file addressable by key and public URL.
type MediaAsset struct {
	Key  string
	URL  string
	MIME string
	Size int64
}
