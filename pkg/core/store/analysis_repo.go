package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"report_analysis/pkg/core/ingest"
	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/models"
)

// ErrNoAnalysis is returned when no stored result exists for a key.
var ErrNoAnalysis = errors.New("no stored analysis")

// DefaultCacheDir is used when neither a pool nor a directory is configured.
var DefaultCacheDir = filepath.Join(".cache", "analysis")

// Entry is one stored analysis.
type Entry struct {
	ID        string                `json:"id"`
	Key       ingest.Key            `json:"key"`
	Result    models.AnalysisResult `json:"result"`
	Summary   string                `json:"summary"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// AnalysisRepo stores entries in Postgres when a pool is given, otherwise
// as one JSON file per key under dir.
type AnalysisRepo struct {
	pool *pgxpool.Pool
	dir  string
	log  zerolog.Logger
}

func NewAnalysisRepo(pool *pgxpool.Pool, dir string, log zerolog.Logger) *AnalysisRepo {
	if pool == nil && dir == "" {
		dir = DefaultCacheDir
	}
	return &AnalysisRepo{pool: pool, dir: dir, log: logging.For(log, "store")}
}

// Save upserts the entry for its key. The first save of a key assigns a new
// ID; later saves keep it. The stored entry is returned.
func (r *AnalysisRepo) Save(ctx context.Context, key ingest.Key, result models.AnalysisResult, summary string) (*Entry, error) {
	e := &Entry{
		ID:        uuid.New().String(),
		Key:       key,
		Result:    result,
		Summary:   summary,
		UpdatedAt: time.Now().UTC(),
	}
	if r.pool != nil {
		return e, r.saveDB(ctx, e)
	}
	return e, r.saveFile(e)
}

// Get loads the entry for key, or ErrNoAnalysis.
func (r *AnalysisRepo) Get(ctx context.Context, key ingest.Key) (*Entry, error) {
	if r.pool != nil {
		return r.getDB(ctx, key)
	}
	return r.getFile(key)
}

func (r *AnalysisRepo) saveDB(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	query := `
		INSERT INTO report_analysis (id, stock_code, year, report_type, status, result_json, summary, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stock_code, year, report_type)
		DO UPDATE SET
			status = EXCLUDED.status,
			result_json = EXCLUDED.result_json,
			summary = EXCLUDED.summary,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	var id uuid.UUID
	err = r.pool.QueryRow(ctx, query,
		e.ID, e.Key.StockCode, e.Key.Year, e.Key.ReportType,
		string(e.Result.Status), data, e.Summary, e.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", e.Key, err)
	}
	e.ID = id.String()
	return nil
}

func (r *AnalysisRepo) getDB(ctx context.Context, key ingest.Key) (*Entry, error) {
	query := `
		SELECT id, result_json, summary, updated_at
		FROM report_analysis
		WHERE stock_code = $1 AND year = $2 AND report_type = $3`
	var (
		id   uuid.UUID
		data []byte
		e    = Entry{Key: key}
	)
	err := r.pool.QueryRow(ctx, query, key.StockCode, key.Year, key.ReportType).Scan(&id, &data, &e.Summary, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoAnalysis, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &e.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis %s: %w", key, err)
	}
	e.ID = id.String()
	return &e, nil
}

// path resolves the cache file for key and refuses names that would land
// outside r.dir.
func (r *AnalysisRepo) path(key ingest.Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%d_%s.json", key.StockCode, key.Year, key.ReportType)
	p := filepath.Join(r.dir, name)
	rel, err := filepath.Rel(r.dir, p)
	if err != nil || rel != name {
		return "", fmt.Errorf("%w: %s escapes cache dir", ingest.ErrInvalidKey, key)
	}
	return p, nil
}

func (r *AnalysisRepo) saveFile(e *Entry) error {
	path, err := r.path(e.Key)
	if err != nil {
		return err
	}
	if existing, err := r.getFile(e.Key); err == nil {
		e.ID = existing.ID
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	r.log.Debug().Str("report", e.Key.String()).Str("id", e.ID).Msg("analysis cached to file")
	return nil
}

func (r *AnalysisRepo) getFile(key ingest.Key) (*Entry, error) {
	path, err := r.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoAnalysis, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache file: %w", err)
	}
	return &e, nil
}
