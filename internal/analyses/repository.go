package analyses

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/workflow"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/pagination"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/query"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/repository"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/storage"
)

type repo struct {
	db         *sql.DB
	analyzer   workflow.Analyzer
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an analysis repository implementing the System interface.
func New(
	db *sql.DB,
	analyzer workflow.Analyzer,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		analyzer:   analyzer,
		storage:    store,
		logger:     logger.With("system", "analyses"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxBodySize, maxMediaSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxBodySize, maxMediaSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Analysis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "ModelUsed")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	items, total, err := repository.QueryPage(ctx, r.db, qb, page.Page, page.PageSize, scanAnalysis)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnalysis)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

// Create analyzes the request and stores the result. Analysis errors are
// returned unchanged; only input errors and cancellation reach this point
// because the analyzer degrades every other failure.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Analysis, error) {
	if cmd.MediaRef != "" {
		if err := storage.ValidateKey(cmd.MediaRef); err != nil {
			return nil, fmt.Errorf("%w: media_ref: %w", ErrInvalidRequest, err)
		}
	}

	result, err := r.analyzer.Analyze(ctx, cmd.Request)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	q := `
		INSERT INTO analyses(id, title, content_length, risk_score, risk_level, mode, model_used, media_ref, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, title, content_length, risk_score, risk_level, mode, model_used, media_ref, result, created_at`

	args := []any{
		uuid.New(),
		strings.TrimSpace(cmd.Title),
		result.Metadata.ContentLength,
		result.RiskScore,
		string(result.RiskLevel),
		string(result.Metadata.Mode),
		result.Metadata.ModelUsed,
		cmd.MediaRef,
		data,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Analysis, error) {
		return repository.QueryOne(ctx, tx, q, args, scanAnalysis)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"analysis stored",
		"id", a.ID,
		"risk_score", a.RiskScore,
		"mode", a.Mode,
	)
	return &a, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM analyses WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("analysis deleted", "id", id)
	return nil
}

func (r *repo) UploadMedia(ctx context.Context, cmd MediaCommand) (*Media, error) {
	if !strings.HasPrefix(cmd.ContentType, "image/") {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidMedia, cmd.ContentType)
	}

	key := buildMediaKey(uuid.New(), sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload media blob: %w", err)
	}

	r.logger.Info("media uploaded", "key", key, "size", len(cmd.Data))

	return &Media{
		Key:         key,
		ContentType: cmd.ContentType,
		SizeBytes:   int64(len(cmd.Data)),
	}, nil
}

func buildMediaKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("media/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "frame"
	}
	return url.PathEscape(name)
}
