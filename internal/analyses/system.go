package analyses

import (
	"context"

	"github.com/google/uuid"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/pagination"
)

// System defines the public contract for analysis domain operations.
type System interface {
	Handler(maxBodySize, maxMediaSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Analysis], error)

	Find(ctx context.Context, id uuid.UUID) (*Analysis, error)
	Create(ctx context.Context, cmd CreateCommand) (*Analysis, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadMedia(ctx context.Context, cmd MediaCommand) (*Media, error)
}
