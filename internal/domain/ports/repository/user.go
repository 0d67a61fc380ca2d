package repository

import (
	"context"

	"telegram-storefront-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

// UserRepository is the single-table user store. Every call is one atomic
// statement; Upsert merges field by field and never clears registered.
type UserRepository interface {
	Upsert(ctx context.Context, userID int64, patch model.UserPatch) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	ListRegisteredIDs(ctx context.Context) ([]int64, error)
	CountRegistered(ctx context.Context) (int, error)
	// ListForExport returns a snapshot ordered by user id.
	ListForExport(ctx context.Context, onlyRegistered bool) ([]*model.User, error)
	Ping(ctx context.Context) error
}
