package userstore

import (
	"context"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users store.Users
}

// NewFetcher creates a UserFetcher that reads through users.
func NewFetcher(users store.Users) *Fetcher {
	return &Fetcher{users: users}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// deactivated, or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.users.GetByID(ctx, oid)
	if err != nil {
		return nil
	}
	return auth.SessionUserFrom(u)
}
