package surface

import (
	"context"

	"github.com/baechuer/newslink/internal/client/query"
)

type SignOutAPI interface {
	SignOut(ctx context.Context) error
}

// SignOut ends the session and marks every cached query stale, so nothing
// read as the previous user is served again. The cache is invalidated even
// when the server call fails.
func SignOut(ctx context.Context, api SignOutAPI, cache *query.Client) error {
	err := api.SignOut(ctx)
	cache.InvalidateAll()
	return err
}
