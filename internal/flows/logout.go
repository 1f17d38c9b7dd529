package flows

import "context"

type LogoutStore interface {
	RemoveRefreshToken(ctx context.Context, token string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store LogoutStore
}

// RunLogout removes refreshToken from the store. An empty token is a no-op.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) error {
	if refreshToken == "" {
		return nil
	}
	return deps.Store.RemoveRefreshToken(ctx, refreshToken)
}
