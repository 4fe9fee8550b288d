package league

import "context"

// Repository serves the static league configuration loaded at startup.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
}
