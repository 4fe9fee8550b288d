package usecase

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	// ErrLeagueNotFound is also matched by ErrNotFound.
	ErrLeagueNotFound = crerr.Mark(crerr.New("league not found"), ErrNotFound)

	// ErrDataSource marks every failure returned by the data source client.
	// Callers may retry.
	ErrDataSource = crerr.New("data source failure")

	// ErrTrackingLoopFault marks a failed poll inside a tracking job. It is logged, never returned.
	ErrTrackingLoopFault = crerr.New("tracking loop fault")
)

func leagueNotFound(leagueID string) error {
	return fmt.Errorf("%w: league=%s", ErrLeagueNotFound, leagueID)
}
