package game

import (
	"context"
	"fmt"

	"github.com/tomz197/handsoff/internal/leaderboard"
	"golang.org/x/sync/errgroup"
)

// load fetches the top scores and the session concurrently.
func (g *Game) load(ctx context.Context) result {
	var (
		entries []leaderboard.Entry
		session *leaderboard.Session
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		entries, err = g.service.FetchTopScores(ctx, g.tuning.GameID, g.tuning.BoardSize)
		if err != nil {
			return fmt.Errorf("fetch scores: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		session, err = g.auth.CurrentSession(ctx)
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}
		return nil
	})
	err := eg.Wait()
	return result{kind: resultLoad, entries: entries, session: session, err: err}
}
