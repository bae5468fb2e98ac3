package crossword

import (
	"net/http"

	"github.com/randomouscrap98/wordgrid/identity"
	"github.com/randomouscrap98/wordgrid/utils"
)

// Mark the puzzle completed for this user, exactly once per (puzzle, user).
// Requires the live play session already resumed by the caller; the session
// is single use, so the cookie is cleared on success.
func (cctx *CrosswordContext) MarkCompleted(w http.ResponseWriter, session *SessionState, puzzle *Puzzle, userId int64) *utils.ApiError {
	if session.Kind != KindPlaying || session.UserId != userId || session.PuzzleId != puzzle.Id {
		return utils.Forbidden("No active play session for this puzzle")
	}
	done, err := cctx.store.HasCompletion(puzzle.Id, userId)
	if err != nil {
		return utils.Unavailable("Couldn't check completion state")
	}
	if done {
		return utils.Conflict("You already completed this puzzle")
	}
	// The insert re-checks under the primary key; a racing duplicate loses
	// here instead of double counting.
	inserted, err := cctx.store.AppendCompletion(puzzle.Id, userId)
	if err != nil {
		return utils.Unavailable("Couldn't record completion")
	}
	if !inserted {
		return utils.Conflict("You already completed this puzzle")
	}
	puzzle.CompletionCount += 1
	ClearSessionCookie(w)
	return nil
}

// Recompute every author's count of public, finalized puzzles and push the
// result into the denormalized per-user counter. A full recompute on
// purpose: visibility and finalization change out from under incremental
// counters, and this stays safe to re-run.
func (cctx *CrosswordContext) RefreshPublicCounts() error {
	counts, err := cctx.store.PublicCountsByAuthor()
	if err != nil {
		return err
	}
	return cctx.users.SetPublicCounts(counts)
}

// Top authors by public puzzle count; ties broken by earliest account
// creation so the ordering is reproducible.
func (cctx *CrosswordContext) Leaderboard(n int) ([]identity.AuthorRank, error) {
	return cctx.users.TopAuthors(n)
}
