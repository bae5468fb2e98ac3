package crossword

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/randomouscrap98/wordgrid/identity"
	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	Version = "1.0.0"
)

// The search surface for the public library
type LibraryQuery struct {
	Search  string `schema:"search"`
	Subject string `schema:"subject"`
	Grade   string `schema:"grade"`
	Page    int    `schema:"page"`
}

func (cctx *CrosswordContext) GetHandler() (http.Handler, error) {
	r := chi.NewRouter()

	// Listing/search endpoints do table scans over user text; heavy limiter
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cctx.config.HeavyLimitCount, time.Duration(cctx.config.HeavyLimitInterval)))
		r.Get("/library", cctx.WebLibrary)
		r.Get("/random", cctx.WebRandom)
		r.Get("/leaderboard", cctx.WebLeaderboard)
	})

	r.Get("/mine", cctx.WebMine)
	r.Post("/", cctx.WebCreate)
	r.Post("/session/end", cctx.WebEndSession)
	r.Get("/{id}", cctx.WebGet)
	r.Put("/{id}", cctx.WebSave)
	r.Delete("/{id}", cctx.WebDelete)
	r.Post("/{id}/edit", cctx.WebBeginEdit)
	r.Post("/{id}/play", cctx.WebBeginPlay)
	r.Post("/{id}/complete", cctx.WebComplete)

	return r, nil
}

// Load the puzzle out of the URL, translating "missing" the way every
// handler here wants it.
func (cctx *CrosswordContext) puzzleFromUrl(w http.ResponseWriter, r *http.Request) *Puzzle {
	id := chi.URLParam(r, "id")
	puzzle, err := cctx.store.FindById(id)
	if err != nil {
		utils.RespondUnexpected(w, r, "loading puzzle", err)
		return nil
	}
	if puzzle == nil {
		utils.RespondError(w, r, utils.NotFound("Puzzle not found"))
		return nil
	}
	return puzzle
}

type createPayload struct {
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	Subject    string `json:"subject"`
	GradeLevel string `json:"gradeLevel"`
}

// Create starts an incomplete puzzle (no clues, not finalized) and opens an
// authoring session for it in one step.
func (cctx *CrosswordContext) WebCreate(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if identity.RespondProfileIncomplete(w, r, user) {
		return
	}
	var body createPayload
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	badfields := make([]string, 0)
	if body.Title == "" {
		badfields = append(badfields, "title")
	}
	if body.Subject == "" {
		badfields = append(badfields, "subject")
	}
	if body.GradeLevel == "" {
		badfields = append(badfields, "gradeLevel")
	}
	if body.Visibility == "" {
		body.Visibility = VisibilityPrivate
	}
	if body.Visibility != VisibilityPublic && body.Visibility != VisibilityPrivate {
		badfields = append(badfields, "visibility")
	}
	if len(badfields) > 0 {
		utils.RespondError(w, r, utils.Invalid(
			"Please provide title, subject and grade level", badfields...))
		return
	}
	taken, err := cctx.store.TitleExists(body.Title, "")
	if err != nil {
		utils.RespondUnexpected(w, r, "checking title", err)
		return
	}
	if taken {
		utils.RespondError(w, r, utils.Conflict("A puzzle with this title already exists"))
		return
	}
	puzzle := Puzzle{
		Id:         uuid.NewString(),
		Title:      body.Title,
		AuthorId:   user.Uid,
		AuthorName: user.DisplayName(),
		Visibility: body.Visibility,
		Subject:    body.Subject,
		GradeLevel: body.GradeLevel,
		Entries:    make([]MainEntry, 0),
	}
	err = cctx.store.Insert(&puzzle)
	if err != nil {
		utils.RespondUnexpected(w, r, "inserting puzzle", err)
		return
	}
	if aerr := cctx.BeginAuthoring(w, &puzzle, ModeCreate, user.Uid); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	render.Status(r, http.StatusCreated)
	utils.RespondSuccess(w, r, map[string]any{
		"message": "Puzzle created",
		"data":    AssembleAuthorView(&puzzle),
	})
}

func (cctx *CrosswordContext) WebGet(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	puzzle := cctx.puzzleFromUrl(w, r)
	if puzzle == nil {
		return
	}
	if puzzle.AuthorId != user.Uid {
		utils.RespondError(w, r, utils.Forbidden("Only the author may see the full puzzle"))
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"data": AssembleAuthorView(puzzle)})
}

func (cctx *CrosswordContext) WebBeginEdit(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if identity.RespondProfileIncomplete(w, r, user) {
		return
	}
	puzzle := cctx.puzzleFromUrl(w, r)
	if puzzle == nil {
		return
	}
	if aerr := cctx.BeginAuthoring(w, puzzle, ModeEdit, user.Uid); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"data": AssembleAuthorView(puzzle)})
}

type savePayload struct {
	Title      string      `json:"title"`
	Visibility string      `json:"visibility"`
	Subject    string      `json:"subject"`
	GradeLevel string      `json:"gradeLevel"`
	Entries    []MainEntry `json:"mainKeyword"`
}

// Save is the finalize step: it requires a live authoring session for this
// puzzle, validates the full clue set, and ends the session on success.
func (cctx *CrosswordContext) WebSave(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	session, puzzle, aerr := cctx.ResumeSession(w, r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if session.Kind != KindAuthoring || session.UserId != user.Uid ||
		session.PuzzleId != chi.URLParam(r, "id") {
		utils.RespondError(w, r, utils.Forbidden("No authoring session for this puzzle"))
		return
	}
	if puzzle.AuthorId != user.Uid {
		utils.RespondError(w, r, utils.Forbidden("Only the author may save this puzzle"))
		return
	}
	var body savePayload
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if body.Title != "" {
		taken, err := cctx.store.TitleExists(body.Title, puzzle.Id)
		if err != nil {
			utils.RespondUnexpected(w, r, "checking title", err)
			return
		}
		if taken {
			utils.RespondError(w, r, utils.Conflict("A puzzle with this title already exists"))
			return
		}
		puzzle.Title = body.Title
	}
	if body.Visibility != "" {
		if body.Visibility != VisibilityPublic && body.Visibility != VisibilityPrivate {
			utils.RespondError(w, r, utils.Invalid("Bad visibility value", "visibility"))
			return
		}
		puzzle.Visibility = body.Visibility
	}
	if body.Subject != "" {
		puzzle.Subject = body.Subject
	}
	if body.GradeLevel != "" {
		puzzle.GradeLevel = body.GradeLevel
	}
	if len(body.Entries) == 0 {
		utils.RespondError(w, r, utils.Invalid(
			"A puzzle can't be finalized without any entries", "mainKeyword"))
		return
	}
	entries, aerr := NormalizeEntries(body.Entries)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	puzzle.Entries = entries
	puzzle.Finalized = true
	// Refresh the denormalized author snapshot on every save
	puzzle.AuthorName = user.DisplayName()
	err := cctx.store.Update(puzzle)
	if err != nil {
		utils.RespondUnexpected(w, r, "saving puzzle", err)
		return
	}
	ClearSessionCookie(w)
	utils.RespondSuccess(w, r, map[string]any{
		"message": "Puzzle saved",
		"data":    AssembleAuthorView(puzzle),
	})
}

func (cctx *CrosswordContext) WebDelete(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	puzzle := cctx.puzzleFromUrl(w, r)
	if puzzle == nil {
		return
	}
	if puzzle.AuthorId != user.Uid {
		utils.RespondError(w, r, utils.Forbidden("Only the author may delete this puzzle"))
		return
	}
	deleted, err := cctx.store.Delete(puzzle.Id, user.Uid)
	if err != nil {
		utils.RespondUnexpected(w, r, "deleting puzzle", err)
		return
	}
	if !deleted {
		utils.RespondError(w, r, utils.NotFound("Puzzle not found"))
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"message": "Puzzle deleted"})
}

// Begin a play session: issues the cookie and hands back the redacted view
// in one step, so plaintext answers never ride along.
func (cctx *CrosswordContext) WebBeginPlay(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if identity.RespondProfileIncomplete(w, r, user) {
		return
	}
	puzzle := cctx.puzzleFromUrl(w, r)
	if puzzle == nil {
		return
	}
	// Assemble first: if encryption is unavailable we must not have already
	// started a session or bumped counters.
	view, aerr := cctx.AssemblePlayView(puzzle)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if aerr := cctx.BeginPlaying(w, puzzle, user.Uid); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	view.PlayCount = puzzle.PlayCount
	utils.RespondSuccess(w, r, map[string]any{"data": view})
}

func (cctx *CrosswordContext) WebComplete(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	// Whatever way the session is unusable (missing, expired, malformed,
	// puzzle vanished), completion has no active play session. ResumeSession
	// already cleared the cookie where that's warranted.
	session, puzzle, aerr := cctx.ResumeSession(w, r)
	if aerr != nil {
		utils.RespondError(w, r, utils.Forbidden("No active play session"))
		return
	}
	if puzzle.Id != chi.URLParam(r, "id") {
		utils.RespondError(w, r, utils.Forbidden("No active play session for this puzzle"))
		return
	}
	if aerr := cctx.MarkCompleted(w, session, puzzle, user.Uid); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{
		"message":         "Puzzle completed",
		"completionCount": puzzle.CompletionCount,
	})
}

func (cctx *CrosswordContext) WebEndSession(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	utils.RespondSuccess(w, r, map[string]any{"message": "Session ended"})
}

func (cctx *CrosswordContext) WebLibrary(w http.ResponseWriter, r *http.Request) {
	var query LibraryQuery
	err := cctx.decoder.Decode(&query, r.URL.Query())
	if err != nil {
		utils.RespondError(w, r, utils.Invalid("Couldn't parse search query"))
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	filter := PuzzleFilter{
		Search:        query.Search,
		Subject:       query.Subject,
		GradeLevel:    query.Grade,
		PublicOnly:    true,
		FinalizedOnly: true,
	}
	total, err := cctx.store.CountDocuments(&filter)
	if err != nil {
		utils.RespondUnexpected(w, r, "counting library", err)
		return
	}
	size := cctx.config.PageSize
	puzzles, err := cctx.store.FindMany(&filter, (query.Page-1)*size, size)
	if err != nil {
		utils.RespondUnexpected(w, r, "searching library", err)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{
		"data":     AssembleListings(puzzles),
		"total":    total,
		"page":     query.Page,
		"pageSize": size,
	})
}

func (cctx *CrosswordContext) WebMine(w http.ResponseWriter, r *http.Request) {
	user, aerr := cctx.users.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	filter := PuzzleFilter{AuthorId: user.Uid}
	// An author's own list is small, skip pagination
	puzzles, err := cctx.store.FindMany(&filter, 0, 1000)
	if err != nil {
		utils.RespondUnexpected(w, r, "listing own puzzles", err)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"data": AssembleListings(puzzles)})
}

func (cctx *CrosswordContext) WebRandom(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n < 1 {
		n = 1
	}
	if n > cctx.config.RandomSampleMax {
		n = cctx.config.RandomSampleMax
	}
	filter := PuzzleFilter{PublicOnly: true, FinalizedOnly: true}
	puzzles, err := cctx.store.AggregateRandomSample(&filter, n)
	if err != nil {
		utils.RespondUnexpected(w, r, "sampling puzzles", err)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"data": AssembleListings(puzzles)})
}

func (cctx *CrosswordContext) WebLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n < 1 {
		n = 10
	}
	if n > 100 {
		n = 100
	}
	ranks, err := cctx.Leaderboard(n)
	if err != nil {
		utils.RespondUnexpected(w, r, "reading leaderboard", err)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"data": ranks})
}
