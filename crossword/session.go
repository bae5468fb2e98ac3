package crossword

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	SessionCookie = "wordgrid_session"

	KindAuthoring = "authoring"
	KindPlaying   = "playing"

	ModeCreate = "create"
	ModeEdit   = "edit"
)

// What a resumed session token tells us. The server holds no session table:
// everything here round-trips through the signed cookie.
type SessionState struct {
	Kind     string
	Mode     string
	PuzzleId string
	UserId   int64
	IssuedAt time.Time
}

type sessionClaims struct {
	Kind     string `json:"kind"`
	Mode     string `json:"mode,omitempty"`
	PuzzleId string `json:"pid"`
	UserId   int64  `json:"uid"`
	jwt.RegisteredClaims
}

// Issues and validates the signed session tokens carried in the cookie.
// Stateless: validity is signature + expiry, nothing stored server side.
type SessionManager struct {
	secret        []byte
	authoringTime time.Duration
	playTime      time.Duration
}

func NewSessionManager(config *Config) (*SessionManager, error) {
	secret, err := hex.DecodeString(config.SessionSecret)
	if err != nil || len(secret) == 0 {
		return nil, fmt.Errorf("SessionSecret must be non-empty hex")
	}
	return &SessionManager{
		secret:        secret,
		authoringTime: time.Duration(config.AuthoringTime),
		playTime:      time.Duration(config.PlayTime),
	}, nil
}

func (sm *SessionManager) ttl(kind string) time.Duration {
	if kind == KindPlaying {
		return sm.playTime
	}
	return sm.authoringTime
}

// Sign a fresh session token. Authorization (who may begin what) is the
// caller's problem; this only encodes the already-approved state.
func (sm *SessionManager) Begin(kind string, mode string, puzzleId string, userId int64) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Kind:     kind,
		Mode:     mode,
		PuzzleId: puzzleId,
		UserId:   userId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl(kind))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(sm.secret)
}

// Validate a token and recover its state. Failures keep the three-way
// split the callers care about: expired, malformed, or fine.
func (sm *SessionManager) Resume(token string) (*SessionState, *utils.ApiError) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) { return sm.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.Expired("Session has expired")
		}
		return nil, utils.Unauthenticated("Malformed session token")
	}
	if !parsed.Valid {
		return nil, utils.Unauthenticated("Malformed session token")
	}
	if claims.Kind != KindAuthoring && claims.Kind != KindPlaying {
		return nil, utils.Unauthenticated("Malformed session token")
	}
	state := SessionState{
		Kind:     claims.Kind,
		Mode:     claims.Mode,
		PuzzleId: claims.PuzzleId,
		UserId:   claims.UserId,
	}
	if claims.IssuedAt != nil {
		state.IssuedAt = claims.IssuedAt.Time
	}
	return &state, nil
}

// Set the session cookie for a freshly begun session.
func (sm *SessionManager) WriteCookie(w http.ResponseWriter, token string, kind string) {
	utils.SetSecureCookie(w, SessionCookie, token, sm.ttl(kind))
}

// End whatever session the client is carrying. Also used when a session
// references a puzzle that no longer exists.
func ClearSessionCookie(w http.ResponseWriter) {
	utils.DeleteCookie(SessionCookie, w)
}

// Resume the session carried by the request, checking that the referenced
// puzzle still exists. A vanished puzzle invalidates the session (NotFound)
// and clears the cookie right here so the client doesn't keep it.
func (cctx *CrosswordContext) ResumeSession(w http.ResponseWriter, r *http.Request) (*SessionState, *Puzzle, *utils.ApiError) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, nil, utils.NotFound("No session")
	}
	state, aerr := cctx.sessions.Resume(cookie.Value)
	if aerr != nil {
		return nil, nil, aerr
	}
	puzzle, err := cctx.store.FindById(state.PuzzleId)
	if err != nil {
		return nil, nil, utils.Unavailable("Couldn't look up session puzzle")
	}
	if puzzle == nil {
		ClearSessionCookie(w)
		return nil, nil, utils.NotFound("Session puzzle no longer exists")
	}
	return state, puzzle, nil
}

// Begin an authoring session against an existing puzzle. Author only.
func (cctx *CrosswordContext) BeginAuthoring(w http.ResponseWriter, puzzle *Puzzle, mode string, userId int64) *utils.ApiError {
	if puzzle.AuthorId != userId {
		return utils.Forbidden("Only the author may edit this puzzle")
	}
	token, err := cctx.sessions.Begin(KindAuthoring, mode, puzzle.Id, userId)
	if err != nil {
		return utils.Unavailable("Couldn't issue session token")
	}
	cctx.sessions.WriteCookie(w, token, KindAuthoring)
	return nil
}

// Begin a play session. Any authenticated user, but the puzzle must be
// finalized and visible to them. Bumps the advisory play counter once per
// session start (repeat starts by the same user count again).
func (cctx *CrosswordContext) BeginPlaying(w http.ResponseWriter, puzzle *Puzzle, userId int64) *utils.ApiError {
	if !puzzle.Finalized {
		return utils.Invalid("This puzzle isn't finished yet and can't be played")
	}
	if puzzle.Visibility != VisibilityPublic && puzzle.AuthorId != userId {
		return utils.Forbidden("This puzzle is private")
	}
	token, err := cctx.sessions.Begin(KindPlaying, "", puzzle.Id, userId)
	if err != nil {
		return utils.Unavailable("Couldn't issue session token")
	}
	err = cctx.store.IncrementPlayCount(puzzle.Id)
	if err != nil {
		// Advisory counter; losing an increment is not worth failing the play
		log.Printf("WARN: couldn't increment play count for %s: %s", puzzle.Id, err)
	} else {
		puzzle.PlayCount += 1
	}
	cctx.sessions.WriteCookie(w, token, KindPlaying)
	return nil
}
