package identity

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	RefreshCookie = "wordgrid_refresh"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Generate a hash string from the given password.
func passwordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hash), nil
}

// Compare a password with a hash generated from passwordHash
func passwordVerify(password string, hash string) error {
	rawhash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword(rawhash, []byte(password))
}

type authClaims struct {
	Uid int64  `json:"uid"`
	Typ string `json:"typ"` // access or refresh; one can't stand in for the other
	jwt.RegisteredClaims
}

func parseTokenSecret(config *Config) ([]byte, error) {
	secret, err := hex.DecodeString(config.TokenSecret)
	if err != nil || len(secret) == 0 {
		return nil, fmt.Errorf("TokenSecret must be non-empty hex")
	}
	return secret, nil
}

func (ictx *IdentityContext) signToken(uid int64, typ string, ttl time.Duration) (string, error) {
	nowt := time.Now()
	claims := authClaims{
		Uid: uid,
		Typ: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(nowt),
			ExpiresAt: jwt.NewNumericDate(nowt.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ictx.secret)
}

func (ictx *IdentityContext) verifyToken(token string, typ string) (int64, *utils.ApiError) {
	var claims authClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) { return ictx.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, utils.Expired("Token has expired")
		}
		return 0, utils.Unauthenticated("Invalid token")
	}
	if !parsed.Valid || claims.Typ != typ {
		return 0, utils.Unauthenticated("Invalid token")
	}
	return claims.Uid, nil
}

// The authenticate(token) -> user contract everything else consumes. Reads
// the bearer token, verifies it, and loads the live account.
func (ictx *IdentityContext) AuthenticateRequest(r *http.Request) (*UserAccount, *utils.ApiError) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, utils.Unauthenticated("No authentication token")
	}
	uid, aerr := ictx.verifyToken(strings.TrimPrefix(header, "Bearer "), tokenTypeAccess)
	if aerr != nil {
		return nil, aerr
	}
	user, err := ictx.GetUserById(uid)
	if err != nil {
		return nil, utils.Unavailable("Couldn't look up user")
	}
	if user == nil {
		return nil, utils.Unauthenticated("User no longer exists")
	}
	if user.Status != StatusActive {
		return nil, utils.Forbidden("Account suspended")
	}
	return user, nil
}

// The checkProfile precondition: authoring and playing are gated on a
// complete profile. Sends the structured "go update your profile" rejection
// with the missing fields and current values, and reports whether it did.
// The profile update route itself must never call this (the named carve-out:
// you have to be able to fix your profile with an incomplete profile).
func RespondProfileIncomplete(w http.ResponseWriter, r *http.Request, user *UserAccount) bool {
	missing := user.MissingProfileFields()
	if len(missing) == 0 {
		return false
	}
	render.Status(r, http.StatusForbidden)
	render.JSON(w, r, map[string]any{
		"success":              false,
		"kind":                 string(utils.KindForbidden),
		"message":              "Please complete your profile first",
		"requireProfileUpdate": true,
		"missingFields":        missing,
		"currentProfile": map[string]any{
			"fullName":   user.FullName,
			"birthDate":  user.BirthDate,
			"occupation": user.Occupation,
			"phone":      user.Phone,
		},
	})
	return true
}
