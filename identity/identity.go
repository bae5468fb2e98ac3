package identity

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	Version = "1.0.0"

	MinUsernameLength = 3
	MinPasswordLength = 6
)

const (
	OccupationTeacher        = "Teacher"
	OccupationStudent        = "Student"
	OccupationCollegeStudent = "CollegeStudent"
	OccupationOther          = "Other"
)

var (
	emailRegex    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRegex    = regexp.MustCompile(`^\d{10}$`)
	fullNameRegex = regexp.MustCompile(`^[\p{L}]+(?:[ ][\p{L}]+)*$`)
)

func validOccupation(occupation string) bool {
	switch occupation {
	case OccupationTeacher, OccupationStudent, OccupationCollegeStudent, OccupationOther:
		return true
	}
	return false
}

// ---------- Domain operations ----------

func (ictx *IdentityContext) RegisterUser(username string, email string, password string) (*UserAccount, *utils.ApiError) {
	badfields := make([]string, 0)
	if len(username) < MinUsernameLength {
		badfields = append(badfields, "username")
	}
	if !emailRegex.MatchString(email) {
		badfields = append(badfields, "email")
	}
	if len(password) < MinPasswordLength {
		badfields = append(badfields, "password")
	}
	if len(badfields) > 0 {
		return nil, utils.Invalid("Please provide valid account information", badfields...)
	}
	existing, err := ictx.GetUserByUsername(username)
	if err != nil {
		return nil, utils.Unavailable("Couldn't check username")
	}
	if existing != nil {
		return nil, utils.Conflict("Username already taken")
	}
	existing, err = ictx.GetUserByEmail(email)
	if err != nil {
		return nil, utils.Unavailable("Couldn't check email")
	}
	if existing != nil {
		return nil, utils.Conflict("Email already registered")
	}
	hash, err := passwordHash(password)
	if err != nil {
		return nil, utils.Unavailable("Couldn't process password")
	}
	uid, err := ictx.insertUser(username, email, hash)
	if err != nil {
		return nil, utils.Unavailable("Couldn't create user")
	}
	user, err := ictx.GetUserById(uid)
	if err != nil || user == nil {
		return nil, utils.Unavailable("Couldn't load created user")
	}
	return user, nil
}

func (ictx *IdentityContext) LoginUser(username string, password string) (*UserAccount, *utils.ApiError) {
	if username == "" || password == "" {
		return nil, utils.Invalid("Please provide username and password")
	}
	user, err := ictx.GetUserByUsername(username)
	if err != nil {
		return nil, utils.Unavailable("Couldn't look up user")
	}
	if user == nil {
		return nil, utils.Unauthenticated("Account does not exist")
	}
	if passwordVerify(password, user.PasswordHash) != nil {
		return nil, utils.Unauthenticated("Wrong password")
	}
	if user.Status != StatusActive {
		return nil, utils.Forbidden("Account suspended")
	}
	err = ictx.updateLastLogin(user.Uid)
	if err != nil {
		log.Printf("WARN: couldn't update last login for %d: %s", user.Uid, err)
	}
	return user, nil
}

type ProfileUpdate struct {
	FullName   string `json:"fullName"`
	BirthDate  string `json:"birthDate"`
	Occupation string `json:"occupation"`
	Phone      string `json:"phone"`
}

// Save profile fields. This is the route the completeness precondition
// carves out, so it must work for users with empty profiles. A changed
// display name fans out to the denormalized author snapshots via OnRename.
func (ictx *IdentityContext) UpdateProfile(user *UserAccount, update *ProfileUpdate) (*UserAccount, *utils.ApiError) {
	badfields := make([]string, 0)
	if update.FullName != "" && !fullNameRegex.MatchString(update.FullName) {
		badfields = append(badfields, "fullName")
	}
	if update.Phone != "" && !phoneRegex.MatchString(update.Phone) {
		badfields = append(badfields, "phone")
	}
	if update.Occupation != "" && !validOccupation(update.Occupation) {
		badfields = append(badfields, "occupation")
	}
	if update.BirthDate != "" {
		birth, err := time.Parse(DateFormat, update.BirthDate)
		if err != nil || birth.After(time.Now()) {
			badfields = append(badfields, "birthDate")
		}
	}
	if len(badfields) > 0 {
		return nil, utils.Invalid("Some profile fields are invalid", badfields...)
	}
	oldName := user.DisplayName()
	_, err := ictx.db.Exec(`update users set
    full_name = ?, birth_date = ?, occupation = ?, phone = ?, updated = ?
    where uid = ?`,
		update.FullName, update.BirthDate, update.Occupation, update.Phone, now(), user.Uid)
	if err != nil {
		return nil, utils.Unavailable("Couldn't save profile")
	}
	updated, err := ictx.GetUserById(user.Uid)
	if err != nil || updated == nil {
		return nil, utils.Unavailable("Couldn't load updated profile")
	}
	if updated.DisplayName() != oldName && ictx.OnRename != nil {
		err = ictx.OnRename(updated.Uid, updated.DisplayName())
		if err != nil {
			log.Printf("ERROR: rename fanout failed for %d: %s", updated.Uid, err)
		}
	}
	return updated, nil
}

func (ictx *IdentityContext) ChangePassword(user *UserAccount, oldPassword string, newPassword string) *utils.ApiError {
	if passwordVerify(oldPassword, user.PasswordHash) != nil {
		return utils.Unauthenticated("Current password is wrong")
	}
	if len(newPassword) < MinPasswordLength {
		return utils.Invalid("New password is too short", "newPassword")
	}
	if passwordVerify(newPassword, user.PasswordHash) == nil {
		return utils.Invalid("New password must differ from the current one", "newPassword")
	}
	hash, err := passwordHash(newPassword)
	if err != nil {
		return utils.Unavailable("Couldn't process password")
	}
	err = ictx.updatePasswordHash(user.Uid, hash)
	if err != nil {
		return utils.Unavailable("Couldn't save password")
	}
	return nil
}

func newResetId() string {
	return uuid.NewString()
}

func randomResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (ictx *IdentityContext) BeginPasswordReset(email string) *utils.ApiError {
	user, err := ictx.GetUserByEmail(email)
	if err != nil {
		return utils.Unavailable("Couldn't look up email")
	}
	if user == nil {
		return utils.NotFound("No account with that email")
	}
	code, err := randomResetCode()
	if err != nil {
		return utils.Unavailable("Couldn't generate reset code")
	}
	expires := time.Now().UTC().Add(time.Duration(ictx.config.ResetCodeTime)).Format(TimeFormat)
	_, err = ictx.db.Exec("insert into reset_codes (id, uid, code, expires) values (?, ?, ?, ?)",
		newResetId(), user.Uid, code, expires)
	if err != nil {
		return utils.Unavailable("Couldn't store reset code")
	}
	err = ictx.mailer.SendResetCode(email, code)
	if err != nil {
		log.Printf("ERROR: couldn't send reset code: %s", err)
		return utils.Unavailable("Couldn't send reset code")
	}
	return nil
}

func (ictx *IdentityContext) findLiveResetCode(email string, code string) (*resetCode, *utils.ApiError) {
	user, err := ictx.GetUserByEmail(email)
	if err != nil {
		return nil, utils.Unavailable("Couldn't look up email")
	}
	if user == nil {
		return nil, utils.Invalid("Invalid or expired reset code")
	}
	var rc resetCode
	err = ictx.db.Get(&rc,
		"select * from reset_codes where uid = ? and code = ? and used = 0 and expires >= ?",
		user.Uid, code, now())
	if err != nil {
		return nil, utils.Invalid("Invalid or expired reset code")
	}
	return &rc, nil
}

func (ictx *IdentityContext) VerifyResetCode(email string, code string) *utils.ApiError {
	_, aerr := ictx.findLiveResetCode(email, code)
	return aerr
}

func (ictx *IdentityContext) ResetPassword(email string, code string, newPassword string) *utils.ApiError {
	rc, aerr := ictx.findLiveResetCode(email, code)
	if aerr != nil {
		return aerr
	}
	if len(newPassword) < MinPasswordLength {
		return utils.Invalid("New password is too short", "newPassword")
	}
	hash, err := passwordHash(newPassword)
	if err != nil {
		return utils.Unavailable("Couldn't process password")
	}
	err = ictx.updatePasswordHash(rc.Uid, hash)
	if err != nil {
		return utils.Unavailable("Couldn't save password")
	}
	_, err = ictx.db.Exec("update reset_codes set used = 1 where id = ?", rc.Id)
	if err != nil {
		log.Printf("WARN: couldn't mark reset code used: %s", err)
	}
	return nil
}

// ---------- Web handlers ----------

func userSummary(user *UserAccount) map[string]any {
	return map[string]any{
		"uid":      user.Uid,
		"username": user.Username,
		"fullName": user.FullName,
	}
}

func profilePayload(user *UserAccount) map[string]any {
	return map[string]any{
		"fullName":   user.FullName,
		"birthDate":  user.BirthDate,
		"occupation": user.Occupation,
		"phone":      user.Phone,
		"createdAt":  user.Created,
		"updatedAt":  user.Updated,
	}
}

func (ictx *IdentityContext) GetHandler() (http.Handler, error) {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		// Credential guessing and reset spam get the heavy limiter
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(ictx.config.HeavyLimitCount, time.Duration(ictx.config.HeavyLimitInterval)))
			r.Post("/register", ictx.WebRegister)
			r.Post("/login", ictx.WebLogin)
			r.Post("/forgot-password", ictx.WebForgotPassword)
			r.Post("/verify-reset-code", ictx.WebVerifyResetCode)
			r.Post("/reset-password", ictx.WebResetPassword)
		})
		r.Post("/refresh-token", ictx.WebRefreshToken)
		r.Post("/logout", ictx.WebLogout)
		r.Get("/me", ictx.WebMe)
	})

	r.Route("/user", func(r chi.Router) {
		r.Get("/profile", ictx.WebGetProfile)
		r.Put("/profile", ictx.WebUpdateProfile)
		r.Post("/change-password", ictx.WebChangePassword)
	})

	return r, nil
}

func (ictx *IdentityContext) WebRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	user, aerr := ictx.RegisterUser(body.Username, body.Email, body.Password)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	render.Status(r, http.StatusCreated)
	utils.RespondSuccess(w, r, map[string]any{
		"message": "Registration successful",
		"user":    userSummary(user),
	})
}

func (ictx *IdentityContext) WebLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	user, aerr := ictx.LoginUser(body.Username, body.Password)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	access, err := ictx.signToken(user.Uid, tokenTypeAccess, time.Duration(ictx.config.AccessTokenTime))
	if err != nil {
		utils.RespondUnexpected(w, r, "signing access token", err)
		return
	}
	refresh, err := ictx.signToken(user.Uid, tokenTypeRefresh, time.Duration(ictx.config.RefreshTokenTime))
	if err != nil {
		utils.RespondUnexpected(w, r, "signing refresh token", err)
		return
	}
	utils.SetSecureCookie(w, RefreshCookie, refresh, time.Duration(ictx.config.RefreshTokenTime))
	utils.RespondSuccess(w, r, map[string]any{
		"accessToken": access,
		"user":        userSummary(user),
	})
}

func (ictx *IdentityContext) WebRefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookie)
	if err != nil {
		utils.RespondError(w, r, utils.Unauthenticated("No refresh token"))
		return
	}
	uid, aerr := ictx.verifyToken(cookie.Value, tokenTypeRefresh)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	user, err := ictx.GetUserById(uid)
	if err != nil {
		utils.RespondUnexpected(w, r, "loading user for refresh", err)
		return
	}
	if user == nil {
		utils.RespondError(w, r, utils.Unauthenticated("User no longer exists"))
		return
	}
	access, err := ictx.signToken(user.Uid, tokenTypeAccess, time.Duration(ictx.config.AccessTokenTime))
	if err != nil {
		utils.RespondUnexpected(w, r, "signing access token", err)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{
		"accessToken": access,
		"user":        userSummary(user),
	})
}

func (ictx *IdentityContext) WebLogout(w http.ResponseWriter, r *http.Request) {
	if _, aerr := ictx.AuthenticateRequest(r); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.DeleteCookie(RefreshCookie, w)
	utils.RespondSuccess(w, r, map[string]any{"message": "Logged out"})
}

func (ictx *IdentityContext) WebMe(w http.ResponseWriter, r *http.Request) {
	user, aerr := ictx.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"user": user})
}

func (ictx *IdentityContext) WebGetProfile(w http.ResponseWriter, r *http.Request) {
	user, aerr := ictx.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"user": profilePayload(user)})
}

func (ictx *IdentityContext) WebUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, aerr := ictx.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	var update ProfileUpdate
	if aerr := utils.DecodeJsonBody(r, &update); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	updated, aerr := ictx.UpdateProfile(user, &update)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{
		"message": "Profile updated",
		"user":    profilePayload(updated),
	})
}

func (ictx *IdentityContext) WebChangePassword(w http.ResponseWriter, r *http.Request) {
	user, aerr := ictx.AuthenticateRequest(r)
	if aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if aerr := ictx.ChangePassword(user, body.OldPassword, body.NewPassword); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"message": "Password changed"})
}

func (ictx *IdentityContext) WebForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if aerr := ictx.BeginPasswordReset(body.Email); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"message": "Reset code sent"})
}

func (ictx *IdentityContext) WebVerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if aerr := ictx.VerifyResetCode(body.Email, body.Code); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"message": "Code is valid"})
}

func (ictx *IdentityContext) WebResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if aerr := utils.DecodeJsonBody(r, &body); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	if aerr := ictx.ResetPassword(body.Email, body.Code, body.NewPassword); aerr != nil {
		utils.RespondError(w, r, aerr)
		return
	}
	utils.RespondSuccess(w, r, map[string]any{"message": "Password reset"})
}
