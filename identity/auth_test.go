package identity

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := passwordHash("somepassword")
	if err != nil {
		t.Fatalf("Couldn't hash password: %s", err)
	}
	if hash == "somepassword" {
		t.Fatalf("Hash shouldn't be the plaintext")
	}
	if passwordVerify("somepassword", hash) != nil {
		t.Fatalf("Good password rejected")
	}
	if passwordVerify("wrongpassword", hash) == nil {
		t.Fatalf("Wrong password accepted")
	}
}

func jsonRequest(t *testing.T, handler http.Handler, method string, path string,
	token string, cookies []*http.Cookie, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Couldn't marshal request body: %s", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	var result map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &result)
	if err != nil {
		t.Fatalf("Response wasn't json (%d): %s", w.Code, w.Body.String())
	}
	return w, result
}

func TestAuthTokenFlow(t *testing.T) {
	ictx := newTestContext("authtokenflow")
	defer ictx.Close()
	handler, err := ictx.GetHandler()
	if err != nil {
		t.Fatalf("Couldn't build handler: %s", err)
	}

	w, _ := jsonRequest(t, handler, "POST", "/auth/register", "", nil, map[string]string{
		"username": "tokenuser", "email": "token@example.com", "password": "somepassword",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Register failed (%d): %s", w.Code, w.Body.String())
	}

	w, result := jsonRequest(t, handler, "POST", "/auth/login", "", nil, map[string]string{
		"username": "tokenuser", "password": "somepassword",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed (%d): %s", w.Code, w.Body.String())
	}
	access, _ := result["accessToken"].(string)
	if access == "" {
		t.Fatalf("No access token in login response")
	}
	var refresh *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == RefreshCookie && c.Value != "" {
			refresh = &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	if refresh == nil {
		t.Fatalf("Login should set the refresh cookie")
	}

	// The access token opens /auth/me
	w, result = jsonRequest(t, handler, "GET", "/auth/me", access, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Me failed (%d): %s", w.Code, w.Body.String())
	}
	user, _ := result["user"].(map[string]any)
	if user["username"] != "tokenuser" {
		t.Fatalf("Wrong user from /auth/me: %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("Password hash leaked in /auth/me")
	}

	// Garbage and missing tokens are rejected
	w, _ = jsonRequest(t, handler, "GET", "/auth/me", "not.a.token", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Garbage token should be 401, got %d", w.Code)
	}
	w, _ = jsonRequest(t, handler, "GET", "/auth/me", "", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Missing token should be 401, got %d", w.Code)
	}

	// The refresh cookie isn't an access token
	w, _ = jsonRequest(t, handler, "GET", "/auth/me", refresh.Value, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Refresh token used as access should be 401, got %d", w.Code)
	}

	// But it mints a fresh access token through the refresh route
	w, result = jsonRequest(t, handler, "POST", "/auth/refresh-token", "", []*http.Cookie{refresh}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Refresh failed (%d): %s", w.Code, w.Body.String())
	}
	if result["accessToken"].(string) == "" {
		t.Fatalf("No access token from refresh")
	}
	w, _ = jsonRequest(t, handler, "POST", "/auth/refresh-token", "", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Refresh without cookie should be 401, got %d", w.Code)
	}
}

// The profile update route must stay open to users whose profile is still
// incomplete; it's how they become complete in the first place.
func TestProfileRouteOpenWhileIncomplete(t *testing.T) {
	ictx := newTestContext("profileroute")
	defer ictx.Close()
	handler, err := ictx.GetHandler()
	if err != nil {
		t.Fatalf("Couldn't build handler: %s", err)
	}
	_, aerr := ictx.RegisterUser("incompleteuser", "incomplete@example.com", "somepassword")
	if aerr != nil {
		t.Fatalf("Couldn't register: %s", aerr)
	}
	w, result := jsonRequest(t, handler, "POST", "/auth/login", "", nil, map[string]string{
		"username": "incompleteuser", "password": "somepassword",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed (%d): %s", w.Code, w.Body.String())
	}
	access, _ := result["accessToken"].(string)

	w, _ = jsonRequest(t, handler, "GET", "/user/profile", access, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Profile read should work while incomplete, got %d", w.Code)
	}
	w, result = jsonRequest(t, handler, "PUT", "/user/profile", access, nil, map[string]string{
		"fullName":   "Finally Complete",
		"birthDate":  "1992-02-02",
		"occupation": OccupationOther,
		"phone":      "0123456789",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Profile update should work while incomplete (%d): %s", w.Code, w.Body.String())
	}
	user, _ := result["user"].(map[string]any)
	if user["fullName"] != "Finally Complete" {
		t.Fatalf("Profile update didn't stick: %v", user)
	}
}

func TestRespondProfileIncompletePayload(t *testing.T) {
	ictx := newTestContext("incompletepayload")
	defer ictx.Close()
	user, aerr := ictx.RegisterUser("payloaduser", "payload@example.com", "somepassword")
	if aerr != nil {
		t.Fatalf("Couldn't register: %s", aerr)
	}
	req := httptest.NewRequest("POST", "/", nil)
	w := httptest.NewRecorder()
	if !RespondProfileIncomplete(w, req, user) {
		t.Fatalf("Incomplete profile should be blocked")
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}
	var result map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &result)
	if err != nil {
		t.Fatalf("Response wasn't json: %s", w.Body.String())
	}
	if result["requireProfileUpdate"] != true {
		t.Fatalf("Expected requireProfileUpdate: %v", result)
	}
	missing, _ := result["missingFields"].([]any)
	if len(missing) != 4 {
		t.Fatalf("Expected 4 missing fields: %v", missing)
	}
	if _, ok := result["currentProfile"].(map[string]any); !ok {
		t.Fatalf("Expected currentProfile: %v", result)
	}

	// A complete profile passes straight through with nothing written
	user, aerr = ictx.UpdateProfile(user, &ProfileUpdate{
		FullName: "Payload Person", BirthDate: "1991-01-01",
		Occupation: OccupationTeacher, Phone: "0123456789",
	})
	if aerr != nil {
		t.Fatalf("Profile update failed: %s", aerr)
	}
	w = httptest.NewRecorder()
	if RespondProfileIncomplete(w, req, user) {
		t.Fatalf("Complete profile shouldn't be blocked")
	}
	if w.Body.Len() != 0 {
		t.Fatalf("Nothing should be written for a complete profile")
	}
}
