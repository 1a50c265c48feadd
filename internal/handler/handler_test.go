package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/avatar"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func createTestUser(t *testing.T, s *store.Store, username string) model.User {
	t.Helper()
	hash, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := s.CreateUser(username, hash)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func asUser(r *http.Request, user model.User) *http.Request {
	id := auth.Identity{UserID: user.ID, Username: user.Username}
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestStore(t)
	jm := auth.NewJWTManager("test-secret", time.Hour)
	h := NewAuthHandler(s, jm, AdminCredentials{Username: "admin", Password: "adminpass"}, testLogger())

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(t, http.MethodPost, "/api/register", map[string]string{
		"username": "alice",
		"password": "secret",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	h.Login(w, jsonRequest(t, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "secret",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200", w.Code)
	}

	var resp map[string]string
	decodeBody(t, w, &resp)
	claims, err := jm.Validate(resp["token"])
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "alice" || claims.Admin {
		t.Errorf("claims = %+v, want alice non-admin", claims)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "alice")
	h := NewAuthHandler(s, auth.NewJWTManager("test-secret", time.Hour), AdminCredentials{}, testLogger())

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(t, http.MethodPost, "/api/register", map[string]string{
		"username": "alice",
		"password": "other",
	}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["error"] != "User exists" {
		t.Errorf("error = %q, want %q", resp["error"], "User exists")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	h := NewAuthHandler(newTestStore(t), auth.NewJWTManager("test-secret", time.Hour), AdminCredentials{}, testLogger())

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(t, http.MethodPost, "/api/register", map[string]string{"username": "alice"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "alice")
	h := NewAuthHandler(s, auth.NewJWTManager("test-secret", time.Hour), AdminCredentials{}, testLogger())

	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "secret"},
	} {
		w := httptest.NewRecorder()
		h.Login(w, jsonRequest(t, http.MethodPost, "/api/login", body))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		var resp map[string]string
		decodeBody(t, w, &resp)
		if resp["error"] != "Invalid credentials" {
			t.Errorf("error = %q, want %q", resp["error"], "Invalid credentials")
		}
	}
}

func TestAdminLogin(t *testing.T) {
	jm := auth.NewJWTManager("test-secret", time.Hour)
	h := NewAuthHandler(newTestStore(t), jm, AdminCredentials{Username: "admin", Password: "adminpass"}, testLogger())

	w := httptest.NewRecorder()
	h.AdminLogin(w, jsonRequest(t, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "adminpass",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	decodeBody(t, w, &resp)
	claims, err := jm.Validate(resp["token"])
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if !claims.Admin || claims.UserID != "" {
		t.Errorf("claims = %+v, want admin with no user id", claims)
	}

	w = httptest.NewRecorder()
	h.AdminLogin(w, jsonRequest(t, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad password status = %d, want 400", w.Code)
	}
}

func TestGroupCreateAndAutocomplete(t *testing.T) {
	s := newTestStore(t)
	h := NewGroupHandler(s, testLogger())

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(t, http.MethodPost, "/api/groups", map[string]string{"name": "Kitchen"}))
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, want 200", w.Code)
	}
	var group model.Group
	decodeBody(t, w, &group)
	if group.Name != "Kitchen" || group.ID == "" {
		t.Errorf("group = %+v, want named Kitchen with id", group)
	}

	// Same name again resolves to the existing group.
	w = httptest.NewRecorder()
	h.Create(w, jsonRequest(t, http.MethodPost, "/api/groups", map[string]string{"name": "  kitchen "}))
	var again model.Group
	decodeBody(t, w, &again)
	if again.ID != group.ID {
		t.Errorf("resolved id = %q, want %q", again.ID, group.ID)
	}

	w = httptest.NewRecorder()
	h.Autocomplete(w, httptest.NewRequest(http.MethodGet, "/api/groups/autocomplete?q=ki", nil))
	var names []string
	decodeBody(t, w, &names)
	if len(names) != 1 || names[0] != "Kitchen" {
		t.Errorf("autocomplete = %v, want [Kitchen]", names)
	}
}

func TestGroupCreateMissingName(t *testing.T) {
	h := NewGroupHandler(newTestStore(t), testLogger())

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(t, http.MethodPost, "/api/groups", map[string]string{"name": "   "}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGoalCreateAndList(t *testing.T) {
	s := newTestStore(t)
	hub := websocket.NewHub(testLogger())
	h := NewGoalHandler(s, hub, testLogger())

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(t, http.MethodPost, "/api/weekly-goals", map[string]string{
		"name":  "Vacuum",
		"group": "Living Room",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, want 200", w.Code)
	}
	var goal model.GoalEntry
	decodeBody(t, w, &goal)
	if goal.Name != "Vacuum" || goal.Group != "Living Room" {
		t.Errorf("goal = %+v", goal)
	}

	// The backing chore exists so logging it reuses the same record.
	chore, err := s.ResolveChore("Vacuum", "Living Room")
	if err != nil {
		t.Fatalf("resolve chore: %v", err)
	}
	if chore.Name != "Vacuum" {
		t.Errorf("chore = %+v", chore)
	}

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/weekly-goals", nil))
	var goals []model.GoalEntry
	decodeBody(t, w, &goals)
	if len(goals) != 1 {
		t.Fatalf("got %d goals, want 1", len(goals))
	}
}

func TestChoreLog(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h := NewChoreHandler(s, websocket.NewHub(testLogger()), testLogger())

	w := httptest.NewRecorder()
	r := asUser(jsonRequest(t, http.MethodPost, "/api/chores", map[string]any{
		"name":  "Dishes",
		"group": "Kitchen",
		"ts":    12345,
	}), user)
	h.Log(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string    `json:"message"`
		Log     model.Log `json:"log"`
	}
	decodeBody(t, w, &resp)
	if resp.Message != "Logged" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Log.Ts != 12345 || resp.Log.UserID != user.ID {
		t.Errorf("log = %+v", resp.Log)
	}
}

func TestChoreLogBadTimestampDefaultsToNow(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h := NewChoreHandler(s, nil, testLogger())

	before := time.Now().UnixMilli()
	w := httptest.NewRecorder()
	h.Log(w, asUser(jsonRequest(t, http.MethodPost, "/api/chores", map[string]any{
		"name": "Dishes",
		"ts":   "not-a-number",
	}), user))
	after := time.Now().UnixMilli()

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Log model.Log `json:"log"`
	}
	decodeBody(t, w, &resp)
	if resp.Log.Ts < before || resp.Log.Ts > after {
		t.Errorf("ts = %d, want between %d and %d", resp.Log.Ts, before, after)
	}
}

func TestChoreLogMissingName(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h := NewChoreHandler(s, nil, testLogger())

	w := httptest.NewRecorder()
	h.Log(w, asUser(jsonRequest(t, http.MethodPost, "/api/chores", map[string]any{"name": "  "}), user))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestLogListAndDelete(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	entry, err := s.LogChore(alice.ID, "Dishes", "", nil)
	if err != nil {
		t.Fatalf("log chore: %v", err)
	}
	if _, err := s.LogChore(bob.ID, "Sweep", "", nil); err != nil {
		t.Fatalf("log chore: %v", err)
	}

	h := NewLogHandler(s, nil, testLogger())

	w := httptest.NewRecorder()
	h.List(w, asUser(httptest.NewRequest(http.MethodGet, "/api/logs", nil), alice))
	var own []model.LogEntry
	decodeBody(t, w, &own)
	if len(own) != 1 || own[0].Chore != "Dishes" {
		t.Fatalf("own logs = %+v", own)
	}

	w = httptest.NewRecorder()
	h.ListAll(w, asUser(httptest.NewRequest(http.MethodGet, "/api/logs/all", nil), bob))
	var all []model.LogEntry
	decodeBody(t, w, &all)
	if len(all) != 2 {
		t.Fatalf("got %d logs, want 2", len(all))
	}

	// Bob cannot delete Alice's log.
	w = httptest.NewRecorder()
	r := asUser(httptest.NewRequest(http.MethodDelete, "/api/logs/"+entry.ID, nil), bob)
	r.SetPathValue("id", entry.ID)
	h.Delete(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r = asUser(httptest.NewRequest(http.MethodDelete, "/api/logs/"+entry.ID, nil), alice)
	r.SetPathValue("id", entry.ID)
	h.Delete(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("own delete status = %d, want 200", w.Code)
	}
}

func TestLogSummaryWindow(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	for _, ts := range []int64{100, 200, 900} {
		ts := ts
		if _, err := s.LogChore(alice.ID, "Dishes", "", &ts); err != nil {
			t.Fatalf("log chore: %v", err)
		}
	}

	h := NewLogHandler(s, nil, testLogger())

	w := httptest.NewRecorder()
	h.Summary(w, asUser(httptest.NewRequest(http.MethodGet, "/api/summary?from=50&to=300", nil), alice))
	var counts map[string]int
	decodeBody(t, w, &counts)
	if counts[alice.ID] != 2 {
		t.Errorf("counts = %v, want 2 for %s", counts, alice.ID)
	}

	// Unparseable bounds fall back to the full range.
	w = httptest.NewRecorder()
	h.Summary(w, asUser(httptest.NewRequest(http.MethodGet, "/api/summary?from=abc", nil), alice))
	decodeBody(t, w, &counts)
	if counts[alice.ID] != 3 {
		t.Errorf("counts = %v, want 3 for %s", counts, alice.ID)
	}
}

func newTestUserHandler(t *testing.T, s *store.Store) (*UserHandler, *avatar.Store) {
	t.Helper()
	av, err := avatar.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("avatar store: %v", err)
	}
	jm := auth.NewJWTManager("test-secret", time.Hour)
	return NewUserHandler(s, av, jm, nil, testLogger()), av
}

func TestUserMe(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h, _ := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	h.Me(w, asUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), user))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["username"] != "alice" || resp["id"] != user.ID {
		t.Errorf("resp = %v", resp)
	}
}

func TestUpdateUsername(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	createTestUser(t, s, "bob")
	h, _ := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	h.UpdateUsername(w, asUser(jsonRequest(t, http.MethodPost, "/api/users/username", map[string]string{
		"username": "bob",
	}), user))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("taken status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	h.UpdateUsername(w, asUser(jsonRequest(t, http.MethodPost, "/api/users/username", map[string]string{
		"username": "alicia",
	}), user))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["username"] != "alicia" || resp["token"] == "" {
		t.Errorf("resp = %v, want new name and reissued token", resp)
	}
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="` + fileField + `"; filename="` + filename + `"`}
		hdr["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUpdateAvatarBuiltin(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h, _ := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	r := asUser(multipartRequest(t, "/api/users/avatar", map[string]string{"builtin": "cat"}, "", "", "", nil), user)
	h.UpdateAvatar(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	updated, err := s.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if updated.Avatar != "cat" {
		t.Errorf("avatar = %q, want %q", updated.Avatar, "cat")
	}
}

func TestUpdateAvatarUpload(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h, av := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	r := asUser(multipartRequest(t, "/api/users/avatar", nil, "avatar", "me.png", "image/png", []byte("png-bytes")), user)
	h.UpdateAvatar(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	updated, err := s.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !av.Exists(updated.Avatar) {
		t.Errorf("avatar file %q not stored", updated.Avatar)
	}
	if !strings.HasSuffix(updated.Avatar, ".png") {
		t.Errorf("avatar = %q, want .png suffix", updated.Avatar)
	}
}

func TestUpdateAvatarRejectsNonImage(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h, _ := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	r := asUser(multipartRequest(t, "/api/users/avatar", nil, "avatar", "notes.txt", "text/plain", []byte("hi")), user)
	h.UpdateAvatar(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["error"] != "Only image files allowed" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestUpdateAvatarExistingUnknownFile(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h, _ := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	r := asUser(multipartRequest(t, "/api/users/avatar", map[string]string{"existing": "ghost.png"}, "", "", "", nil), user)
	h.UpdateAvatar(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAdminDeleteAvatarClearsReferences(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	h, av := newTestUserHandler(t, s)

	name, err := av.Save("pic.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("save avatar: %v", err)
	}
	if _, err := s.SetAvatar(user.ID, name); err != nil {
		t.Fatalf("set avatar: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/admin/avatars/"+name, nil)
	r.SetPathValue("file", name)
	h.AdminDeleteAvatar(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	if av.Exists(name) {
		t.Errorf("avatar file %q still present", name)
	}
	updated, err := s.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if updated.Avatar != "" {
		t.Errorf("avatar = %q, want cleared", updated.Avatar)
	}
}

func TestAdminDeleteAvatarRejectsPath(t *testing.T) {
	s := newTestStore(t)
	h, _ := newTestUserHandler(t, s)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/admin/avatars/x", nil)
	r.SetPathValue("file", "../db.json")
	h.AdminDeleteAvatar(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
