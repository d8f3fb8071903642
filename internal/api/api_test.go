package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stintlabs/stint/internal/db"
)

const testOpsToken = "ops-secret"

func newTestApp(t *testing.T) (*fiber.App, *Handler) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "stint-api-test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	handler := NewHandler(database, Options{
		SecretKey: "test-secret-key",
		Location:  time.UTC,
		OpsToken:  testOpsToken,
		Logger:    zerolog.Nop(),
	})

	app := fiber.New()
	RegisterRoutes(app, handler)
	return app, handler
}

func jsonRequest(t *testing.T, method string, target string, payload interface{}, cookie string) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, target, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}
	return request
}

func decodeJSON(t *testing.T, response *http.Response, out interface{}) {
	t.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// registerTestUser creates an account and returns the session cookie
// plus the new user's id.
func registerTestUser(t *testing.T, app *fiber.App, email string) (string, uint) {
	t.Helper()

	request := jsonRequest(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"email":    email,
		"password": "long-enough-password",
	}, "")
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("register status = %d, want %d", response.StatusCode, fiber.StatusCreated)
	}

	cookie := ""
	for _, c := range response.Cookies() {
		if c.Name == authCookieName {
			cookie = c.Name + "=" + c.Value
		}
	}
	if cookie == "" {
		t.Fatal("register did not set a session cookie")
	}

	var view struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, response, &view)
	return cookie, view.ID
}

func createTestExperimentHTTP(t *testing.T, app *fiber.App, cookie string, name string) uint {
	t.Helper()

	request := jsonRequest(t, http.MethodPost, "/api/experiments", fiber.Map{
		"name":           name,
		"duration_value": 1,
		"duration_unit":  "week",
	}, cookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("create experiment request: %v", err)
	}
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("create experiment status = %d, want %d", response.StatusCode, fiber.StatusCreated)
	}

	var view struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, response, &view)
	return view.ID
}

func TestRegisterLoginAndSessionFlow(t *testing.T) {
	app, _ := newTestApp(t)
	registerTestUser(t, app, "flow@example.com")

	request := jsonRequest(t, http.MethodPost, "/api/auth/login", fiber.Map{
		"email":    "Flow@Example.com",
		"password": "long-enough-password",
	}, "")
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d, want %d", response.StatusCode, fiber.StatusOK)
	}

	var view struct {
		Email string `json:"email"`
		Tier  string `json:"tier"`
	}
	decodeJSON(t, response, &view)
	if view.Email != "flow@example.com" {
		t.Fatalf("login email = %q, want normalized address", view.Email)
	}
	if view.Tier != "free" {
		t.Fatalf("login tier = %q, want free", view.Tier)
	}
}

func TestRegisterRejectsWeakPasswordAndDuplicates(t *testing.T) {
	app, _ := newTestApp(t)

	request := jsonRequest(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"email":    "weak@example.com",
		"password": "short",
	}, "")
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("weak password status = %d, want %d", response.StatusCode, fiber.StatusBadRequest)
	}

	registerTestUser(t, app, "dup@example.com")
	request = jsonRequest(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"email":    "dup@example.com",
		"password": "long-enough-password",
	}, "")
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	if response.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate email status = %d, want %d", response.StatusCode, fiber.StatusConflict)
	}
}

func TestExperimentsRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	request := jsonRequest(t, http.MethodGet, "/api/experiments", nil, "")
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	if response.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want %d", response.StatusCode, fiber.StatusUnauthorized)
	}
}

func TestFreeTierExperimentLimit(t *testing.T) {
	app, handler := newTestApp(t)
	cookie, userID := registerTestUser(t, app, "limit@example.com")

	for i := 0; i < 3; i++ {
		createTestExperimentHTTP(t, app, cookie, fmt.Sprintf("Habit %d", i+1))
	}

	request := jsonRequest(t, http.MethodPost, "/api/experiments", fiber.Map{
		"name":           "One Too Many",
		"duration_value": 7,
		"duration_unit":  "days",
	}, cookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if response.StatusCode != fiber.StatusForbidden {
		t.Fatalf("over-limit status = %d, want %d", response.StatusCode, fiber.StatusForbidden)
	}

	// After the payment collaborator flips the tier the limit is gone.
	if err := handler.repos.Users.UpdateTier(userID, "paid"); err != nil {
		t.Fatalf("upgrade tier: %v", err)
	}
	createTestExperimentHTTP(t, app, cookie, "Fourth After Upgrade")
}

func TestGetExperimentEnforcesOwnership(t *testing.T) {
	app, _ := newTestApp(t)
	ownerCookie, _ := registerTestUser(t, app, "owner@example.com")
	strangerCookie, _ := registerTestUser(t, app, "stranger@example.com")

	experimentID := createTestExperimentHTTP(t, app, ownerCookie, "Private Habit")

	request := jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/experiments/%d", experimentID), nil, strangerCookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if response.StatusCode != fiber.StatusNotFound {
		t.Fatalf("foreign experiment status = %d, want %d", response.StatusCode, fiber.StatusNotFound)
	}
}

func TestCheckInRecordingAndWindow(t *testing.T) {
	app, _ := newTestApp(t)
	cookie, _ := registerTestUser(t, app, "checkins@example.com")
	experimentID := createTestExperimentHTTP(t, app, cookie, "Stretch")

	request := jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/experiments/%d/checkins", experimentID), fiber.Map{
		"completed": true,
		"note":      "felt good",
	}, cookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("check-in request: %v", err)
	}
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("check-in status = %d, want %d", response.StatusCode, fiber.StatusCreated)
	}

	var first struct {
		ID        uint   `json:"id"`
		Completed bool   `json:"completed"`
		Note      string `json:"note"`
	}
	decodeJSON(t, response, &first)
	if !first.Completed || first.Note != "felt good" {
		t.Fatalf("check-in view = %+v", first)
	}

	// Same day again overwrites rather than duplicating.
	request = jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/experiments/%d/checkins", experimentID), fiber.Map{
		"completed": false,
		"note":      "second thoughts",
	}, cookie)
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("check-in request: %v", err)
	}
	var second struct {
		ID        uint `json:"id"`
		Completed bool `json:"completed"`
	}
	decodeJSON(t, response, &second)
	if second.ID != first.ID {
		t.Fatalf("repeat check-in created id %d, want %d", second.ID, first.ID)
	}
	if second.Completed {
		t.Fatal("repeat check-in did not overwrite the completed flag")
	}

	// A day outside the experiment window is refused.
	request = jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/experiments/%d/checkins", experimentID), fiber.Map{
		"date":      "2020-01-01",
		"completed": true,
	}, cookie)
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("check-in request: %v", err)
	}
	if response.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("out-of-window status = %d, want %d", response.StatusCode, fiber.StatusUnprocessableEntity)
	}
}

func TestEndReflectionWithContinueSpawnsSuccessor(t *testing.T) {
	app, _ := newTestApp(t)
	cookie, _ := registerTestUser(t, app, "reflect@example.com")
	experimentID := createTestExperimentHTTP(t, app, cookie, "Journal")

	request := jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/experiments/%d/reflections", experimentID), fiber.Map{
		"content":     "kept it up, continuing",
		"is_end":      true,
		"next_action": "continue",
	}, cookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("reflection request: %v", err)
	}
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("reflection status = %d, want %d", response.StatusCode, fiber.StatusCreated)
	}

	var view struct {
		Reflection struct {
			IsEnd      bool   `json:"is_end"`
			NextAction string `json:"next_action"`
		} `json:"reflection"`
		Successor *struct {
			ID     uint   `json:"id"`
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"successor"`
	}
	decodeJSON(t, response, &view)
	if !view.Reflection.IsEnd || view.Reflection.NextAction != "continue" {
		t.Fatalf("reflection view = %+v", view.Reflection)
	}
	if view.Successor == nil {
		t.Fatal("continue reflection returned no successor")
	}
	if view.Successor.Name != "Journal" || view.Successor.Status != "active" {
		t.Fatalf("successor view = %+v", *view.Successor)
	}
	if view.Successor.ID == experimentID {
		t.Fatal("successor reused the source experiment id")
	}

	// The source is now completed and stays read-only.
	request = jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/experiments/%d/checkins", experimentID), fiber.Map{
		"completed": true,
	}, cookie)
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("check-in request: %v", err)
	}
	if response.StatusCode != fiber.StatusConflict {
		t.Fatalf("check-in on completed status = %d, want %d", response.StatusCode, fiber.StatusConflict)
	}
}

func TestEndReflectionRequiresNextAction(t *testing.T) {
	app, _ := newTestApp(t)
	cookie, _ := registerTestUser(t, app, "strict@example.com")
	experimentID := createTestExperimentHTTP(t, app, cookie, "Run")

	request := jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/experiments/%d/reflections", experimentID), fiber.Map{
		"content": "done I think",
		"is_end":  true,
	}, cookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("reflection request: %v", err)
	}
	if response.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("missing next_action status = %d, want %d", response.StatusCode, fiber.StatusUnprocessableEntity)
	}

	// The experiment is untouched by the rejected submission.
	request = jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/experiments/%d", experimentID), nil, cookie)
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	var view struct {
		Status string `json:"status"`
	}
	decodeJSON(t, response, &view)
	if view.Status != "active" {
		t.Fatalf("experiment status = %q, want active", view.Status)
	}
}

func TestReminderSettingsUpdate(t *testing.T) {
	app, _ := newTestApp(t)
	cookie, _ := registerTestUser(t, app, "settings@example.com")

	request := jsonRequest(t, http.MethodPost, "/api/settings/reminder", fiber.Map{
		"reminder_hour": 21,
	}, cookie)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("settings request: %v", err)
	}
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("settings status = %d, want %d", response.StatusCode, fiber.StatusOK)
	}

	var view struct {
		ReminderHour int    `json:"reminder_hour"`
		DeviceToken  string `json:"device_token"`
	}
	decodeJSON(t, response, &view)
	if view.ReminderHour != 21 {
		t.Fatalf("reminder hour = %d, want 21", view.ReminderHour)
	}
	if view.DeviceToken == "" {
		t.Fatal("device token missing after update")
	}

	request = jsonRequest(t, http.MethodPost, "/api/settings/reminder", fiber.Map{
		"reminder_hour": 24,
	}, cookie)
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("settings request: %v", err)
	}
	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid hour status = %d, want %d", response.StatusCode, fiber.StatusBadRequest)
	}
}

func TestOpsEndpointsRequireToken(t *testing.T) {
	app, _ := newTestApp(t)
	_, userID := registerTestUser(t, app, "ops@example.com")

	payload := fiber.Map{"user_id": userID, "tier": "paid"}

	request := jsonRequest(t, http.MethodPost, "/api/internal/tier", payload, "")
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("tier request: %v", err)
	}
	if response.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want %d", response.StatusCode, fiber.StatusUnauthorized)
	}

	// A bare token or a glued scheme is not a Bearer credential.
	for _, header := range []string{testOpsToken, "Bearer" + testOpsToken} {
		request = jsonRequest(t, http.MethodPost, "/api/internal/tier", payload, "")
		request.Header.Set("Authorization", header)
		response, err = app.Test(request)
		if err != nil {
			t.Fatalf("tier request: %v", err)
		}
		if response.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("malformed header %q status = %d, want %d", header, response.StatusCode, fiber.StatusUnauthorized)
		}
	}

	request = jsonRequest(t, http.MethodPost, "/api/internal/tier", payload, "")
	request.Header.Set("Authorization", "Bearer "+testOpsToken)
	response, err = app.Test(request)
	if err != nil {
		t.Fatalf("tier request: %v", err)
	}
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("tier update status = %d, want %d", response.StatusCode, fiber.StatusOK)
	}
}

func TestDueRemindersEndpoint(t *testing.T) {
	app, handler := newTestApp(t)
	cookie, userID := registerTestUser(t, app, "due@example.com")
	createTestExperimentHTTP(t, app, cookie, "Hydrate")

	hour := 15
	if err := handler.repos.Users.UpdateReminderSettings(userID, hour, "device-abc"); err != nil {
		t.Fatalf("set reminder hour: %v", err)
	}

	request := jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/internal/reminders/due?hour=%d", hour), nil, "")
	request.Header.Set("Authorization", "Bearer "+testOpsToken)
	response, err := app.Test(request)
	if err != nil {
		t.Fatalf("due request: %v", err)
	}
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("due status = %d, want %d", response.StatusCode, fiber.StatusOK)
	}

	var view struct {
		Hour    int `json:"hour"`
		Batches []struct {
			UserID      uint     `json:"user_id"`
			DeviceToken string   `json:"device_token"`
			Experiments []string `json:"experiments"`
		} `json:"batches"`
	}
	decodeJSON(t, response, &view)
	if view.Hour != hour {
		t.Fatalf("echoed hour = %d, want %d", view.Hour, hour)
	}
	if len(view.Batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(view.Batches))
	}
	if view.Batches[0].UserID != userID || view.Batches[0].DeviceToken != "device-abc" {
		t.Fatalf("batch = %+v", view.Batches[0])
	}
	if len(view.Batches[0].Experiments) != 1 || view.Batches[0].Experiments[0] != "Hydrate" {
		t.Fatalf("batch experiments = %v", view.Batches[0].Experiments)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("health status = %d, want %d", response.StatusCode, fiber.StatusOK)
	}
}
