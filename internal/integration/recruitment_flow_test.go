package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"raid-recruit/internal/app"
	"raid-recruit/internal/config"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type authData struct {
	User struct {
		ID uuid.UUID `json:"id"`
	} `json:"user"`
	AccessToken string `json:"access_token"`
}

type listingData struct {
	ID    uuid.UUID `json:"id"`
	State string    `json:"state"`
}

type recommendationItem struct {
	Listing    listingData `json:"listing"`
	MatchScore int         `json:"match_score"`
	Reasons    []string    `json:"reasons"`
}

func TestIntegration_ListingLifecycle_Applications_Recommendations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c := newTestContainer(t, ctx)
	defer func() { _ = c.Close() }()

	if err := c.Migrate(ctx); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	fapp := app.New(c).Fiber
	suffix := uuid.NewString()[:8]

	owner := register(t, fapp, "owner_"+suffix, "Aether")
	applicant := register(t, fapp, "appl_"+suffix, "Aether")
	late := register(t, fapp, "late_"+suffix, "Aether")
	defer cleanupUsers(t, ctx, c, owner.User.ID, applicant.User.ID, late.User.ID)

	var created listingData
	sr := call(t, fapp, http.MethodPost, "/api/v1/listings", owner.AccessToken, map[string]any{
		"title":        "IT savage static " + suffix,
		"description":  "Integration test listing",
		"content_type": "savage",
		"data_center":  "Aether",
		"roles_needed": map[string]int{"healer": 1, "tank": 1},
		"schedule":     []string{"Tue 20:00"},
	})
	expectStatus(t, "create listing", sr, http.StatusCreated)
	decode(t, sr.Data, &created)
	if created.State != "private" {
		t.Fatalf("create listing: expected private by default, got %q", created.State)
	}
	listingPath := "/api/v1/listings/" + created.ID.String()

	sr = call(t, fapp, http.MethodGet, listingPath, applicant.AccessToken, nil)
	expectStatus(t, "private listing as stranger", sr, http.StatusNotFound)

	sr = call(t, fapp, http.MethodPost, "/api/v1/applications", applicant.AccessToken, map[string]any{"listing_id": created.ID})
	expectStatus(t, "apply to private listing", sr, http.StatusNotFound)

	sr = call(t, fapp, http.MethodPatch, listingPath+"/state", applicant.AccessToken, map[string]any{"state": "recruiting"})
	expectStatus(t, "state change by stranger", sr, http.StatusNotFound)

	sr = call(t, fapp, http.MethodPatch, listingPath+"/state", owner.AccessToken, map[string]any{"state": "Recruiting"})
	expectStatus(t, "open listing", sr, http.StatusOK)

	sr = call(t, fapp, http.MethodGet, listingPath, "", nil)
	expectStatus(t, "recruiting listing anonymously", sr, http.StatusOK)

	sr = call(t, fapp, http.MethodPut, listingPath, applicant.AccessToken, map[string]any{"title": "hijacked"})
	expectStatus(t, "update by stranger", sr, http.StatusForbidden)

	sr = call(t, fapp, http.MethodGet, "/api/v1/search/recommended?limit=50", applicant.AccessToken, nil)
	expectStatus(t, "recommendations", sr, http.StatusOK)
	var recs []recommendationItem
	decode(t, sr.Data, &recs)
	found := false
	for i, r := range recs {
		if r.MatchScore < 0 || r.MatchScore > 100 {
			t.Fatalf("recommendations: score out of range at idx=%d: %d", i, r.MatchScore)
		}
		if len(r.Reasons) > 5 {
			t.Fatalf("recommendations: too many reasons at idx=%d", i)
		}
		if i > 0 && r.MatchScore > recs[i-1].MatchScore {
			t.Fatalf("recommendations: not sorted at idx=%d", i)
		}
		if r.Listing.ID == created.ID {
			found = true
		}
	}
	if !found && len(recs) < 50 {
		t.Fatalf("recommendations: expected the recruiting listing to be recommended")
	}

	sr = call(t, fapp, http.MethodPost, "/api/v1/applications", owner.AccessToken, map[string]any{"listing_id": created.ID})
	expectStatus(t, "owner applies to own listing", sr, http.StatusConflict)

	sr = call(t, fapp, http.MethodPost, "/api/v1/applications", applicant.AccessToken, map[string]any{
		"listing_id":      created.ID,
		"message":         "WHM, cleared P8S",
		"preferred_roles": []string{"healer"},
	})
	expectStatus(t, "apply", sr, http.StatusCreated)

	sr = call(t, fapp, http.MethodPost, "/api/v1/applications", applicant.AccessToken, map[string]any{"listing_id": created.ID})
	expectStatus(t, "duplicate apply", sr, http.StatusConflict)

	sr = call(t, fapp, http.MethodPatch, listingPath+"/state", owner.AccessToken, map[string]any{"state": "filled"})
	expectStatus(t, "fill listing", sr, http.StatusOK)

	sr = call(t, fapp, http.MethodPost, "/api/v1/applications", late.AccessToken, map[string]any{"listing_id": created.ID})
	expectStatus(t, "apply to filled listing", sr, http.StatusConflict)

	sr = call(t, fapp, http.MethodPut, listingPath, owner.AccessToken, map[string]any{"title": "edited"})
	expectStatus(t, "edit filled listing", sr, http.StatusBadRequest)

	sr = call(t, fapp, http.MethodPatch, listingPath+"/state", owner.AccessToken, map[string]any{"state": "archived"})
	expectStatus(t, "unknown state", sr, http.StatusBadRequest)

	sr = call(t, fapp, http.MethodDelete, listingPath, owner.AccessToken, nil)
	expectStatus(t, "delete listing", sr, http.StatusOK)

	sr = call(t, fapp, http.MethodGet, listingPath, owner.AccessToken, nil)
	expectStatus(t, "deleted listing", sr, http.StatusNotFound)
}

func newTestContainer(t *testing.T, ctx context.Context) *app.Container {
	t.Helper()

	host := stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set RAIDRECRUIT_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	cfg := config.Config{
		App: config.AppConfig{AppName: "RaidRecruit", Environment: "test", HTTPPort: "0"},
		Database: config.DatabaseConfig{
			DBHost:     host,
			DBPort:     port,
			DBName:     name,
			DBUser:     user,
			DBPassword: pass,
			DBSSLMode:  ssl,
		},
		Redis: config.RedisConfig{
			Host: stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_REDIS_HOST"), "127.0.0.1"),
			Port: stringsOrDefault(os.Getenv("RAIDRECRUIT_TEST_REDIS_PORT"), "6379"),
		},
		JWT: config.JWTConfig{
			AccessSecret:     "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessExpiresIn:  15 * time.Minute,
			RefreshExpiresIn: 24 * time.Hour,
		},
	}

	c, err := app.NewContainer(ctx, cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	return c
}

func cleanupUsers(t *testing.T, ctx context.Context, c *app.Container, ids ...uuid.UUID) {
	t.Helper()

	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		_, _ = c.DB.Exec(ctx, `DELETE FROM listings WHERE owner_id = $1`, id)
		_, _ = c.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	}
	_ = c.Cache.InvalidateListings(ctx)
}

func register(t *testing.T, fapp *fiber.App, username, dc string) authData {
	t.Helper()

	sr := call(t, fapp, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":    username,
		"email":       fmt.Sprintf("%s@example.com", username),
		"password":    "password123",
		"data_center": dc,
	})
	expectStatus(t, "register "+username, sr, http.StatusCreated)

	var out authData
	decode(t, sr.Data, &out)
	if out.AccessToken == "" || out.User.ID == uuid.Nil {
		t.Fatalf("register %s: missing token or id", username)
	}
	return out
}

func call(t *testing.T, fapp *fiber.App, method, path, token string, body any) semanticResponse {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := fapp.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("%s %s: request error: %v", method, path, err)
	}
	defer resp.Body.Close()

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("%s %s: decode error: %v", method, path, err)
	}
	return sr
}

func expectStatus(t *testing.T, step string, sr semanticResponse, want int) {
	t.Helper()
	if sr.Status != want {
		t.Fatalf("%s: expected status=%d, got %d (message=%s)", step, want, sr.Status, sr.Message)
	}
}

func decode(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("data unmarshal error: %v", err)
	}
}

func stringsOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
