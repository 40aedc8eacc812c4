package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/daeun-oh/kihan/internal/catalog"
	"github.com/daeun-oh/kihan/internal/dashboard"
	"github.com/daeun-oh/kihan/internal/db"
	"github.com/daeun-oh/kihan/internal/store"
	"github.com/daeun-oh/kihan/internal/upstream"
)

const testJWTSecret = "test-secret"

// fakeInventoryAPI is an httptest stand-in for the remote inventory API.
type fakeInventoryAPI struct {
	server    *httptest.Server
	bulkCalls atomic.Int64
	lastBulk  atomic.Value // map[string]any
}

func newFakeInventoryAPI(t *testing.T) *fakeInventoryAPI {
	t.Helper()
	f := &fakeInventoryAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"categories": []map[string]any{
				{"category": "냉동", "items": []string{"치킨 패티"}},
				{"category": "워크인", "items": []string{"생닭"}},
			},
		})
	})
	mux.HandleFunc("GET /api/dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"rows": []map[string]any{
				{"store_code": "1410760", "store_name": "서울역점", "region_name": "서울", "is_entered": 1, "total_cnt": 2},
				{"store_code": "1410761", "store_name": "강남점", "region_name": "서울", "is_entered": 0, "total_cnt": 0},
			},
		})
	})
	mux.HandleFunc("GET /api/dashboard/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"rows": []map[string]any{
				{"store_code": "1410760", "store_name": "서울역점", "region_name": "서울",
					"category": "냉동", "item_name": "치킨 패티", "expiry_date": "2026-02-01"},
			},
		})
	})
	mux.HandleFunc("POST /api/expiry-entries/bulk", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		f.lastBulk.Store(payload)
		f.bulkCalls.Add(1)
		entries, _ := payload["entries"].([]any)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "count": len(entries)})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func setupTestServer(t *testing.T) (*httptest.Server, *fakeInventoryAPI, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	fake := newFakeInventoryAPI(t)

	client := upstream.New(fake.server.URL)
	viewers := dashboard.NewViewers(dashboard.NewFetcher(client))
	cat := &catalog.Service{DB: database, Upstream: client}

	router := NewRouter(database, testJWTSecret, client, viewers, cat)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, fake, database
}

func storeLogin(t *testing.T, server *httptest.Server, code, name string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"store_code": code, "store_name": name})
	resp, err := http.Post(server.URL+"/api/auth/store-login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("store login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("store login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]any
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatal("empty token from store login")
	}
	return token
}

func managerLogin(t *testing.T, server *httptest.Server, database *sql.DB) string {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("passphrase"), bcrypt.DefaultCost)
	if err := store.SetManagerHash(context.Background(), database, string(hash)); err != nil {
		t.Fatalf("setting manager hash: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"passphrase": "passphrase"})
	resp, err := http.Post(server.URL+"/api/auth/manager-login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("manager login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("manager login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]any
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatal("empty token from manager login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestStoreLoginValidation(t *testing.T) {
	server, _, _ := setupTestServer(t)

	cases := []struct {
		name string
		code string
		want int
	}{
		{"valid code", "1410760", http.StatusOK},
		{"wrong prefix", "9410760", http.StatusBadRequest},
		{"too short", "141076", http.StatusBadRequest},
		{"too long", "14107601", http.StatusBadRequest},
		{"letters", "1410abc", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"store_code": tc.code, "store_name": "서울역점"})
			resp, err := http.Post(server.URL+"/api/auth/store-login", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("login request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("code %q: expected %d, got %d", tc.code, tc.want, resp.StatusCode)
			}
		})
	}
}

func TestStoreLoginRequiresName(t *testing.T) {
	server, _, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"store_code": "1410760", "store_name": "  "})
	resp, _ := http.Post(server.URL+"/api/auth/store-login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty name, got %d", resp.StatusCode)
	}
}

func TestManagerLogin(t *testing.T) {
	server, _, database := setupTestServer(t)

	// Before a passphrase is configured, manager login is refused.
	body, _ := json.Marshal(map[string]string{"passphrase": "anything"})
	resp, _ := http.Post(server.URL+"/api/auth/manager-login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 before setup, got %d", resp.StatusCode)
	}

	managerLogin(t, server, database)

	// Wrong passphrase.
	body, _ = json.Marshal(map[string]string{"passphrase": "wrong"})
	resp, _ = http.Post(server.URL+"/api/auth/manager-login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad passphrase, got %d", resp.StatusCode)
	}
}

func TestDraftsFlow(t *testing.T) {
	server, _, _ := setupTestServer(t)
	token := storeLogin(t, server, "1410760", "서울역점")

	// Pick a date for one item.
	req, _ := authRequest("PUT", server.URL+"/api/drafts", token, map[string]string{
		"entry_key":   "워크인__생닭",
		"expiry_date": "2026-02-01",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put draft: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// List drafts.
	req, _ = authRequest("GET", server.URL+"/api/drafts", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var listResp struct {
		Drafts map[string]string `json:"drafts"`
	}
	json.NewDecoder(resp.Body).Decode(&listResp)
	resp.Body.Close()
	if listResp.Drafts["워크인__생닭"] != "2026-02-01" {
		t.Errorf("expected draft date 2026-02-01, got %q", listResp.Drafts["워크인__생닭"])
	}

	// Delete the draft.
	req, _ = authRequest("DELETE", server.URL+"/api/drafts/워크인__생닭", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete draft: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/drafts", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	listResp.Drafts = nil
	json.NewDecoder(resp.Body).Decode(&listResp)
	resp.Body.Close()
	if len(listResp.Drafts) != 0 {
		t.Errorf("expected no drafts after delete, got %d", len(listResp.Drafts))
	}
}

func TestSaveFlushesDrafts(t *testing.T) {
	server, fake, _ := setupTestServer(t)
	token := storeLogin(t, server, "1410760", "서울역점")

	// Saving with no drafts is rejected.
	req, _ := authRequest("POST", server.URL+"/api/save", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 with no drafts, got %d", resp.StatusCode)
	}

	for key, date := range map[string]string{
		"냉동__치킨 패티": "2026-02-01",
		"워크인__생닭":   "2026-01-28",
	} {
		req, _ := authRequest("PUT", server.URL+"/api/drafts", token, map[string]string{
			"entry_key": key, "expiry_date": date,
		})
		resp, _ := http.DefaultClient.Do(req)
		resp.Body.Close()
	}

	req, _ = authRequest("POST", server.URL+"/api/save", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var saveResp struct {
		OK    bool `json:"ok"`
		Count int  `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&saveResp)
	resp.Body.Close()
	if !saveResp.OK || saveResp.Count != 2 {
		t.Fatalf("expected ok save of 2 entries, got ok=%v count=%d", saveResp.OK, saveResp.Count)
	}
	if fake.bulkCalls.Load() != 1 {
		t.Errorf("expected 1 bulk call, got %d", fake.bulkCalls.Load())
	}

	payload, _ := fake.lastBulk.Load().(map[string]any)
	if payload["store_code"] != "1410760" {
		t.Errorf("bulk save carried store %v", payload["store_code"])
	}

	// Drafts are gone after a successful save.
	req, _ = authRequest("GET", server.URL+"/api/drafts", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var listResp struct {
		Drafts map[string]string `json:"drafts"`
	}
	json.NewDecoder(resp.Body).Decode(&listResp)
	resp.Body.Close()
	if len(listResp.Drafts) != 0 {
		t.Errorf("expected drafts cleared after save, got %d", len(listResp.Drafts))
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)
	token := storeLogin(t, server, "1410760", "서울역점")

	req, _ := authRequest("GET", server.URL+"/api/categories", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var catResp struct {
		Categories []struct {
			Category string   `json:"category"`
			Items    []string `json:"items"`
		} `json:"categories"`
	}
	json.NewDecoder(resp.Body).Decode(&catResp)
	resp.Body.Close()

	if len(catResp.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(catResp.Categories))
	}
	// Display order puts 워크인 first regardless of upstream order.
	if catResp.Categories[0].Category != "워크인" {
		t.Errorf("expected 워크인 first, got %q", catResp.Categories[0].Category)
	}
}

func TestDashboardData(t *testing.T) {
	server, _, database := setupTestServer(t)
	token := managerLogin(t, server, database)

	req, _ := authRequest("GET",
		server.URL+"/api/dashboard/data?start_date=2026-01-01&end_date=2026-01-02", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var dataResp struct {
		Result struct {
			Summary []struct {
				StoreCode string `json:"store_code"`
			} `json:"summary"`
			KPI struct {
				TotalStores   int `json:"total_stores"`
				EnteredStores int `json:"entered_stores"`
			} `json:"kpi"`
			Days []string `json:"days"`
		} `json:"result"`
		Options struct {
			Regions []string `json:"regions"`
		} `json:"options"`
	}
	json.NewDecoder(resp.Body).Decode(&dataResp)
	resp.Body.Close()

	if len(dataResp.Result.Days) != 2 {
		t.Errorf("expected 2 days, got %v", dataResp.Result.Days)
	}
	if len(dataResp.Result.Summary) != 2 {
		t.Errorf("expected 2 summary rows, got %d", len(dataResp.Result.Summary))
	}
	if dataResp.Result.KPI.TotalStores != 2 || dataResp.Result.KPI.EnteredStores != 1 {
		t.Errorf("unexpected KPI: %+v", dataResp.Result.KPI)
	}
	if len(dataResp.Options.Regions) != 1 || dataResp.Options.Regions[0] != "서울" {
		t.Errorf("expected region option 서울, got %v", dataResp.Options.Regions)
	}
}

func TestDashboardExport(t *testing.T) {
	server, _, database := setupTestServer(t)
	token := managerLogin(t, server, database)

	req, _ := authRequest("GET", server.URL+"/api/dashboard/export?start_date=2026-01-01&end_date=2026-01-01", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="dashboard.xlsx"` {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestRoleSeparation(t *testing.T) {
	server, _, database := setupTestServer(t)
	storeToken := storeLogin(t, server, "1410760", "서울역점")
	managerToken := managerLogin(t, server, database)

	// A store session cannot read the dashboard.
	req, _ := authRequest("GET", server.URL+"/api/dashboard/data", storeToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for store on dashboard, got %d", resp.StatusCode)
	}

	// A manager session cannot write drafts.
	req, _ = authRequest("PUT", server.URL+"/api/drafts", managerToken, map[string]string{
		"entry_key": "냉동__치킨 패티", "expiry_date": "2026-02-01",
	})
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for manager on drafts, got %d", resp.StatusCode)
	}

	// No token at all.
	resp, _ = http.Get(server.URL + "/api/drafts")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}
