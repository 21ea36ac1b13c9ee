package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mdc004/sophosURLmanager/central"
	"github.com/mdc004/sophosURLmanager/central/centralfake"
	"github.com/mdc004/sophosURLmanager/internal/config"
	"github.com/mdc004/sophosURLmanager/internal/errors"
	"github.com/mdc004/sophosURLmanager/server"
	"github.com/mdc004/sophosURLmanager/session"
	"github.com/mdc004/sophosURLmanager/sites"
)

const sitesPath = "/endpoint/v1/settings/web-control/local-sites"

// testConfig reuses the real env/cors config but points the resource calls at
// a local fixture.
type testConfig struct {
	config.EnvVars
	config.Cors
}

func (testConfig) GetEnv() string                    { return "test" }
func (testConfig) GetTokenURL() string               { return "" }
func (testConfig) GetWhoAmIURL() string              { return "" }
func (testConfig) GetLocalSitesPath() string         { return sitesPath }
func (testConfig) GetAPIBaseTemplate() string        { return "https://api-%s.central.sophos.com" }
func (testConfig) GetAuthTimeout() time.Duration     { return 5 * time.Second }
func (testConfig) GetResourceTimeout() time.Duration { return 5 * time.Second }

type testFixture struct {
	auth     *centralfake.FakeAuthClient
	upstream *httptest.Server
	server   *server.Server
}

// setupTestFixture wires the real manager and proxy over a fake auth client
// and an in-memory remote collection.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	var lock sync.Mutex
	store := map[string]sites.LocalSite{}
	nextID := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			items := make([]sites.LocalSite, 0, len(store))
			for _, site := range store {
				items = append(items, site)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": items,
				"pages": map[string]int{"total": 1},
			})
		case http.MethodPost:
			var site sites.LocalSite
			_ = json.NewDecoder(r.Body).Decode(&site)
			nextID++
			site.ID = "generated-" + strconv.Itoa(nextID)
			store[site.ID] = site
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(site)
		case http.MethodDelete:
			id := strings.TrimPrefix(r.URL.Path, sitesPath+"/")
			if _, ok := store[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":"resourceNotFound"}`)
				return
			}
			delete(store, id)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(upstream.Close)

	auth := centralfake.NewFakeAuthClient()
	auth.Identity = central.Identity{TenantID: "tenant-1", DataRegion: "eu01", APIBase: upstream.URL}

	manager, err := session.NewManager(auth, zerolog.Nop())
	require.NoError(t, err)
	proxy, err := sites.NewProxy(manager, testConfig{}, zerolog.Nop())
	require.NoError(t, err)
	srv, err := server.New(testConfig{}, manager, proxy, nil, zerolog.Nop())
	require.NoError(t, err)

	return &testFixture{auth: auth, upstream: upstream, server: srv}
}

func (f *testFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/login", `{"client_id":"client-1","client_secret":"secret-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginHandler(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodPost, "/api/login", `{"client_id":"client-1","client_secret":"secret-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["ok"])
	require.Equal(t, "tenant-1", body["tenantId"])
	require.Equal(t, "eu01", body["dataRegion"])
	require.Equal(t, f.upstream.URL, body["apiBase"])
}

func TestLoginHandlerMissingFields(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodPost, "/api/login", `{"client_id":"client-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation", decodeBody(t, rec)["errorKind"])
}

func TestLoginHandlerRejectedCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.auth.ExchangeTokenFn = func(ctx context.Context, clientID, clientSecret string) (central.Token, error) {
		return central.Token{}, errors.Upstream(errors.ErrAuthentication, http.StatusUnauthorized, "invalid_client")
	}

	rec := f.do(t, http.MethodPost, "/api/login", `{"client_id":"client-1","client_secret":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "authentication", body["errorKind"])
	require.Equal(t, float64(http.StatusUnauthorized), body["status"])
	require.Equal(t, "invalid_client", body["error"])
}

func TestListBeforeLogin(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/api/local-sites", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "not_authenticated", decodeBody(t, rec)["errorKind"])
}

func TestCreateListDeleteFlow(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	rec := f.do(t, http.MethodPost, "/api/local-sites", `{"url":"https://example.com","tags":["allow"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)["item"].(map[string]any)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	rec = f.do(t, http.MethodGet, "/api/local-sites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["items"], 1)
	require.Equal(t, float64(1), body["pages"].(map[string]any)["total"])

	rec = f.do(t, http.MethodDelete, "/api/local-sites/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["ok"])

	rec = f.do(t, http.MethodDelete, "/api/local-sites/"+id, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, "not_found", body["errorKind"])
	require.Equal(t, float64(http.StatusNotFound), body["status"])
}

func TestCreateWithoutURL(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	rec := f.do(t, http.MethodPost, "/api/local-sites", `{"comment":"no url"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation", decodeBody(t, rec)["errorKind"])
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/local-sites", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Tenant-ID")
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestIndexServesUI(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "Local Sites")
}
