package central_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mdc004/sophosURLmanager/central"
	"github.com/mdc004/sophosURLmanager/internal/errors"
)

type testConfig struct {
	tokenURL  string
	whoAmIURL string
}

func (c testConfig) GetTokenURL() string  { return c.tokenURL }
func (c testConfig) GetWhoAmIURL() string { return c.whoAmIURL }
func (c testConfig) GetLocalSitesPath() string {
	return "/endpoint/v1/settings/web-control/local-sites"
}
func (c testConfig) GetAPIBaseTemplate() string        { return "https://api-%s.central.sophos.com" }
func (c testConfig) GetAuthTimeout() time.Duration     { return 5 * time.Second }
func (c testConfig) GetResourceTimeout() time.Duration { return 5 * time.Second }

func TestExchangeToken(t *testing.T) {
	var gotGrant, gotScope, gotClientID string
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrant = r.PostForm.Get("grant_type")
		gotScope = r.PostForm.Get("scope")
		gotClientID = r.PostForm.Get("client_id")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"jwt-abc","token_type":"bearer","expires_in":3600}`)
	}))
	defer idp.Close()

	client := central.NewClient(testConfig{tokenURL: idp.URL}, zerolog.Nop())
	token, err := client.ExchangeToken(context.Background(), "client-1", "secret-1")
	require.NoError(t, err)
	require.Equal(t, "jwt-abc", token.AccessToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, time.Minute)

	require.Equal(t, "client_credentials", gotGrant)
	require.Equal(t, "token", gotScope)
	require.Equal(t, "client-1", gotClientID)
}

func TestExchangeTokenRejected(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer idp.Close()

	client := central.NewClient(testConfig{tokenURL: idp.URL}, zerolog.Nop())
	_, err := client.ExchangeToken(context.Background(), "client-1", "bad-secret")
	require.ErrorIs(t, err, errors.ErrAuthentication)
	require.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))
}

func TestExchangeTokenNetworkError(t *testing.T) {
	client := central.NewClient(testConfig{tokenURL: "http://127.0.0.1:1/token"}, zerolog.Nop())
	_, err := client.ExchangeToken(context.Background(), "client-1", "secret-1")
	require.ErrorIs(t, err, errors.ErrNetwork)
}

func whoAmIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer jwt-abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestWhoAmIWithAPIHosts(t *testing.T) {
	srv := whoAmIServer(t, http.StatusOK,
		`{"id":"tenant-42","apiHosts":{"global":"https://api.central.sophos.com","dataRegion":"https://api-eu01.central.sophos.com"}}`)
	defer srv.Close()

	client := central.NewClient(testConfig{whoAmIURL: srv.URL}, zerolog.Nop())
	identity, err := client.WhoAmI(context.Background(), "jwt-abc")
	require.NoError(t, err)
	require.Equal(t, "tenant-42", identity.TenantID)
	require.Equal(t, "eu01", identity.DataRegion)
	require.Equal(t, "https://api-eu01.central.sophos.com", identity.APIBase)
}

func TestWhoAmIAPIHostsWinOverRegionField(t *testing.T) {
	srv := whoAmIServer(t, http.StatusOK,
		`{"id":"tenant-42","dataRegion":"us03","apiHosts":{"dataRegion":"https://api-eu01.central.sophos.com"}}`)
	defer srv.Close()

	client := central.NewClient(testConfig{whoAmIURL: srv.URL}, zerolog.Nop())
	identity, err := client.WhoAmI(context.Background(), "jwt-abc")
	require.NoError(t, err)
	require.Equal(t, "eu01", identity.DataRegion)
	require.Equal(t, "https://api-eu01.central.sophos.com", identity.APIBase)
}

func TestWhoAmIWithRegionFieldOnly(t *testing.T) {
	srv := whoAmIServer(t, http.StatusOK, `{"tenantId":"tenant-7","dataRegion":"us01"}`)
	defer srv.Close()

	client := central.NewClient(testConfig{whoAmIURL: srv.URL}, zerolog.Nop())
	identity, err := client.WhoAmI(context.Background(), "jwt-abc")
	require.NoError(t, err)
	require.Equal(t, "tenant-7", identity.TenantID)
	require.Equal(t, "us01", identity.DataRegion)
	require.Equal(t, "https://api-us01.central.sophos.com", identity.APIBase)
}

func TestWhoAmIReadsLargeResponseInFull(t *testing.T) {
	// Responses well past the error-body cap must still decode completely.
	filler := strings.Repeat("x", 16<<10)
	srv := whoAmIServer(t, http.StatusOK,
		`{"name":"`+filler+`","id":"tenant-9","dataRegion":"eu02"}`)
	defer srv.Close()

	client := central.NewClient(testConfig{whoAmIURL: srv.URL}, zerolog.Nop())
	identity, err := client.WhoAmI(context.Background(), "jwt-abc")
	require.NoError(t, err)
	require.Equal(t, "tenant-9", identity.TenantID)
	require.Equal(t, "eu02", identity.DataRegion)
}

func TestWhoAmIWithoutRegion(t *testing.T) {
	srv := whoAmIServer(t, http.StatusOK, `{"id":"tenant-7"}`)
	defer srv.Close()

	client := central.NewClient(testConfig{whoAmIURL: srv.URL}, zerolog.Nop())
	_, err := client.WhoAmI(context.Background(), "jwt-abc")
	require.ErrorIs(t, err, errors.ErrRegionResolution)
}

func TestWhoAmIUnauthorized(t *testing.T) {
	srv := whoAmIServer(t, http.StatusUnauthorized, `{"error":"Unauthorized"}`)
	defer srv.Close()

	client := central.NewClient(testConfig{whoAmIURL: srv.URL}, zerolog.Nop())
	_, err := client.WhoAmI(context.Background(), "jwt-abc")
	require.ErrorIs(t, err, errors.ErrAuthentication)
	require.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))
}
