package edge

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/internal/httpclient"
	"github.com/edgeadmin/edgeadmin/internal/testutils"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(&config.ManagementConfig{Url: srv.URL, Org: "org1", User: "admin", Password: "secret", Timeout: 5},
		httpclient.Options{Log: log.NewNullLogger()})
	require.NoError(t, err)
	return client
}

func TestNewClient_BasicAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/v1/organizations/org1/apis", r.URL.Path)
		testutils.RespondJSON(w, http.StatusOK, []string{"a", "b"})
	})

	proxies, err := client.ListProxies(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, proxies)
}

func TestNewClient_Token(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))
		testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"proxies": []map[string]string{{"name": "x1"}, {"name": "x2"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(&config.ManagementConfig{Url: srv.URL, Org: "org1", Token: "ya29.token", ApigeeX: true}, httpclient.Options{})
	require.NoError(t, err)
	assert.True(t, client.IsApigeeX())

	proxies, err := client.ListProxies(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2"}, proxies)
}

func TestNewClient_Sso(t *testing.T) {
	var tokenRequests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			tokenRequests++
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "edgecli", user)
			assert.Equal(t, "edgeclisecret", pass)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.PostForm.Get("grant_type"))
			assert.Equal(t, "admin", r.PostForm.Get("username"))
			assert.Equal(t, "secret", r.PostForm.Get("password"))
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"access_token": "sso-token",
				"token_type":   "bearer",
				"expires_in":   1799,
			})
			return
		}
		assert.Equal(t, "Bearer sso-token", r.Header.Get("Authorization"))
		testutils.RespondJSON(w, http.StatusOK, []string{"test", "prod"})
	}))
	defer srv.Close()

	client, err := NewClient(&config.ManagementConfig{Url: srv.URL, Org: "org1", User: "admin", Password: "secret", Sso: true, SsoUrl: srv.URL},
		httpclient.Options{})
	require.NoError(t, err)

	envs, err := client.ListEnvironments(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "prod"}, envs)
	_, err = client.ListEnvironments(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, tokenRequests)
}

func TestNewClient_SsoFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(&config.ManagementConfig{Url: srv.URL, Org: "org1", User: "admin", Password: "wrong", Sso: true, SsoUrl: srv.URL},
		httpclient.Options{})
	require.NoError(t, err)

	_, err = client.ListEnvironments(t.Context())
	assert.ErrorContains(t, err, "edge: SSO login failed")
}

func TestNewClient_NoCredentials(t *testing.T) {
	_, err := NewClient(&config.ManagementConfig{Org: "org1"}, httpclient.Options{})
	assert.ErrorContains(t, err, "edge: no credentials")

	_, err = NewClient(&config.ManagementConfig{Org: "org1", Sso: true, User: "admin"}, httpclient.Options{})
	assert.ErrorContains(t, err, "edge: SSO requires a user and a password")
}

func TestStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"messaging.config.beans.ApplicationDoesNotExist"}`))
	})

	_, err := client.GetProxy(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.MethodGet, statusErr.Method)
	assert.Contains(t, statusErr.Error(), "unexpected status code 404")
	assert.Contains(t, statusErr.Error(), "ApplicationDoesNotExist")
}

func TestWithOrg(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		testutils.RespondJSON(w, http.StatusOK, []string{})
	})

	other := client.WithOrg("org2")
	assert.Equal(t, "org2", other.Org())
	assert.Equal(t, "org1", client.Org())

	_, err := other.ListEnvironments(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"/v1/organizations/org2/environments"}, paths)
}

func TestLatestRevision(t *testing.T) {
	tests := []struct {
		name      string
		revisions []string
		expected  string
	}{
		{"empty", nil, ""},
		{"single", []string{"1"}, "1"},
		{"numeric order", []string{"1", "10", "9", "2"}, "10"},
		{"non numeric", []string{"1", "draft", "3"}, "3"},
		{"only non numeric", []string{"draft"}, "draft"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, LatestRevision(test.revisions))
		})
	}
}

func TestEncodeQuery(t *testing.T) {
	assert.Equal(t, "select=sum%28message_count%29&timeRange=03%2F02%2F2016%2000%3A00~03%2F12%2F2016%2000%3A00",
		encodeQuery("select", "sum(message_count)", "timeRange", "03/02/2016 00:00~03/12/2016 00:00"))
}
