package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edgeadmin/edgeadmin/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "EDGEADMIN_") {
			t.Setenv(name, "")
		}
	}
}

func execute(t *testing.T, p *testutils.ScriptedPrompter, args ...string) (string, error) {
	clearEnv(t)
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut, p, "test")
	app.DotEnv = ""
	err := Execute(t.Context(), app, args)
	return out.String(), err
}

func managementServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "admin" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v1/organizations/org1/apis":
			testutils.RespondJSON(w, http.StatusOK, []string{"p1"})
		case "/v1/organizations/org1/apis/p1/revisions":
			testutils.RespondJSON(w, http.StatusOK, []string{"1", "2"})
		case "/v1/organizations/org1/apis/p1/revisions/1/policies", "/v1/organizations/org1/apis/p1/revisions/2/policies":
			testutils.RespondJSON(w, http.StatusOK, []string{"AM-1", "KVM-1"})
		case "/v1/organizations/org1/apis/p1/revisions/1/policies/AM-1", "/v1/organizations/org1/apis/p1/revisions/2/policies/AM-1":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{"name": "AM-1", "policyType": "AssignMessage"})
		case "/v1/organizations/org1/apis/p1/revisions/1/policies/KVM-1", "/v1/organizations/org1/apis/p1/revisions/2/policies/KVM-1":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{"name": "KVM-1", "policyType": "KeyValueMapOperations", "mapIdentifier": "settings", "scope": "environment"})
		case "/v1/organizations/org1/apps":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{"app": []map[string]interface{}{
				{"appId": "a-1", "name": "app1", "developerId": "d-1", "credentials": []map[string]string{{"consumerKey": "key1"}}},
			}})
		case "/v1/organizations/org1/developers/d-1":
			testutils.RespondJSON(w, http.StatusOK, map[string]string{"developerId": "d-1", "email": "dev@example.com", "firstName": "Dee", "lastName": "Veloper", "userName": "dee"})
		case "/v1/organizations/org1/environments", "/v1/organizations/org2/environments":
			testutils.RespondJSON(w, http.StatusOK, []string{"test"})
		case "/v1/organizations/org1/environments/test/virtualhosts", "/v1/organizations/org2/environments/test/virtualhosts":
			testutils.RespondJSON(w, http.StatusOK, []string{"secure"})
		case "/v1/organizations/org1/environments/test/virtualhosts/secure":
			_, _ = w.Write([]byte(`{"name":"secure","hostAliases":["api.example.com"],"port":"443"}`))
		case "/v1/organizations/org2/environments/test/virtualhosts/secure":
			_, _ = w.Write([]byte(`{"name":"secure","hostAliases":["api.example.com","other.example.com"],"port":"443"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFindKvmAccess(t *testing.T) {
	srv := managementServer(t)
	out, err := execute(t, testutils.NewScriptedPrompter("secret"),
		"find-kvm-access", "--mgmtserver", srv.URL, "-o", "org1", "-u", "admin", "-M", "settings")
	require.NoError(t, err)
	assert.Equal(t, "apis/p1/revisions/1/policies/KVM-1\napis/p1/revisions/2/policies/KVM-1\n", out)
}

func TestFindKvmAccess_NoMatch(t *testing.T) {
	srv := managementServer(t)
	out, err := execute(t, testutils.NewScriptedPrompter(),
		"find-kvm-access", "--mgmtserver", srv.URL, "-o", "org1", "-u", "admin", "-p", "secret", "-M", "other")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFindApiKey(t *testing.T) {
	srv := managementServer(t)
	t.Run("found", func(t *testing.T) {
		out, err := execute(t, testutils.NewScriptedPrompter(),
			"find-api-key", "--mgmtserver", srv.URL, "-o", "org1", "-u", "admin", "-p", "secret", "-k", "key1")
		require.NoError(t, err)
		assert.Equal(t, "key: key1\napp: app1 a-1\ndev: d-1 Dee Veloper dee dev@example.com\n", out)
	})
	t.Run("missing", func(t *testing.T) {
		_, err := execute(t, testutils.NewScriptedPrompter(),
			"find-api-key", "--mgmtserver", srv.URL, "-o", "org1", "-u", "admin", "-p", "secret", "-k", "nope")
		assert.ErrorContains(t, err, "no app holds the key nope")
	})
	t.Run("flag required", func(t *testing.T) {
		_, err := execute(t, testutils.NewScriptedPrompter(),
			"find-api-key", "--mgmtserver", srv.URL, "-o", "org1", "-u", "admin", "-p", "secret")
		assert.ErrorContains(t, err, `required flag(s) "key" not set`)
	})
}

func TestVerifyUniqueHostAliases(t *testing.T) {
	srv := managementServer(t)
	out, err := execute(t, testutils.NewScriptedPrompter(),
		"verify-unique-hostaliases", "--mgmtserver", srv.URL, "-u", "admin", "-p", "secret", "org1", "org2")
	assert.ErrorContains(t, err, "found 1 duplicate host aliases")

	var hosts map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &hosts))
	assert.Equal(t, map[string]string{
		"api.example.com:443":   "ERROR o/org1/e/test/virtualhosts/secure o/org2/e/test/virtualhosts/secure",
		"other.example.com:443": "o/org2/e/test/virtualhosts/secure",
	}, hosts)
}

func TestExport_Invalid(t *testing.T) {
	_, err := execute(t, testutils.NewScriptedPrompter(), "export", "-N", "p1", "-P", "p.*")
	assert.ErrorContains(t, err, "bundle: specify only one of a name or a pattern")
}

func TestConfigFile(t *testing.T) {
	srv := managementServer(t)
	file := filepath.Join(t.TempDir(), "edgeadmin.yml")
	testutils.WriteIntoFile(file, "management:\n  url: "+srv.URL+"\n  org: org1\n  user: admin\n  password: secret\n")

	out, err := execute(t, testutils.NewScriptedPrompter(), "find-kvm-access", "-c", file, "-M", "settings", "-S", "environment")
	require.NoError(t, err)
	assert.Contains(t, out, "apis/p1/revisions/2/policies/KVM-1")
}

func TestMetricsFlushFailure(t *testing.T) {
	srv := managementServer(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "edgeadmin.yml")
	textfile := filepath.Join(dir, "missing", "edgeadmin.prom")
	testutils.WriteIntoFile(file, "management:\n  url: "+srv.URL+"\n  org: org1\n  user: admin\n  password: secret\ndiag:\n  metrics:\n    textfile: "+textfile+"\n")
	clearEnv(t)

	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut, testutils.NewScriptedPrompter(), "test")
	app.DotEnv = ""
	require.NoError(t, Execute(t.Context(), app, []string{"find-api-key", "-c", file, "-k", "key1"}))
	assert.Contains(t, out.String(), "dev@example.com")
	assert.Contains(t, errOut.String(), "[warning] metrics: failed to write textfile")
}

func TestDotEnv(t *testing.T) {
	srv := managementServer(t)
	clearEnv(t)
	for _, name := range []string{"EDGEADMIN_MANAGEMENT_URL", "EDGEADMIN_MANAGEMENT_ORG", "EDGEADMIN_MANAGEMENT_USER", "EDGEADMIN_MANAGEMENT_PASSWORD"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	dotEnv := filepath.Join(t.TempDir(), ".env")
	testutils.WriteIntoFile(dotEnv, "EDGEADMIN_MANAGEMENT_URL="+srv.URL+"\nEDGEADMIN_MANAGEMENT_ORG=org1\nEDGEADMIN_MANAGEMENT_USER=admin\nEDGEADMIN_MANAGEMENT_PASSWORD=secret\n")

	var out bytes.Buffer
	app := NewApp(&out, &bytes.Buffer{}, testutils.NewScriptedPrompter(), "test")
	app.DotEnv = dotEnv
	require.NoError(t, Execute(t.Context(), app, []string{"find-api-key", "-k", "key1"}))
	assert.Contains(t, out.String(), "dev@example.com")
}

func baasServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/org1/app1/pets" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("cursor") == "" {
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"entities": []map[string]interface{}{{"uuid": "e1", "name": "a"}, {"uuid": "e2", "name": "b"}},
				"cursor":   "next",
			})
			return
		}
		testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"entities": []map[string]interface{}{{"uuid": "e3", "name": "c"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBaaSExport_File(t *testing.T) {
	srv := baasServer(t)
	file := filepath.Join(t.TempDir(), "pets.json")
	p := testutils.NewScriptedPrompter("y")

	out, err := execute(t, p, "baas-export", "-e", srv.URL, "-o", "org1", "-a", "app1", "-A", "-C", "pets", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "using org:org1 app:app1\n")
	assert.Contains(t, out, "page 1\n")
	assert.Equal(t, []string{"Continue?"}, p.Asked())

	var entities []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(testutils.ReadFile(file)), &entities))
	require.Len(t, entities, 3)
	assert.Equal(t, "c", entities[2]["name"])
}

func TestBaaSExport_ConnectionFile(t *testing.T) {
	srv := baasServer(t)
	dir := t.TempDir()
	conn := filepath.Join(dir, "baas.json")
	testutils.WriteIntoFile(conn, `{"org":"org1","app":"app1","URI":"`+srv.URL+`"}`)

	_, err := execute(t, testutils.NewScriptedPrompter("y"), "baas-export", "-j", conn, "-A", "-C", "pets", "-f", filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out.json"))
}

func TestBaaSExport_EndpointOverridesConnectionFile(t *testing.T) {
	srv := baasServer(t)
	dir := t.TempDir()
	conn := filepath.Join(dir, "baas.json")
	testutils.WriteIntoFile(conn, `{"org":"org1","app":"app1","URI":"http://127.0.0.1:1/"}`)

	_, err := execute(t, testutils.NewScriptedPrompter("y"), "baas-export", "-j", conn, "-e", srv.URL, "-A", "-C", "pets", "-f", filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.Contains(t, testutils.ReadFile(filepath.Join(dir, "out.json")), `"uuid":"e3"`)
}

func TestBaaSDelete_Abort(t *testing.T) {
	srv := baasServer(t)
	out, err := execute(t, testutils.NewScriptedPrompter("n"), "baas-delete", "-e", srv.URL, "-o", "org1", "-a", "app1", "-A", "-C", "pets")
	require.NoError(t, err)
	assert.Contains(t, out, "abort.")
}

func TestBaaS_NoCredentials(t *testing.T) {
	_, err := execute(t, testutils.NewScriptedPrompter(), "baas-delete", "-o", "org1", "-a", "app1", "-C", "pets")
	assert.ErrorContains(t, err, "baas: credentials are required")
}

func TestPortal_MissingServer(t *testing.T) {
	_, err := execute(t, testutils.NewScriptedPrompter(), "activate-portal-users", "-u", "admin")
	assert.ErrorContains(t, err, "portal: server url is required")
}
