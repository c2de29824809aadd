package edge

import (
	"net/http"
	"testing"

	"github.com/edgeadmin/edgeadmin/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/organizations/org1/apis/p1":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{"name": "p1", "revision": []string{"1", "2"}})
		case "/v1/organizations/org1/apis/p1/revisions":
			testutils.RespondJSON(w, http.StatusOK, []string{"1", "2"})
		case "/v1/organizations/org1/apis/p1/revisions/2":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"name": "p1", "revision": "2", "basepaths": []string{"/p1"},
				"policies": []string{"AM-1", "JC-1"}, "proxies": []string{"default"},
				"resources": []string{"java://callout.jar"},
			})
		case "/v1/organizations/org1/apis/p1/revisions/2/proxies/default":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"name":       "default",
				"connection": map[string]interface{}{"basePath": "/p1", "virtualHost": []string{"secure"}},
				"flows": []map[string]string{
					{"name": "getItems", "condition": `(proxy.pathsuffix MatchesPath "/items") and (request.verb = "GET")`},
				},
			})
		case "/v1/organizations/org1/apis/p1/revisions/2/policies":
			testutils.RespondJSON(w, http.StatusOK, []string{"AM-1", "JC-1"})
		case "/v1/organizations/org1/apis/p1/revisions/2/policies/JC-1":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{"name": "JC-1", "policyType": "JavaCallout", "enabled": true})
		case "/v1/organizations/org1/apis/p1/revisions/2/resources":
			testutils.RespondJSON(w, http.StatusOK, []string{"java://callout.jar", "jsc://x.js"})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	proxy, err := client.GetProxy(t.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, proxy.Revision)

	revisions, err := client.ListProxyRevisions(t.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "2", LatestRevision(revisions))

	rev, err := client.GetProxyRevision(t.Context(), "p1", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, rev.ProxyEndpoints)
	assert.Equal(t, []string{"java://callout.jar"}, rev.Resources)

	ep, err := client.GetProxyEndpoint(t.Context(), "p1", "2", "default")
	require.NoError(t, err)
	assert.Equal(t, "/p1", ep.Connection.BasePath)
	require.Len(t, ep.Flows, 1)
	assert.Equal(t, "getItems", ep.Flows[0].Name)

	policies, err := client.ListPolicies(t.Context(), "p1", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"AM-1", "JC-1"}, policies)

	policy, err := client.GetPolicy(t.Context(), "p1", "2", "JC-1")
	require.NoError(t, err)
	assert.Equal(t, "JavaCallout", policy.PolicyType)

	resources, err := client.ListResources(t.Context(), "p1", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"java://callout.jar", "jsc://x.js"}, resources)
}

func TestSharedFlows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/organizations/org1/sharedflows":
			testutils.RespondJSON(w, http.StatusOK, map[string]interface{}{"sharedFlows": []map[string]string{{"name": "sf-auth"}}})
		case "/v1/organizations/org1/sharedflows/sf-auth/revisions":
			testutils.RespondJSON(w, http.StatusOK, []string{"3"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	flows, err := client.ListSharedFlows(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"sf-auth"}, flows)

	revisions, err := client.ListSharedFlowRevisions(t.Context(), "sf-auth")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, revisions)
}

func TestExportBundle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/organizations/org1/sharedflows/sf-auth/revisions/3", r.URL.Path)
		assert.Equal(t, "bundle", r.URL.Query().Get("format"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("PK\x03\x04zip"))
	})

	data, err := client.ExportBundle(t.Context(), SharedFlow, "sf-auth", "3")
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04zip"), data)
}

func TestAssetKind(t *testing.T) {
	assert.Equal(t, "apiproxy", ApiProxy.String())
	assert.Equal(t, "sharedflow", SharedFlow.String())
	assert.Equal(t, "apis", ApiProxy.collection())
	assert.Equal(t, "sharedflows", SharedFlow.collection())
}

func TestDecodeNames_Invalid(t *testing.T) {
	_, err := decodeNames([]byte("not json"), "apis", "proxies")
	assert.ErrorContains(t, err, "edge: invalid JSON response for apis")

	names, err := decodeNames([]byte(`{}`), "apis", "proxies")
	require.NoError(t, err)
	assert.Empty(t, names)
}
