package finder

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrg struct {
	name   string
	vhosts map[string]map[string]edge.VirtualHost
	envs   []string
}

func (f *fakeOrg) Org() string {
	return f.name
}

func (f *fakeOrg) ListEnvironments(context.Context) ([]string, error) {
	return f.envs, nil
}

func (f *fakeOrg) ListVirtualHosts(_ context.Context, env string) ([]string, error) {
	var names []string
	for n := range f.vhosts[env] {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeOrg) GetVirtualHost(_ context.Context, env string, name string) (*edge.VirtualHost, error) {
	vh := f.vhosts[env][name]
	return &vh, nil
}

func TestVerifyUniqueHostAliases(t *testing.T) {
	org1 := &fakeOrg{
		name: "org1",
		envs: []string{"test", "prod"},
		vhosts: map[string]map[string]edge.VirtualHost{
			"test": {"secure": {Name: "secure", HostAliases: []string{"test.example.com"}, Port: json.Number("443")}},
			"prod": {
				"default": {Name: "default", HostAliases: []string{"api.example.com"}, Port: json.Number("80")},
				"secure":  {Name: "secure", HostAliases: []string{"api.example.com"}, Port: json.Number("443")},
			},
		},
	}
	org2 := &fakeOrg{
		name: "org2",
		envs: []string{"prod"},
		vhosts: map[string]map[string]edge.VirtualHost{
			"prod": {"secure": {Name: "secure", HostAliases: []string{"test.example.com"}, Port: json.Number("443")}},
		},
	}

	report, err := VerifyUniqueHostAliases(t.Context(), []VirtualHostApi{org1, org2}, log.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, map[string]string{
		"test.example.com:443": "ERROR o/org1/e/test/virtualhosts/secure o/org2/e/prod/virtualhosts/secure",
		"api.example.com:80":   "o/org1/e/prod/virtualhosts/default",
		"api.example.com:443":  "o/org1/e/prod/virtualhosts/secure",
	}, report.Hosts)
}

func TestVerifyUniqueHostAliases_Unique(t *testing.T) {
	org := &fakeOrg{name: "org1", envs: []string{"test"}, vhosts: map[string]map[string]edge.VirtualHost{
		"test": {"default": {HostAliases: []string{"a", "b"}, Port: json.Number("80")}},
	}}
	report, err := VerifyUniqueHostAliases(t.Context(), []VirtualHostApi{org}, log.NewNullLogger())
	require.NoError(t, err)
	assert.Zero(t, report.Duplicates)
	assert.Len(t, report.Hosts, 2)
}
