package edge

import (
	"context"
	"net/http"
	"slices"
)

// AssetKind selects between API proxies and shared flows, which share most endpoints.
type AssetKind int

const (
	ApiProxy AssetKind = iota
	SharedFlow
)

func (k AssetKind) collection() string {
	if k == SharedFlow {
		return "sharedflows"
	}
	return "apis"
}

func (k AssetKind) listKey() string {
	if k == SharedFlow {
		return "sharedFlows"
	}
	return "proxies"
}

// String is the bundle type name used in export file names.
func (k AssetKind) String() string {
	if k == SharedFlow {
		return "sharedflow"
	}
	return "apiproxy"
}

type Proxy struct {
	Name     string   `json:"name"`
	Revision []string `json:"revision"`
}

type ProxyRevision struct {
	Name            string   `json:"name"`
	Revision        string   `json:"revision"`
	BasePaths       []string `json:"basepaths"`
	Policies        []string `json:"policies"`
	ProxyEndpoints  []string `json:"proxies"`
	ProxyEndpointsX []string `json:"proxyEndpoints"`
	TargetEndpoints []string `json:"targets"`
	Resources       []string `json:"resources"`
}

// HasProxyEndpoint checks both the Edge and the X listing of proxy endpoints.
func (r *ProxyRevision) HasProxyEndpoint(name string) bool {
	return slices.Contains(r.ProxyEndpoints, name) || slices.Contains(r.ProxyEndpointsX, name)
}

type ProxyEndpoint struct {
	Name       string     `json:"name"`
	Connection Connection `json:"connection"`
	Flows      []Flow     `json:"flows"`
}

type Connection struct {
	BasePath    string   `json:"basePath"`
	VirtualHost []string `json:"virtualHost"`
}

type Flow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Condition   string `json:"condition"`
}

type Policy struct {
	Name             string `json:"name"`
	PolicyType       string `json:"policyType"`
	Enabled          bool   `json:"enabled"`
	MapIdentifier    string `json:"mapIdentifier"`
	Scope            string `json:"scope"`
	SharedFlowBundle string `json:"sharedFlowBundle"`
}

func (c *Client) ListAssets(ctx context.Context, kind AssetKind) ([]string, error) {
	return c.getNames(ctx, kind.collection(), kind.listKey())
}

func (c *Client) ListRevisions(ctx context.Context, kind AssetKind, name string) ([]string, error) {
	return c.getNames(ctx, kind.collection()+"/"+name+"/revisions", "revisions")
}

func (c *Client) ListProxies(ctx context.Context) ([]string, error) {
	return c.ListAssets(ctx, ApiProxy)
}

func (c *Client) ListSharedFlows(ctx context.Context) ([]string, error) {
	return c.ListAssets(ctx, SharedFlow)
}

func (c *Client) ListProxyRevisions(ctx context.Context, name string) ([]string, error) {
	return c.ListRevisions(ctx, ApiProxy, name)
}

func (c *Client) ListSharedFlowRevisions(ctx context.Context, name string) ([]string, error) {
	return c.ListRevisions(ctx, SharedFlow, name)
}

func (c *Client) GetProxy(ctx context.Context, name string) (*Proxy, error) {
	var p Proxy
	if err := c.getJSON(ctx, "apis/"+name, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetProxyRevision(ctx context.Context, name string, revision string) (*ProxyRevision, error) {
	var r ProxyRevision
	if err := c.getJSON(ctx, "apis/"+name+"/revisions/"+revision, "", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) GetProxyEndpoint(ctx context.Context, name string, revision string, endpoint string) (*ProxyEndpoint, error) {
	var e ProxyEndpoint
	if err := c.getJSON(ctx, "apis/"+name+"/revisions/"+revision+"/proxies/"+endpoint, "", &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) ListPolicies(ctx context.Context, name string, revision string) ([]string, error) {
	return c.getNames(ctx, "apis/"+name+"/revisions/"+revision+"/policies", "policies")
}

func (c *Client) GetPolicy(ctx context.Context, name string, revision string, policy string) (*Policy, error) {
	var p Policy
	if err := c.getJSON(ctx, "apis/"+name+"/revisions/"+revision+"/policies/"+policy, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListResources returns the resource references of a revision, e.g. java://callout.jar.
func (c *Client) ListResources(ctx context.Context, name string, revision string) ([]string, error) {
	return c.getNames(ctx, "apis/"+name+"/revisions/"+revision+"/resources", "resources")
}

// ExportBundle downloads the zipped bundle of one revision.
func (c *Client) ExportBundle(ctx context.Context, kind AssetKind, name string, revision string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, kind.collection()+"/"+name+"/revisions/"+revision, "format=bundle", nil, "Accept", "application/octet-stream")
}
