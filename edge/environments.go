package edge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Deployment is one deployed revision of a proxy or shared flow in an environment.
type Deployment struct {
	Environment string `json:"environment"`
	Name        string `json:"name"`
	Revision    string `json:"revision"`
	State       string `json:"state"`
}

type VirtualHost struct {
	Name        string      `json:"name"`
	HostAliases []string    `json:"hostAliases"`
	Port        json.Number `json:"port"`
}

func (c *Client) ListEnvironments(ctx context.Context) ([]string, error) {
	return c.getNames(ctx, "environments", "environments")
}

// GetEnvironmentDeployments lists the proxy revisions deployed in env.
func (c *Client) GetEnvironmentDeployments(ctx context.Context, env string) ([]Deployment, error) {
	path := "environments/" + env + "/deployments"
	data, err := c.get(ctx, path, "")
	if err != nil {
		return nil, err
	}
	return decodeDeployments(data, path, env, "")
}

// GetDeployments lists where the revisions of one proxy or shared flow are deployed.
func (c *Client) GetDeployments(ctx context.Context, kind AssetKind, name string) ([]Deployment, error) {
	path := kind.collection() + "/" + name + "/deployments"
	data, err := c.get(ctx, path, "")
	if err != nil {
		return nil, err
	}
	return decodeDeployments(data, path, "", name)
}

// GetOrgDeployments lists every proxy deployment of the organization.
func (c *Client) GetOrgDeployments(ctx context.Context) ([]Deployment, error) {
	data, err := c.get(ctx, "deployments", "")
	if err != nil {
		return nil, err
	}
	return decodeDeployments(data, "deployments", "", "")
}

// decodeDeployments flattens the Edge shapes
//
//	{"environment":[{"name":env,"aPIProxy":[{"name":p,"revision":[{"name":r,"state":s}]}]}]}
//	{"name":env,"aPIProxy":[...]}
//	{"name":p,"environment":[{"name":env,"revision":[...]}]}
//
// and the X shape {"deployments":[{"environment":env,"apiProxy":p,"revision":r}]}.
func decodeDeployments(data []byte, path string, env string, name string) ([]Deployment, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("edge: invalid JSON response for %s", path)
	}
	res := gjson.ParseBytes(data)
	result := make([]Deployment, 0)

	if deployments := res.Get("deployments"); deployments.Exists() {
		deployments.ForEach(func(_, d gjson.Result) bool {
			n := d.Get("apiProxy").String()
			if n == "" {
				n = d.Get("sharedFlow").String()
			}
			if n == "" {
				n = name
			}
			e := d.Get("environment").String()
			if e == "" {
				e = env
			}
			state := d.Get("state").String()
			if state == "" || state == "READY" {
				state = "deployed"
			}
			result = append(result, Deployment{Environment: e, Name: n, Revision: d.Get("revision").String(), State: state})
			return true
		})
		return result, nil
	}

	appendRevisions := func(e string, n string, revisions gjson.Result) {
		revisions.ForEach(func(_, r gjson.Result) bool {
			result = append(result, Deployment{Environment: e, Name: n, Revision: r.Get("name").String(), State: r.Get("state").String()})
			return true
		})
	}
	appendProxies := func(e string, proxies gjson.Result) {
		proxies.ForEach(func(_, p gjson.Result) bool {
			appendRevisions(e, p.Get("name").String(), p.Get("revision"))
			return true
		})
	}

	switch {
	case res.Get("aPIProxy").Exists():
		appendProxies(res.Get("name").String(), res.Get("aPIProxy"))
	case res.Get("environment").IsArray():
		res.Get("environment").ForEach(func(_, e gjson.Result) bool {
			if e.Get("aPIProxy").Exists() {
				appendProxies(e.Get("name").String(), e.Get("aPIProxy"))
			} else {
				n := name
				if n == "" {
					n = res.Get("name").String()
				}
				appendRevisions(e.Get("name").String(), n, e.Get("revision"))
			}
			return true
		})
	}
	return result, nil
}

// Deploy deploys a revision into env, replacing what is there.
func (c *Client) Deploy(ctx context.Context, env string, name string, revision string) error {
	_, err := c.do(ctx, http.MethodPost, "environments/"+env+"/apis/"+name+"/revisions/"+revision+"/deployments",
		"override=true", nil, "Content-Type", "application/x-www-form-urlencoded")
	return err
}

func (c *Client) Undeploy(ctx context.Context, env string, name string, revision string) error {
	_, err := c.do(ctx, http.MethodDelete, "environments/"+env+"/apis/"+name+"/revisions/"+revision+"/deployments", "", nil)
	return err
}

func (c *Client) ListVirtualHosts(ctx context.Context, env string) ([]string, error) {
	return c.getNames(ctx, "environments/"+env+"/virtualhosts", "virtualHosts")
}

func (c *Client) GetVirtualHost(ctx context.Context, env string, name string) (*VirtualHost, error) {
	var vh VirtualHost
	if err := c.getJSON(ctx, "environments/"+env+"/virtualhosts/"+name, "", &vh); err != nil {
		return nil, err
	}
	return &vh, nil
}
