package apimodel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/edgeadmin/edgeadmin/condition"
	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
)

const (
	DefaultBasePath    = "http://example.com/"
	defaultEndpoint    = "default"
	pendingDescription = "-to be provided-"
)

// ManagementApi is the part of the management client the generator needs.
type ManagementApi interface {
	GetProduct(ctx context.Context, name string) (*edge.Product, error)
	GetProxy(ctx context.Context, name string) (*edge.Proxy, error)
	GetProxyRevision(ctx context.Context, name string, revision string) (*edge.ProxyRevision, error)
	GetProxyEndpoint(ctx context.Context, name string, revision string, endpoint string) (*edge.ProxyEndpoint, error)
	GetApiModel(ctx context.Context, name string) (*edge.ApiModel, error)
	CreateApiModel(ctx context.Context, model edge.ApiModel) (*edge.ApiModel, error)
	ImportApiModelRevision(ctx context.Context, name string, document []byte) error
}

type Model struct {
	DisplayName string     `json:"displayName"`
	Description string     `json:"description"`
	BaseUrl     string     `json:"baseUrl,omitempty"`
	Resources   []Resource `json:"resources"`
}

type Resource struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName"`
	Description string     `json:"description"`
	BaseUrl     string     `json:"baseUrl"`
	Path        string     `json:"path"`
	Resources   []Resource `json:"resources"`
	Methods     []Method   `json:"methods"`
}

type Method struct {
	Name         string      `json:"name"`
	DisplayName  string      `json:"displayName"`
	Description  string      `json:"description"`
	Verb         string      `json:"verb"`
	ResourceName string      `json:"resourceName"`
	Body         *MethodBody `json:"body,omitempty"`
}

type MethodBody struct {
	Doc        string        `json:"doc"`
	Parameters []interface{} `json:"parameters"`
	Sample     string        `json:"sample"`
}

type Generator struct {
	api      ManagementApi
	basePath string
	log      log.Logger
	now      func() time.Time
}

func NewGenerator(api ManagementApi, basePath string, log log.Logger) *Generator {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Generator{
		api:      api,
		basePath: basePath,
		log:      log.WithPrefix("apimodel"),
		now:      time.Now,
	}
}

// Generate builds a model holding one resource for every flow of the product's proxies
// that matches a single verb on a single path.
func (g *Generator) Generate(ctx context.Context, product string) (*Model, error) {
	p, err := g.api.GetProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	g.log.Infof("proxies of product %s: %v", product, p.Proxies)

	model := &Model{
		DisplayName: product,
		Description: fmt.Sprintf("API model for product %s, generated %s", product, g.now().Format("Monday, January 2, 2006, 3:04:05 PM")),
		Resources:   make([]Resource, 0),
	}
	for _, proxyName := range utils.DedupStringSlice(p.Proxies) {
		endpoint, err := g.defaultEndpoint(ctx, proxyName)
		if err != nil {
			return nil, err
		}
		baseUrl := utils.JoinUrl(g.basePath, endpoint.Connection.BasePath)
		if model.BaseUrl == "" {
			model.BaseUrl = baseUrl
		}
		for _, flow := range endpoint.Flows {
			if flow.Condition == "" {
				g.log.Debugf("flow %s of %s has no condition, ignored", flow.Name, proxyName)
				continue
			}
			tree, err := condition.Parse(flow.Condition)
			if err != nil {
				g.log.Warnf("flow %s of %s: %s", flow.Name, proxyName, err)
				continue
			}
			simple, ok := condition.FlowIsSimpleCase(tree)
			if !ok {
				g.log.Infof("flow %s of %s is not a simple case, it will need custom design", flow.Name, proxyName)
				continue
			}
			model.Resources = append(model.Resources, newResource(proxyName, flow.Name, baseUrl, simple))
		}
	}
	return model, nil
}

func (g *Generator) defaultEndpoint(ctx context.Context, proxyName string) (*edge.ProxyEndpoint, error) {
	proxy, err := g.api.GetProxy(ctx, proxyName)
	if err != nil {
		return nil, err
	}
	latest := edge.LatestRevision(proxy.Revision)
	if latest == "" {
		return nil, fmt.Errorf("apimodel: proxy %s has no revisions", proxyName)
	}
	revision, err := g.api.GetProxyRevision(ctx, proxyName, latest)
	if err != nil {
		return nil, err
	}
	if !revision.HasProxyEndpoint(defaultEndpoint) {
		return nil, fmt.Errorf("apimodel: cannot find proxy endpoint %s in revision %s of %s", defaultEndpoint, latest, proxyName)
	}
	return g.api.GetProxyEndpoint(ctx, proxyName, latest, defaultEndpoint)
}

func newResource(proxyName string, flowName string, baseUrl string, simple condition.SimpleCase) Resource {
	name := proxyName + "-" + flowName
	methodName := strings.Replace(simple.Path, "/", "", 1)
	method := Method{
		Name:         methodName,
		DisplayName:  methodName,
		Description:  pendingDescription,
		Verb:         simple.Verb,
		ResourceName: name,
	}
	if simple.Verb == "POST" || simple.Verb == "PUT" {
		method.Body = &MethodBody{Parameters: make([]interface{}, 0)}
	}
	return Resource{
		Name:        name,
		DisplayName: proxyName + ": " + flowName,
		Description: pendingDescription,
		BaseUrl:     baseUrl,
		Path:        simple.Path,
		Resources:   make([]Resource, 0),
		Methods:     []Method{method},
	}
}

// Import uploads model, displayed as name, as a new revision of the api model name,
// creating the api model first when missing.
func (g *Generator) Import(ctx context.Context, name string, model *Model) error {
	named := *model
	named.DisplayName = name
	document, err := json.Marshal(named)
	if err != nil {
		return fmt.Errorf("apimodel: failed to encode model: %w", err)
	}
	_, err = g.api.GetApiModel(ctx, name)
	switch {
	case err == nil:
		g.log.Infof("api model %s exists", name)
	case edge.IsNotFound(err):
		g.log.Infof("api model %s does not exist yet", name)
		_, err = g.api.CreateApiModel(ctx, edge.ApiModel{
			Name:        name,
			DisplayName: name,
			Description: "model imported on " + g.now().Format("Monday, January 2, 2006, 3:04:05 PM"),
		})
		if err != nil {
			return err
		}
	default:
		return err
	}
	return g.api.ImportApiModelRevision(ctx, name, document)
}

// WriteFile stores model as model-<random>.json in dir and returns the file name.
func WriteFile(dir string, model *Model) (string, error) {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return "", fmt.Errorf("apimodel: failed to encode model: %w", err)
	}
	f, err := os.CreateTemp(dir, "model-*.json")
	if err != nil {
		return "", fmt.Errorf("apimodel: failed to create model file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err = f.Write(data); err != nil {
		return "", fmt.Errorf("apimodel: failed to write %s: %w", f.Name(), err)
	}
	if err = f.Chmod(0644); err != nil {
		return "", fmt.Errorf("apimodel: failed to write %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}
