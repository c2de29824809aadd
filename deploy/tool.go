package deploy

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/edgeadmin/edgeadmin/prompt"
)

const (
	actionDeploy   = "deploy"
	actionUndeploy = "undeploy"
)

type ManagementApi interface {
	ListEnvironments(ctx context.Context) ([]string, error)
	ListProxies(ctx context.Context) ([]string, error)
	ListProxyRevisions(ctx context.Context, name string) ([]string, error)
	GetEnvironmentDeployments(ctx context.Context, env string) ([]edge.Deployment, error)
	Deploy(ctx context.Context, env string, name string, revision string) error
	Undeploy(ctx context.Context, env string, name string, revision string) error
}

// Tool walks the operator through deploying and undeploying proxies in one environment.
type Tool struct {
	api    ManagementApi
	prompt prompt.Prompter
	out    io.Writer
	log    log.Logger
}

func NewTool(api ManagementApi, p prompt.Prompter, out io.Writer, log log.Logger) *Tool {
	return &Tool{api: api, prompt: p, out: out, log: log.WithPrefix("deploy")}
}

func (t *Tool) Run(ctx context.Context) error {
	envs, err := t.api.ListEnvironments(ctx)
	if err != nil {
		return err
	}
	env, err := t.prompt.Select("environment", envs, "")
	if err != nil {
		return err
	}
	action, err := t.prompt.Select("action", []string{actionDeploy, actionUndeploy, prompt.Quit}, "")
	if err != nil {
		return err
	}
	if action == prompt.Quit {
		return nil
	}
	deployed, err := t.api.GetEnvironmentDeployments(ctx, env)
	if err != nil {
		return err
	}
	if action == actionDeploy {
		return t.deploy(ctx, env, deployed)
	}
	return t.undeploy(ctx, env, deployed)
}

func (t *Tool) deploy(ctx context.Context, env string, deployed []edge.Deployment) error {
	all, err := t.api.ListProxies(ctx)
	if err != nil {
		return err
	}
	var candidates []string
	for _, name := range all {
		if !slices.ContainsFunc(deployed, func(d edge.Deployment) bool { return d.Name == name }) {
			candidates = append(candidates, name)
		}
	}
	slices.Sort(candidates)

	for {
		if len(candidates) == 0 {
			_, _ = fmt.Fprintln(t.out, "no proxies to deploy")
			return nil
		}
		selected, err := t.prompt.Select("proxy", append(slices.Clone(candidates), prompt.Quit), "")
		if err != nil {
			return err
		}
		if selected == prompt.Quit {
			return nil
		}
		_, _ = fmt.Fprintf(t.out, "deploying %s\n", selected)
		if err = t.deployLatest(ctx, env, selected); err != nil {
			t.log.Errorf("failed to deploy %s: %s", selected, err)
			continue
		}
		candidates = slices.DeleteFunc(candidates, func(n string) bool { return n == selected })
	}
}

func (t *Tool) deployLatest(ctx context.Context, env string, name string) error {
	revisions, err := t.api.ListProxyRevisions(ctx, name)
	if err != nil {
		return err
	}
	latest := edge.LatestRevision(revisions)
	if latest == "" {
		return fmt.Errorf("deploy: proxy %s has no revisions", name)
	}
	return t.api.Deploy(ctx, env, name, latest)
}

func (t *Tool) undeploy(ctx context.Context, env string, deployed []edge.Deployment) error {
	deployed = slices.Clone(deployed)
	slices.SortStableFunc(deployed, func(a, b edge.Deployment) int { return strings.Compare(a.Name, b.Name) })

	for {
		if len(deployed) == 0 {
			_, _ = fmt.Fprintln(t.out, "no proxies to undeploy")
			return nil
		}
		items := make([]string, 0, len(deployed)+1)
		for _, d := range deployed {
			items = append(items, fmt.Sprintf("%s (r%s)", d.Name, d.Revision))
		}
		selected, err := t.prompt.Select("proxy", append(items, prompt.Quit), "")
		if err != nil {
			return err
		}
		if selected == prompt.Quit {
			return nil
		}
		d := deployed[slices.Index(items, selected)]
		_, _ = fmt.Fprintf(t.out, "undeploying %s\n", selected)
		if err = t.api.Undeploy(ctx, env, d.Name, d.Revision); err != nil {
			return err
		}
		deployed = slices.DeleteFunc(deployed, func(e edge.Deployment) bool { return e.Name == d.Name })
	}
}
