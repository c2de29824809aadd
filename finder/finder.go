package finder

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/log"
)

const (
	javaCallout = "JavaCallout"
	keyValueMap = "KeyValueMapOperations"
	flowCallout = "FlowCalloutBean"
)

// ManagementApi is the part of the management client the finders read from.
type ManagementApi interface {
	ListProxies(ctx context.Context) ([]string, error)
	ListProxyRevisions(ctx context.Context, name string) ([]string, error)
	ListPolicies(ctx context.Context, name string, revision string) ([]string, error)
	GetPolicy(ctx context.Context, name string, revision string, policy string) (*edge.Policy, error)
	ListResources(ctx context.Context, name string, revision string) ([]string, error)
	GetOrgDeployments(ctx context.Context) ([]edge.Deployment, error)
	ListApps(ctx context.Context) ([]edge.App, error)
	GetDeveloper(ctx context.Context, id string) (*edge.Developer, error)
	ListProducts(ctx context.Context) ([]edge.Product, error)
}

type Finder struct {
	api ManagementApi
	log log.Logger
}

func NewFinder(api ManagementApi, log log.Logger) *Finder {
	return &Finder{api: api, log: log.WithPrefix("finder")}
}

type revisionRef struct {
	proxy    string
	revision string
}

func (r revisionRef) path() string {
	return fmt.Sprintf("apis/%s/revisions/%s", r.proxy, r.revision)
}

// PolicyFilter decides whether a policy is reported.
type PolicyFilter func(p *edge.Policy) bool

func JavaCalloutFilter() PolicyFilter {
	return func(p *edge.Policy) bool {
		return p.PolicyType == javaCallout
	}
}

// KvmFilter matches KVM policies; scope is only checked together with a map name.
func KvmFilter(mapName string, scope string) PolicyFilter {
	return func(p *edge.Policy) bool {
		if p.PolicyType != keyValueMap {
			return false
		}
		if mapName == "" {
			return true
		}
		return p.MapIdentifier == mapName && (scope == "" || p.Scope == scope)
	}
}

func SharedFlowFilter(flow string) PolicyFilter {
	return func(p *edge.Policy) bool {
		return p.PolicyType == flowCallout && (flow == "" || p.SharedFlowBundle == flow)
	}
}

// FindPolicies reports every policy of every revision of every proxy accepted by filter,
// as apis/<proxy>/revisions/<rev>/policies/<policy>.
func (f *Finder) FindPolicies(ctx context.Context, filter PolicyFilter) ([]string, error) {
	revisions, err := f.allRevisions(ctx)
	if err != nil {
		return nil, err
	}
	return f.scanPolicies(ctx, revisions, filter)
}

// FindDeployedPolicies is FindPolicies restricted to deployed revisions, in env when set.
func (f *Finder) FindDeployedPolicies(ctx context.Context, env string, filter PolicyFilter) ([]string, error) {
	deployments, err := f.api.GetOrgDeployments(ctx)
	if err != nil {
		return nil, err
	}
	var revisions []revisionRef
	seen := make(map[revisionRef]struct{})
	for _, d := range deployments {
		if env != "" && d.Environment != env {
			continue
		}
		ref := revisionRef{proxy: d.Name, revision: d.Revision}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		revisions = append(revisions, ref)
	}
	f.log.Infof("%d deployed revisions to examine", len(revisions))
	return f.scanPolicies(ctx, revisions, filter)
}

// FindJars reports the revisions holding a java resource named jar, or matching it as a
// regular expression, as apis/<proxy>/revisions/<rev>/resources/java/<jar>.
func (f *Finder) FindJars(ctx context.Context, jar string, isRegexp bool) ([]string, error) {
	match := func(name string) bool { return name == jar }
	if isRegexp {
		re, err := regexp.Compile(jar)
		if err != nil {
			return nil, fmt.Errorf("finder: invalid jar pattern: %s", err)
		}
		match = re.MatchString
	}
	revisions, err := f.allRevisions(ctx)
	if err != nil {
		return nil, err
	}
	return f.scan(ctx, revisions, func(ctx context.Context, ref revisionRef) ([]string, error) {
		resources, err := f.api.ListResources(ctx, ref.proxy, ref.revision)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, r := range resources {
			name, ok := strings.CutPrefix(r, "java://")
			if ok && match(name) {
				found = append(found, ref.path()+"/resources/java/"+name)
			}
		}
		return found, nil
	})
}

func (f *Finder) allRevisions(ctx context.Context) ([]revisionRef, error) {
	proxies, err := f.api.ListProxies(ctx)
	if err != nil {
		return nil, err
	}
	f.log.Infof("%d proxies to examine", len(proxies))
	var result []revisionRef
	for _, p := range proxies {
		revisions, err := f.api.ListProxyRevisions(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, r := range revisions {
			result = append(result, revisionRef{proxy: p, revision: r})
		}
	}
	return result, nil
}

func (f *Finder) scanPolicies(ctx context.Context, revisions []revisionRef, filter PolicyFilter) ([]string, error) {
	return f.scan(ctx, revisions, func(ctx context.Context, ref revisionRef) ([]string, error) {
		policies, err := f.api.ListPolicies(ctx, ref.proxy, ref.revision)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, name := range policies {
			policy, err := f.api.GetPolicy(ctx, ref.proxy, ref.revision, name)
			if err != nil {
				return nil, err
			}
			if filter(policy) {
				found = append(found, ref.path()+"/policies/"+name)
			}
		}
		return found, nil
	})
}

// scan examines revisions one at a time, in order, and stops at the first error.
func (f *Finder) scan(ctx context.Context, revisions []revisionRef, examine func(context.Context, revisionRef) ([]string, error)) ([]string, error) {
	result := make([]string, 0)
	for _, ref := range revisions {
		res, err := examine(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(res) > 0 {
			f.log.Debugf("%s: %v", ref.path(), res)
		}
		result = append(result, res...)
	}
	return result, nil
}
