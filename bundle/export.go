package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
)

// ManagementApi is the part of the management client used by the exporter.
type ManagementApi interface {
	ListAssets(ctx context.Context, kind edge.AssetKind) ([]string, error)
	ListRevisions(ctx context.Context, kind edge.AssetKind, name string) ([]string, error)
	GetDeployments(ctx context.Context, kind edge.AssetKind, name string) ([]edge.Deployment, error)
	ExportBundle(ctx context.Context, kind edge.AssetKind, name string, revision string) ([]byte, error)
}

type Options struct {
	Kind        edge.AssetKind
	Name        string
	Pattern     string
	Destination string
	Trial       bool
	Revision    string
	Environment string
}

func (o *Options) Validate() error {
	if o.Name != "" && o.Pattern != "" {
		return errors.New("bundle: specify only one of a name or a pattern")
	}
	if o.Revision != "" && o.Pattern != "" {
		return errors.New("bundle: a revision cannot be combined with a pattern")
	}
	if o.Revision != "" && o.Name == "" {
		return errors.New("bundle: a revision requires a name")
	}
	if o.Pattern != "" {
		if _, err := regexp.Compile(o.Pattern); err != nil {
			return fmt.Errorf("bundle: invalid pattern: %s", err)
		}
	}
	return nil
}

// Exported describes one bundle written (or, in trial mode, one that would be written).
type Exported struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
	File     string `json:"file"`
	Size     int    `json:"size,omitempty"`
	Hash     string `json:"xxhash,omitempty"`
}

type Exporter struct {
	api ManagementApi
	log log.Logger
	now func() time.Time
}

func NewExporter(api ManagementApi, log log.Logger) *Exporter {
	return &Exporter{
		api: api,
		log: log.WithPrefix("bundle"),
		now: time.Now,
	}
}

// DefaultDestination is exported-YYYYMMDD-HHMMSS.
func DefaultDestination(t time.Time) string {
	return "exported-" + utils.Stamp(t)
}

// Export writes the selected bundles into opts.Destination.
func (e *Exporter) Export(ctx context.Context, opts Options) ([]Exported, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Destination == "" {
		opts.Destination = DefaultDestination(e.now().UTC())
	}
	if !opts.Trial {
		if err := os.MkdirAll(opts.Destination, 0755); err != nil {
			return nil, fmt.Errorf("bundle: failed to create %s: %w", opts.Destination, err)
		}
	}

	var names []string
	if opts.Name != "" {
		names = []string{opts.Name}
	} else {
		all, err := e.api.ListAssets(ctx, opts.Kind)
		if err != nil {
			return nil, err
		}
		var re *regexp.Regexp
		if opts.Pattern != "" {
			re = regexp.MustCompile(opts.Pattern)
		}
		for _, n := range all {
			if re == nil || re.MatchString(n) {
				names = append(names, n)
			}
		}
	}

	result := make([]Exported, 0, len(names))
	for _, name := range names {
		revision, err := e.chooseRevision(ctx, opts, name)
		if err != nil {
			return result, err
		}
		if revision == "" {
			e.log.Infof("%s %s is not deployed in %s, skipped", opts.Kind, name, opts.Environment)
			continue
		}
		exported, err := e.exportOne(ctx, opts, name, revision)
		if err != nil {
			return result, err
		}
		result = append(result, exported)
	}
	return result, nil
}

func (e *Exporter) chooseRevision(ctx context.Context, opts Options, name string) (string, error) {
	if opts.Revision != "" {
		return opts.Revision, nil
	}
	if opts.Environment != "" {
		deployments, err := e.api.GetDeployments(ctx, opts.Kind, name)
		if err != nil {
			if edge.IsNotFound(err) {
				return "", nil
			}
			return "", err
		}
		for _, d := range deployments {
			if d.Environment == opts.Environment && d.State == "deployed" {
				return d.Revision, nil
			}
		}
		return "", nil
	}
	revisions, err := e.api.ListRevisions(ctx, opts.Kind, name)
	if err != nil {
		return "", err
	}
	if len(revisions) == 0 {
		return "", fmt.Errorf("bundle: %s %s has no revisions", opts.Kind, name)
	}
	return revisions[len(revisions)-1], nil
}

func (e *Exporter) exportOne(ctx context.Context, opts Options, name string, revision string) (Exported, error) {
	file := filepath.Join(opts.Destination, fmt.Sprintf("%s-%s-r%s-%s.zip", opts.Kind, name, revision, utils.Stamp(e.now().UTC())))
	if opts.Trial {
		e.log.Reportf("would export %s %s revision %s to %s", opts.Kind, name, revision, file)
		return Exported{Name: name, Revision: revision, File: file}, nil
	}
	data, err := e.api.ExportBundle(ctx, opts.Kind, name, revision)
	if err != nil {
		return Exported{}, err
	}
	if err = os.WriteFile(file, data, 0644); err != nil {
		return Exported{}, fmt.Errorf("bundle: failed to write %s: %w", file, err)
	}
	e.log.Infof("exported %s %s revision %s", opts.Kind, name, revision)
	return Exported{Name: name, Revision: revision, File: file, Size: len(data), Hash: utils.FastHashHex(data)}, nil
}

// ExportAll writes every revision of every proxy into exported-<unixmillis>/<name>.R<rev>.zip
// under parent.
func (e *Exporter) ExportAll(ctx context.Context, parent string) (string, []Exported, error) {
	dir := filepath.Join(parent, "exported-"+strconv.FormatInt(e.now().UnixMilli(), 10))
	proxies, err := e.api.ListAssets(ctx, edge.ApiProxy)
	if err != nil {
		return dir, nil, err
	}
	e.log.Reportf("found %d apis", len(proxies))

	type proxyRevisions struct {
		name      string
		revisions []string
	}
	all := make([]proxyRevisions, 0, len(proxies))
	for _, p := range proxies {
		revisions, err := e.api.ListRevisions(ctx, edge.ApiProxy, p)
		if err != nil {
			return dir, nil, err
		}
		e.log.Debugf("%s: %v", p, revisions)
		all = append(all, proxyRevisions{name: p, revisions: revisions})
	}

	if err = os.MkdirAll(dir, 0755); err != nil {
		return dir, nil, fmt.Errorf("bundle: failed to create %s: %w", dir, err)
	}
	e.log.Reportf("exporting to %s", dir)
	result := make([]Exported, 0)
	for _, p := range all {
		for _, rev := range p.revisions {
			data, err := e.api.ExportBundle(ctx, edge.ApiProxy, p.name, rev)
			if err != nil {
				return dir, result, err
			}
			file := filepath.Join(dir, p.name+".R"+rev+".zip")
			if err = os.WriteFile(file, data, 0644); err != nil {
				return dir, result, fmt.Errorf("bundle: failed to write %s: %w", file, err)
			}
			e.log.Debugf("  %s", file)
			result = append(result, Exported{Name: p.name, Revision: rev, File: file, Size: len(data), Hash: utils.FastHashHex(data)})
		}
	}
	return dir, result, nil
}
