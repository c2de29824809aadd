package finder

import (
	"context"
	"fmt"

	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/log"
)

// VirtualHostApi reads the virtual hosts of one organization.
type VirtualHostApi interface {
	Org() string
	ListEnvironments(ctx context.Context) ([]string, error)
	ListVirtualHosts(ctx context.Context, env string) ([]string, error)
	GetVirtualHost(ctx context.Context, env string, name string) (*edge.VirtualHost, error)
}

// HostAliasReport maps alias:port to the virtual host declaring it.
type HostAliasReport struct {
	Hosts      map[string]string
	Duplicates int
}

// VerifyUniqueHostAliases collects the host aliases of every virtual host of every org and
// flags the ones declared more than once.
func VerifyUniqueHostAliases(ctx context.Context, orgs []VirtualHostApi, logger log.Logger) (*HostAliasReport, error) {
	logger = logger.WithPrefix("finder")
	report := &HostAliasReport{Hosts: make(map[string]string)}
	for _, api := range orgs {
		envs, err := api.ListEnvironments(ctx)
		if err != nil {
			return nil, err
		}
		for _, env := range envs {
			vhosts, err := api.ListVirtualHosts(ctx, env)
			if err != nil {
				return nil, err
			}
			for _, name := range vhosts {
				vh, err := api.GetVirtualHost(ctx, env, name)
				if err != nil {
					return nil, err
				}
				logger.Infof("org[%s] env[%s] vhost[%s]: %v", api.Org(), env, name, vh.HostAliases)
				location := fmt.Sprintf("o/%s/e/%s/virtualhosts/%s", api.Org(), env, name)
				for _, alias := range vh.HostAliases {
					host := alias + ":" + vh.Port.String()
					if previous, ok := report.Hosts[host]; ok {
						report.Hosts[host] = "ERROR " + previous + " " + location
						report.Duplicates++
						continue
					}
					report.Hosts[host] = location
				}
			}
		}
	}
	return report, nil
}
