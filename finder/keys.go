package finder

import (
	"context"
	"fmt"
	"slices"

	"github.com/edgeadmin/edgeadmin/edge"
)

type KeyOwner struct {
	Key       string
	App       edge.App
	Developer *edge.Developer
}

func (o *KeyOwner) String() string {
	d := o.Developer
	return fmt.Sprintf("key: %s\napp: %s %s\ndev: %s %s %s %s %s\n",
		o.Key, o.App.Name, o.App.AppId, o.App.DeveloperId, d.FirstName, d.LastName, d.UserName, d.Email)
}

// FindApiKey returns the app holding the consumer key and its developer.
func (f *Finder) FindApiKey(ctx context.Context, key string) (*KeyOwner, error) {
	apps, err := f.api.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		for _, cred := range app.Credentials {
			if cred.ConsumerKey != key {
				continue
			}
			dev, err := f.api.GetDeveloper(ctx, app.DeveloperId)
			if err != nil {
				return nil, err
			}
			return &KeyOwner{Key: key, App: app, Developer: dev}, nil
		}
	}
	return nil, fmt.Errorf("finder: no app holds the key %s", key)
}

// FindProductsForProxy returns the total number of products and the ones listing proxy.
func (f *Finder) FindProductsForProxy(ctx context.Context, proxy string) (int, []edge.Product, error) {
	products, err := f.api.ListProducts(ctx)
	if err != nil {
		return 0, nil, err
	}
	found := make([]edge.Product, 0)
	for _, p := range products {
		if slices.Contains(p.Proxies, proxy) {
			found = append(found, p)
		}
	}
	return len(products), found, nil
}
