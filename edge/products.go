package edge

import (
	"context"
)

type Product struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName,omitempty"`
	Description  string   `json:"description,omitempty"`
	Proxies      []string `json:"proxies"`
	Environments []string `json:"environments,omitempty"`
	ApiResources []string `json:"apiResources,omitempty"`
}

type App struct {
	AppId       string       `json:"appId"`
	Name        string       `json:"name"`
	DeveloperId string       `json:"developerId"`
	Status      string       `json:"status"`
	Credentials []Credential `json:"credentials"`
}

type Credential struct {
	ConsumerKey string `json:"consumerKey"`
	Status      string `json:"status"`
}

type Developer struct {
	DeveloperId string `json:"developerId"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	UserName    string `json:"userName"`
}

func (c *Client) ListProductNames(ctx context.Context) ([]string, error) {
	return c.getNames(ctx, "apiproducts", "apiProduct")
}

// ListProducts returns all products with their details.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var body struct {
		ApiProduct []Product `json:"apiProduct"`
	}
	if err := c.getJSON(ctx, "apiproducts", "expand=true", &body); err != nil {
		return nil, err
	}
	return body.ApiProduct, nil
}

func (c *Client) GetProduct(ctx context.Context, name string) (*Product, error) {
	var p Product
	if err := c.getJSON(ctx, "apiproducts/"+name, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListApps returns all developer apps with their credentials.
func (c *Client) ListApps(ctx context.Context) ([]App, error) {
	var body struct {
		App []App `json:"app"`
	}
	if err := c.getJSON(ctx, "apps", "expand=true", &body); err != nil {
		return nil, err
	}
	return body.App, nil
}

func (c *Client) GetDeveloper(ctx context.Context, id string) (*Developer, error) {
	var d Developer
	if err := c.getJSON(ctx, "developers/"+id, "", &d); err != nil {
		return nil, err
	}
	return &d, nil
}
