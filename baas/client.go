// Package baas talks to the collections of an API BaaS (Usergrid) application.
package baas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/internal/httpclient"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const PageSize = 120

type StatusError struct {
	Method     string
	Url        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("baas: %s %s: unexpected status code %d", e.Method, e.Url, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Page is one response of a collection listing; an empty Cursor marks the last page.
type Page struct {
	Entities []map[string]any `json:"entities"`
	Cursor   string           `json:"cursor,omitempty"`
}

type Client struct {
	base string
	http *http.Client
	log  log.Logger
}

// NewClient authenticates against {url}/{org}/{app}/token with the password grant when a user
// is configured, with the client credentials grant when a client id is configured, and
// sends requests without a token when the access is anonymous.
func NewClient(conf *config.BaaSConfig, opts httpclient.Options) (*Client, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.NewNullLogger()
	}
	logger = logger.WithPrefix("baas")
	opts.Log = logger

	base := utils.JoinUrl(conf.Url, conf.Org, conf.App)
	transport := httpclient.Transport(opts, telemetry.NewKV("target", "baas"))
	tokenHttp := &http.Client{Transport: transport, Timeout: opts.Timeout}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenHttp)
	tokenUrl := utils.JoinUrl(base, "token")

	var rt http.RoundTripper
	switch {
	case conf.User != "":
		if conf.Password == "" {
			return nil, errors.New("baas: a password is required for " + conf.User)
		}
		src := &passwordGrantSource{
			conf: &oauth2.Config{
				Endpoint: oauth2.Endpoint{TokenURL: tokenUrl, AuthStyle: oauth2.AuthStyleInParams},
			},
			ctx:      tokenCtx,
			user:     conf.User,
			password: conf.Password,
		}
		rt = &oauth2.Transport{Source: oauth2.ReuseTokenSource(nil, src), Base: transport}
		logger.Debugf("using the password grant as %s", conf.User)
	case conf.ClientId != "":
		if conf.ClientSecret == "" {
			return nil, errors.New("baas: a client secret is required for " + conf.ClientId)
		}
		cc := &clientcredentials.Config{
			ClientID:     conf.ClientId,
			ClientSecret: conf.ClientSecret,
			TokenURL:     tokenUrl,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		rt = &oauth2.Transport{Source: cc.TokenSource(tokenCtx), Base: transport}
		logger.Debugf("using the client credentials grant as %s", utils.Obfuscate(conf.ClientId, 4))
	case conf.Anonymous:
		rt = transport
		logger.Debugf("using anonymous access")
	default:
		return nil, errors.New("baas: no credentials for the BaaS application")
	}
	return &Client{
		base: base,
		http: &http.Client{Transport: rt, Timeout: opts.Timeout},
		log:  logger,
	}, nil
}

type passwordGrantSource struct {
	conf     *oauth2.Config
	ctx      context.Context
	user     string
	password string
}

func (p *passwordGrantSource) Token() (*oauth2.Token, error) {
	token, err := p.conf.PasswordCredentialsToken(p.ctx, p.user, p.password)
	if err != nil {
		return nil, fmt.Errorf("baas: login failed: %w", err)
	}
	return token, nil
}

// GetPage reads up to PageSize entities of collection, starting at cursor.
func (c *Client) GetPage(ctx context.Context, collection string, cursor string) (*Page, error) {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(PageSize))
	if cursor != "" {
		values.Set("cursor", cursor)
	}
	data, err := c.do(ctx, http.MethodGet, utils.JoinUrl(c.base, collection)+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var page Page
	if err = json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("baas: invalid JSON response for %s: %w", collection, err)
	}
	return &page, nil
}

// CreateEntities posts entities as one JSON array into collection.
func (c *Client) CreateEntities(ctx context.Context, collection string, entities []map[string]any) error {
	body, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("baas: failed to encode entities: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, utils.JoinUrl(c.base, collection), body)
	return err
}

func (c *Client) DeleteEntity(ctx context.Context, collection string, uuid string) error {
	_, err := c.do(ctx, http.MethodDelete, utils.JoinUrl(c.base, collection, url.PathEscape(uuid)), nil)
	return err
}

func (c *Client) do(ctx context.Context, method string, u string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("baas: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("baas: %s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("baas: failed to read the response of %s %s: %w", method, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Url: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
