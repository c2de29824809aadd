package edge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/internal/httpclient"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	ssoClientId     = "edgecli"
	ssoClientSecret = "edgeclisecret"
)

// Client talks to the management API of one organization.
type Client struct {
	server  string
	org     string
	apigeeX bool
	http    *http.Client
	log     log.Logger
}

// StatusError is returned for every response outside the 2xx range.
type StatusError struct {
	Method     string
	Url        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("edge: %s %s: unexpected status code %d", e.Method, e.Url, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsNotFound reports whether err is a 404 answer of the management server.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// NewClient builds a client for the configured organization. The credentials are
// picked in this order: bearer token, SSO password grant, basic auth.
func NewClient(conf *config.ManagementConfig, opts httpclient.Options) (*Client, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.NewNullLogger()
	}
	logger = logger.WithPrefix("edge")
	if opts.Timeout == 0 {
		opts.Timeout = conf.GetTimeout()
	}
	opts.Log = logger
	base := httpclient.Transport(opts, telemetry.NewKV("target", "management"))

	var transport http.RoundTripper
	switch {
	case conf.Token != "":
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conf.Token, TokenType: "Bearer"}),
			Base:   base,
		}
		logger.Debugf("using a bearer token %s", utils.Obfuscate(conf.Token, 4))
	case conf.Sso:
		if conf.User == "" || conf.Password == "" {
			return nil, fmt.Errorf("edge: SSO requires a user and a password")
		}
		src := &passwordGrantSource{
			conf: &oauth2.Config{
				ClientID:     ssoClientId,
				ClientSecret: ssoClientSecret,
				Endpoint: oauth2.Endpoint{
					TokenURL:  utils.JoinUrl(conf.SsoUrl, "oauth/token"),
					AuthStyle: oauth2.AuthStyleInHeader,
				},
			},
			user:     conf.User,
			password: conf.Password,
			http:     &http.Client{Transport: base, Timeout: opts.Timeout},
		}
		transport = &oauth2.Transport{Source: oauth2.ReuseTokenSource(nil, src), Base: base}
		logger.Debugf("using SSO at %s as %s", conf.SsoUrl, conf.User)
	case conf.User != "":
		transport = &basicAuthTransport{user: conf.User, password: conf.Password, base: base}
		logger.Debugf("using basic auth as %s", conf.User)
	default:
		return nil, fmt.Errorf("edge: no credentials for the management server")
	}

	return &Client{
		server:  conf.BaseUrl(),
		org:     conf.Org,
		apigeeX: conf.ApigeeX,
		http:    &http.Client{Transport: transport, Timeout: opts.Timeout},
		log:     logger,
	}, nil
}

// WithOrg returns a client sharing the credentials and transport of c for another organization.
func (c *Client) WithOrg(org string) *Client {
	return &Client{
		server:  c.server,
		org:     org,
		apigeeX: c.apigeeX,
		http:    c.http,
		log:     c.log,
	}
}

func (c *Client) Org() string {
	return c.org
}

func (c *Client) IsApigeeX() bool {
	return c.apigeeX
}

func (c *Client) orgUrl(path ...string) string {
	return utils.JoinUrl(append([]string{c.server, "v1/organizations", c.org}, path...)...)
}

// do sends one request; headers are key/value pairs overriding the JSON Accept header.
func (c *Client) do(ctx context.Context, method string, path string, query string, body io.Reader, headers ...string) ([]byte, error) {
	return c.send(ctx, method, path, query, 0, body, headers...)
}

// send accepts any 2xx answer when expected is 0, otherwise only expected.
func (c *Client) send(ctx context.Context, method string, path string, query string, expected int, body io.Reader, headers ...string) ([]byte, error) {
	u := c.orgUrl(path)
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("edge: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	c.log.Debugf("%s %s", method, u)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edge: %s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("edge: failed to read the response of %s %s: %w", method, u, err)
	}
	if (expected == 0 && (resp.StatusCode < 200 || resp.StatusCode > 299)) || (expected != 0 && resp.StatusCode != expected) {
		return nil, &StatusError{Method: method, Url: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, path string, query string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, query string, v interface{}) error {
	data, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	return decode(data, path, v)
}

// getNames reads a list endpoint. Edge answers with an array of names, X with an
// object holding an array of {"name": ...} under key.
func (c *Client) getNames(ctx context.Context, path string, key string) ([]string, error) {
	data, err := c.get(ctx, path, "")
	if err != nil {
		return nil, err
	}
	return decodeNames(data, path, key)
}

func decode(data []byte, path string, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("edge: failed to decode the response for %s: %w", path, err)
	}
	return nil
}

func decodeNames(data []byte, path string, key string) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("edge: invalid JSON response for %s", path)
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		res = res.Get(key)
	}
	names := make([]string, 0)
	res.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			names = append(names, value.Get("name").String())
		} else {
			names = append(names, value.String())
		}
		return true
	})
	return names, nil
}

// encodeQuery escapes like a browser's encodeURIComponent, spaces become %20.
func encodeQuery(pairs ...string) string {
	var sb strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(pairs[i])
		sb.WriteByte('=')
		sb.WriteString(strings.ReplaceAll(url.QueryEscape(pairs[i+1]), "+", "%20"))
	}
	return sb.String()
}

// LatestRevision picks the numerically highest revision, ignoring non-numeric names
// unless nothing else is there.
func LatestRevision(revisions []string) string {
	if len(revisions) == 0 {
		return ""
	}
	sorted := append([]string(nil), revisions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, errA := strconv.Atoi(sorted[i])
		b, errB := strconv.Atoi(sorted[j])
		if errA != nil || errB != nil {
			return errA != nil && errB == nil
		}
		return a < b
	})
	return sorted[len(sorted)-1]
}

type basicAuthTransport struct {
	user     string
	password string
	base     http.RoundTripper
}

func (b *basicAuthTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	req := r.Clone(r.Context())
	req.SetBasicAuth(b.user, b.password)
	return b.base.RoundTrip(req)
}

type passwordGrantSource struct {
	conf     *oauth2.Config
	user     string
	password string
	http     *http.Client
}

func (p *passwordGrantSource) Token() (*oauth2.Token, error) {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.http)
	token, err := p.conf.PasswordCredentialsToken(ctx, p.user, p.password)
	if err != nil {
		return nil, fmt.Errorf("edge: SSO login failed: %w", err)
	}
	return token, nil
}
