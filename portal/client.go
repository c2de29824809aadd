// Package portal drives the Drupal "services" REST endpoint of a developer portal.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/internal/httpclient"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/tidwall/gjson"
)

const administratorRole = "administrator"

type StatusError struct {
	Method     string
	Url        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("portal: %s %s: unexpected status code %d", e.Method, e.Url, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Session is the authenticated Drupal session returned by user/login.
type Session struct {
	Name      string
	Id        string
	Token     string
	FirstName string
	LastName  string
	Roles     []string
}

type Client struct {
	server   string
	user     string
	password string
	http     *http.Client
	log      log.Logger
	session  *Session
}

func NewClient(conf *config.PortalConfig, opts httpclient.Options) *Client {
	logger := opts.Log
	if logger == nil {
		logger = log.NewNullLogger()
	}
	opts.Log = logger.WithPrefix("portal")
	return &Client{
		server:   conf.Url,
		user:     conf.User,
		password: conf.Password,
		http:     httpclient.New(opts, telemetry.NewKV("target", "portal")),
		log:      opts.Log,
	}
}

// Login opens a session; the user must hold the administrator role.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(map[string]string{"username": c.user, "password": c.password})
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, c.url("user/login"), body)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(data)
	s := &Session{
		Name:      res.Get("session_name").String(),
		Id:        res.Get("sessid").String(),
		Token:     res.Get("token").String(),
		FirstName: res.Get("user.field_first_name.und.0.value").String(),
		LastName:  res.Get("user.field_last_name.und.0.value").String(),
	}
	if s.Name == "" || s.Id == "" || s.Token == "" {
		return nil, errors.New("portal: cannot find a valid session in the login response")
	}
	res.Get("user.roles").ForEach(func(_, role gjson.Result) bool {
		s.Roles = append(s.Roles, role.String())
		return true
	})
	c.session = s
	c.log.Debugf("session %s=%s token %s", s.Name, utils.Obfuscate(s.Id, 4), utils.Obfuscate(s.Token, 4))
	c.log.Reportf("logged in as: %s %s", s.FirstName, s.LastName)
	for _, r := range s.Roles {
		if r == administratorRole {
			return s, nil
		}
	}
	return s, fmt.Errorf("portal: %s is not an administrator, roles: %v", c.user, s.Roles)
}

func (c *Client) Logout(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, c.url("user/logout"), []byte{})
	c.session = nil
	return err
}

func (c *Client) url(path string, query ...string) string {
	u := utils.JoinUrl(c.server, path)
	if len(query) > 0 {
		values := url.Values{}
		for i := 0; i+1 < len(query); i += 2 {
			values.Set(query[i], query[i+1])
		}
		u += "?" + values.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method string, u string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("portal: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.Header.Set("Cookie", c.session.Name+"="+c.session.Id)
		req.Header.Set("X-CSRF-Token", c.session.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal: %s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("portal: failed to read the response of %s %s: %w", method, u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: method, Url: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func (c *Client) sendJSON(ctx context.Context, method string, u string, v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("portal: failed to encode request: %w", err)
	}
	return c.do(ctx, method, u, body)
}

func parseArray(data []byte, what string) (gjson.Result, error) {
	res := gjson.ParseBytes(data)
	if !gjson.ValidBytes(data) || !res.IsArray() {
		return res, fmt.Errorf("portal: unexpected response while reading %s", what)
	}
	return res, nil
}
