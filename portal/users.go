package portal

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/tidwall/gjson"
)

const (
	usersPageSize   = "300"
	defaultTimezone = "America/Los_Angeles"
)

type User struct {
	Uid    string
	Name   string
	Mail   string
	Status int
	Uri    string
}

func (u *User) IsActive() bool {
	return u.Status == 1
}

type NewUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Timezone  string
	Password  string
}

type fieldItem struct {
	Value string `json:"value"`
}

type fieldValue struct {
	Und []fieldItem `json:"und"`
}

func newFieldValue(v string) *fieldValue {
	return &fieldValue{Und: []fieldItem{{Value: v}}}
}

type createUserRequest struct {
	Name      string      `json:"name"`
	Mail      string      `json:"mail"`
	Pass      string      `json:"pass"`
	Status    int         `json:"status"`
	Timezone  string      `json:"timezone"`
	FirstName *fieldValue `json:"field_first_name,omitempty"`
	LastName  *fieldValue `json:"field_last_name,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	data, err := c.do(ctx, http.MethodGet, c.url("user", "pagesize", usersPageSize), nil)
	if err != nil {
		return nil, err
	}
	res, err := parseArray(data, "users")
	if err != nil {
		return nil, err
	}
	users := make([]User, 0)
	res.ForEach(func(_, u gjson.Result) bool {
		users = append(users, User{
			Uid:    u.Get("uid").String(),
			Name:   u.Get("name").String(),
			Mail:   u.Get("mail").String(),
			Status: int(u.Get("status").Int()),
			Uri:    u.Get("uri").String(),
		})
		return true
	})
	return users, nil
}

// ActivateUser sets the status of the user to active and returns the new status.
func (c *Client) ActivateUser(ctx context.Context, user *User) (int, error) {
	u := user.Uri
	if u == "" {
		u = c.url("user/" + user.Uid)
	}
	data, err := c.sendJSON(ctx, http.MethodPut, u, map[string]string{"status": "1"})
	if err != nil {
		return 0, err
	}
	status := gjson.GetBytes(data, "status")
	if !status.Exists() {
		return 1, nil
	}
	return int(status.Int()), nil
}

// CreateUser creates an active user and asks Drupal to mail a password reset link.
func (c *Client) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	req := createUserRequest{
		Name:     user.Username,
		Mail:     user.Email,
		Pass:     user.Password,
		Status:   1,
		Timezone: user.Timezone,
	}
	if req.Name == "" {
		req.Name = user.Email
	}
	if req.Pass == "" {
		req.Pass = utils.RandomPassword()
	}
	if req.Timezone == "" {
		req.Timezone = defaultTimezone
	}
	if user.FirstName != "" {
		req.FirstName = newFieldValue(user.FirstName)
	}
	if user.LastName != "" {
		req.LastName = newFieldValue(user.LastName)
	}
	data, err := c.sendJSON(ctx, http.MethodPost, c.url("user"), req)
	if err != nil {
		return nil, err
	}
	created := &User{
		Uid:    gjson.GetBytes(data, "uid").String(),
		Name:   req.Name,
		Mail:   req.Mail,
		Status: 1,
		Uri:    gjson.GetBytes(data, "uri").String(),
	}
	if created.Uri == "" {
		if created.Uid == "" {
			return nil, fmt.Errorf("portal: no uid for the created user %s", req.Name)
		}
		created.Uri = c.url("user/" + created.Uid)
	}
	if _, err = c.sendJSON(ctx, http.MethodPost, utils.JoinUrl(created.Uri, "password_reset"), struct{}{}); err != nil {
		return created, fmt.Errorf("portal: password reset for %s failed: %w", req.Name, err)
	}
	return created, nil
}

func statusLabel(u *User) string {
	if u.IsActive() {
		return "active"
	}
	return "not active"
}

func parseIndex(s string, max int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}
