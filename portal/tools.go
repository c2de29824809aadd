package portal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/edgeadmin/edgeadmin/log"
	"github.com/edgeadmin/edgeadmin/prompt"
)

const DefaultUsersFile = "devportalusers.csv"

// Activate lists the users holding a mail and activates the ones picked by number until Q.
func Activate(ctx context.Context, c *Client, p prompt.Prompter, out io.Writer) error {
	all, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}
	users := slices.DeleteFunc(all, func(u User) bool { return u.Mail == "" })
	for {
		_, _ = fmt.Fprint(out, "\nusers:\n\n")
		for i := range users {
			_, _ = fmt.Fprintf(out, "  %2d %-28s  %-12s\n", i+1, users[i].Mail, statusLabel(&users[i]))
		}
		_, _ = fmt.Fprint(out, "\n")

		answer, err := p.Input("Activate which user? (Q to quit)", "")
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(answer)
		if strings.HasPrefix(strings.ToLower(answer), "q") {
			return nil
		}
		n, ok := parseIndex(answer, len(users))
		if !ok {
			_, _ = fmt.Fprintln(out, "That number is out of range.")
			continue
		}
		user := &users[n-1]
		if user.IsActive() {
			_, _ = fmt.Fprintf(out, "user %s is already active\n", user.Mail)
			continue
		}
		status, err := c.ActivateUser(ctx, user)
		if err != nil {
			return err
		}
		user.Status = status
	}
}

// ReadUsersFile reads a CSV file with the header username,email,first_name,last_name
// and optionally timezone and password. Rows missing a username or an email are skipped.
func ReadUsersFile(path string) ([]NewUser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("portal: the users file %s cannot be read: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("portal: failed to read the header of %s: %w", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"username", "email"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("portal: the users file %s has no %s column", path, required)
		}
	}
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	users := make([]NewUser, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("portal: failed to parse %s: %w", path, err)
		}
		u := NewUser{
			Username:  field(record, "username"),
			Email:     field(record, "email"),
			FirstName: field(record, "first_name"),
			LastName:  field(record, "last_name"),
			Timezone:  field(record, "timezone"),
			Password:  field(record, "password"),
		}
		if u.Username == "" || u.Email == "" {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// ProvisionResult counts the outcome of Provision.
type ProvisionResult struct {
	Created int
	Skipped int
}

// Provision creates the users whose mail and name are both unknown to the portal.
func Provision(ctx context.Context, c *Client, users []NewUser, logger log.Logger) (ProvisionResult, error) {
	var result ProvisionResult
	existing, err := c.ListUsers(ctx)
	if err != nil {
		return result, err
	}
	mails := make(map[string]struct{}, len(existing))
	names := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		mails[u.Mail] = struct{}{}
		names[u.Name] = struct{}{}
	}
	for _, u := range users {
		if _, ok := mails[u.Email]; ok {
			logger.Reportf("a user with email %s already exists, skipped", u.Email)
			result.Skipped++
			continue
		}
		if _, ok := names[u.Username]; ok {
			logger.Reportf("a user named %s already exists, skipped", u.Username)
			result.Skipped++
			continue
		}
		logger.Infof("create user: %s/%s", u.Username, u.Email)
		if _, err = c.CreateUser(ctx, u); err != nil {
			return result, err
		}
		mails[u.Email] = struct{}{}
		names[u.Username] = struct{}{}
		result.Created++
	}
	return result, nil
}
