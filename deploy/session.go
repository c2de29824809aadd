package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/prompt"
)

const (
	CacheFile = ".cached-responses.json"

	VariantEdge = "Edge"
	VariantX    = "X/hybrid"
)

// Session holds the connection answers remembered between runs.
type Session struct {
	Variant string `json:"variant"`
	Org     string `json:"org"`
	Token   string `json:"token"`
}

// LoadSession reads the cached answers; a missing file gives an empty session.
func LoadSession(path string) (Session, error) {
	var s Session
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("deploy: failed to read %s: %s", path, err)
	}
	if err = json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("deploy: failed to parse %s: %s", path, err)
	}
	return s, nil
}

func (s Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (s Session) IsApigeeX() bool {
	return s.Variant != VariantEdge
}

// ManagementConfig turns the answers into the settings of a management client.
func (s Session) ManagementConfig(base config.ManagementConfig) config.ManagementConfig {
	base.Org = s.Org
	base.Token = s.Token
	base.ApigeeX = s.IsApigeeX()
	if s.IsApigeeX() {
		base.Url = config.DefaultApigeeXUrl
	}
	return base
}

// TokenFunc produces the default access token offered for X/hybrid.
type TokenFunc func(ctx context.Context) string

// GcloudToken runs gcloud auth print-access-token; any output on stderr means no token.
func GcloudToken(ctx context.Context) string {
	cmd := exec.CommandContext(ctx, "gcloud", "auth", "print-access-token")
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil || strings.TrimSpace(stderr.String()) != "" {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// AskSession prompts for the variant, the org and the token, each defaulted from cached.
func AskSession(ctx context.Context, p prompt.Prompter, cached Session, token TokenFunc) (Session, error) {
	var s Session
	var err error
	if s.Variant, err = p.Select("Edge or X/hybrid?", []string{VariantEdge, VariantX}, cached.Variant); err != nil {
		return s, err
	}
	if s.Org, err = p.Input("organization name?", cached.Org); err != nil {
		return s, err
	}
	def := cached.Token
	if s.IsApigeeX() && token != nil {
		def = token(ctx)
	}
	if s.Token, err = p.Input("token?", def); err != nil {
		return s, err
	}
	if s.Org == "" {
		return s, errors.New("deploy: an organization is required")
	}
	if s.Token == "" {
		return s, errors.New("deploy: a token is required")
	}
	return s, nil
}
