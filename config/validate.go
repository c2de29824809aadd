package config

import (
	"fmt"
	"net/url"
)

func (c *Config) Validate() error {
	if c.Diag.Port < 0 || c.Diag.Port > 65535 {
		return fmt.Errorf("diag: invalid port %d", c.Diag.Port)
	}
	if err := c.Diag.Traces.Otlp.validate(); err != nil {
		return err
	}
	if err := c.Sink.validate(); err != nil {
		return err
	}
	if c.HttpProxy.Url != "" {
		if _, err := url.Parse(c.HttpProxy.Url); err != nil {
			return fmt.Errorf("http-proxy: invalid url: %s", err)
		}
	}
	return nil
}

func (m *ManagementConfig) Validate() error {
	if m.Org == "" {
		return fmt.Errorf("management: organization is required")
	}
	if _, err := url.ParseRequestURI(m.BaseUrl()); err != nil {
		return fmt.Errorf("management: invalid server url: %s", err)
	}
	if m.ApigeeX && m.Token == "" {
		return fmt.Errorf("management: a token is required for Apigee X/hybrid")
	}
	if m.Token == "" && m.User == "" && !m.Netrc {
		return fmt.Errorf("management: a user, a token or netrc credentials are required")
	}
	if m.Sso && m.SsoUrl == "" {
		return fmt.Errorf("management: SSO requires an sso url")
	}
	if m.Timeout < 1 {
		return fmt.Errorf("management: timeout must be at least 1 second")
	}
	return nil
}

func (p *PortalConfig) Validate() error {
	if p.Url == "" {
		return fmt.Errorf("portal: server url is required")
	}
	if _, err := url.ParseRequestURI(p.Url); err != nil {
		return fmt.Errorf("portal: invalid server url: %s", err)
	}
	if p.User == "" {
		return fmt.Errorf("portal: user is required")
	}
	return nil
}

func (b *BaaSConfig) Validate() error {
	if b.Org == "" {
		return fmt.Errorf("baas: organization is required")
	}
	if b.App == "" {
		return fmt.Errorf("baas: application is required")
	}
	if b.Url == "" {
		return fmt.Errorf("baas: endpoint is required")
	}
	if b.Anonymous {
		return nil
	}
	if b.User == "" && b.ClientId == "" {
		return fmt.Errorf("baas: credentials are required, either user/password or client id/secret (or use anonymous access)")
	}
	return nil
}

func (o *OtlpExporterConfig) validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Protocol != "grpc" && o.Protocol != "http" && o.Protocol != "https" {
		return fmt.Errorf("otlp: invalid protocol, it must be 'grpc', 'http' or 'https'")
	}
	return nil
}

func (s *SinkConfig) validate() error {
	enabled := 0
	if s.Redis.Enabled {
		enabled++
		if len(s.Redis.Addresses) == 0 {
			return fmt.Errorf("redis: at least 1 server address required")
		}
	}
	if s.MongoDb.Enabled {
		enabled++
		if s.MongoDb.Url == "" {
			return fmt.Errorf("mongodb: invalid connection string")
		}
		if s.MongoDb.Database == "" {
			return fmt.Errorf("mongodb: database name is required")
		}
		if s.MongoDb.Collection == "" {
			return fmt.Errorf("mongodb: collection name is required")
		}
	}
	if s.DynamoDb.Enabled {
		enabled++
		if s.DynamoDb.Table == "" {
			return fmt.Errorf("dynamodb: table name is required")
		}
	}
	if enabled > 1 {
		return fmt.Errorf("sink: only one export sink can be enabled at a time")
	}
	return nil
}
