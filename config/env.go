package config

import (
	"encoding/json"
	"os"
	"strconv"
)

var envPrefix = "EDGEADMIN"

var toInt = func(s string) (int, error) { return strconv.Atoi(s) }
var toBool = func(s string) (bool, error) { return strconv.ParseBool(s) }
var toStringSlice = func(s string) ([]string, error) {
	var r []string
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Config) loadEnv() {
	c.Log.loadEnv(envPrefix)
	c.Management.loadEnv(envPrefix)
	c.Portal.loadEnv(envPrefix)
	c.BaaS.loadEnv(envPrefix)
	c.HttpProxy.loadEnv(envPrefix)
	c.Diag.loadEnv(envPrefix)
	c.Sink.loadEnv(envPrefix)
}

func (l *LogConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "LOG")
	readEnvString(prefix, "LEVEL", &l.Level)
}

func (m *ManagementConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "MANAGEMENT")
	readEnvString(prefix, "URL", &m.Url)
	readEnvString(prefix, "ORG", &m.Org)
	readEnvString(prefix, "USER", &m.User)
	readEnvString(prefix, "PASSWORD", &m.Password)
	readEnvString(prefix, "TOKEN", &m.Token)
	readEnvString(prefix, "SSO_URL", &m.SsoUrl)
	readEnv(prefix, "NETRC", &m.Netrc, toBool)
	readEnv(prefix, "APIGEEX", &m.ApigeeX, toBool)
	readEnv(prefix, "SSO", &m.Sso, toBool)
	readEnv(prefix, "TIMEOUT", &m.Timeout, toInt)
}

func (p *PortalConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "PORTAL")
	readEnvString(prefix, "URL", &p.Url)
	readEnvString(prefix, "USER", &p.User)
	readEnvString(prefix, "PASSWORD", &p.Password)
}

func (b *BaaSConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "BAAS")
	readEnvString(prefix, "URL", &b.Url)
	readEnvString(prefix, "ORG", &b.Org)
	readEnvString(prefix, "APP", &b.App)
	readEnvString(prefix, "USER", &b.User)
	readEnvString(prefix, "PASSWORD", &b.Password)
	readEnvString(prefix, "CLIENT_ID", &b.ClientId)
	readEnvString(prefix, "CLIENT_SECRET", &b.ClientSecret)
	readEnv(prefix, "ANONYMOUS", &b.Anonymous, toBool)
}

func (h *HttpProxyConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "HTTP_PROXY")
	readEnvString(prefix, "URL", &h.Url)
}

func (d *DiagConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "DIAG")
	readEnv(prefix, "PORT", &d.Port, toInt)
	d.Metrics.loadEnv(prefix)
	d.Traces.loadEnv(prefix)
}

func (m *MetricsConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "METRICS")
	readEnvString(prefix, "PUSHGATEWAY", &m.Pushgateway)
	readEnvString(prefix, "JOB", &m.Job)
	readEnvString(prefix, "TEXTFILE", &m.Textfile)
}

func (t *TraceConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "TRACES")
	t.Otlp.loadEnv(prefix)
}

func (o *OtlpExporterConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "OTLP")
	readEnv(prefix, "ENABLED", &o.Enabled, toBool)
	readEnvString(prefix, "PROTOCOL", &o.Protocol)
	readEnvString(prefix, "ENDPOINT", &o.Endpoint)
}

func (s *SinkConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "SINK")
	s.Redis.loadEnv(prefix)
	s.MongoDb.loadEnv(prefix)
	s.DynamoDb.loadEnv(prefix)
}

func (r *RedisConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "REDIS")
	readEnv(prefix, "ENABLED", &r.Enabled, toBool)
	readEnv(prefix, "ADDRESSES", &r.Addresses, toStringSlice)
	readEnv(prefix, "DB", &r.DB, toInt)
	readEnvString(prefix, "USER", &r.User)
	readEnvString(prefix, "PASSWORD", &r.Password)
}

func (m *MongoDbConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "MONGODB")
	readEnv(prefix, "ENABLED", &m.Enabled, toBool)
	readEnvString(prefix, "URL", &m.Url)
	readEnvString(prefix, "DATABASE", &m.Database)
	readEnvString(prefix, "COLLECTION", &m.Collection)
}

func (d *DynamoDbConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "DYNAMODB")
	readEnv(prefix, "ENABLED", &d.Enabled, toBool)
	readEnvString(prefix, "TABLE", &d.Table)
	readEnvString(prefix, "URL", &d.Url)
}

func readEnv[T any](prefix string, key string, in *T, conv func(string) (T, error)) {
	if env := os.Getenv(prefix + "_" + key); env != "" {
		if r, err := conv(env); err == nil {
			*in = r
		}
	}
}

func readEnvString(prefix string, key string, in *string) {
	if env := os.Getenv(prefix + "_" + key); env != "" {
		*in = env
	}
}

func concatPrefix(p1 string, p2 string) string {
	return p1 + "_" + p2
}
