package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/edgeadmin/edgeadmin/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEdgeUrl    = "https://api.enterprise.apigee.com"
	DefaultApigeeXUrl = "https://apigee.googleapis.com"
	DefaultSsoUrl     = "https://login.apigee.com"
	DefaultBaaSUrl    = "https://apibaas-trial.apigee.net"
)

var allowedLogLevels = map[string]log.Level{
	"debug": log.Debug,
	"info":  log.Info,
	"warn":  log.Warn,
	"error": log.Error,
}

type Config struct {
	Log        LogConfig
	Management ManagementConfig
	Portal     PortalConfig
	BaaS       BaaSConfig      `yaml:"baas"`
	HttpProxy  HttpProxyConfig `yaml:"http_proxy"`
	Diag       DiagConfig
	Sink       SinkConfig
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ManagementConfig struct {
	Url      string `yaml:"url"`
	Org      string `yaml:"org"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Netrc    bool   `yaml:"netrc"`
	Token    string `yaml:"token"`
	ApigeeX  bool   `yaml:"apigeex"`
	Sso      bool   `yaml:"sso"`
	SsoUrl   string `yaml:"sso_url"`
	Timeout  int    `yaml:"timeout"`
}

type PortalConfig struct {
	Url      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type BaaSConfig struct {
	Url          string `yaml:"url"`
	Org          string `yaml:"org"`
	App          string `yaml:"app"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	ClientId     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Anonymous    bool   `yaml:"anonymous"`
}

type HttpProxyConfig struct {
	Url string `yaml:"url"`
}

type DiagConfig struct {
	Port    int `yaml:"port"`
	Metrics MetricsConfig
	Traces  TraceConfig
}

type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
	Textfile    string `yaml:"textfile"`
}

type TraceConfig struct {
	Otlp OtlpExporterConfig
}

type OtlpExporterConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Protocol string `yaml:"protocol"`
	Endpoint string `yaml:"endpoint"`
}

type SinkConfig struct {
	Redis    RedisConfig
	MongoDb  MongoDbConfig  `yaml:"mongodb"`
	DynamoDb DynamoDbConfig `yaml:"dynamodb"`
}

type RedisConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addresses []string `yaml:"addresses"`
	DB        int      `yaml:"db"`
	User      string   `yaml:"user"`
	Password  string   `yaml:"password"`
}

type MongoDbConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Url        string `yaml:"url"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type DynamoDbConfig struct {
	Enabled bool   `yaml:"enabled"`
	Table   string `yaml:"table"`
	Url     string `yaml:"url"`
}

func LoadConfigFromFileAndEnvironment(filePath string) (Config, error) {
	var config Config
	config.setDefaults()

	if filePath != "" {
		_, err := os.Stat(filePath)
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config file %s does not exist: %s", filePath, err)
		}
		realPath, err := filepath.EvalSymlinks(filePath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to eval symlink for %s: %s", filePath, err)
		}
		data, err := os.ReadFile(realPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %s", realPath, err)
		}

		err = yaml.Unmarshal(data, &config)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML from config file %s: %s", realPath, err)
		}
	}

	config.loadEnv()
	if config.Log.GetLevel() == log.None {
		config.Log.Level = "warn"
	}
	return config, nil
}

func (l *LogConfig) GetLevel() log.Level {
	if lvl, ok := allowedLogLevels[l.Level]; ok {
		return lvl
	}
	return log.None
}

// BaseUrl is the management server address, defaulted by the API flavor.
func (m *ManagementConfig) BaseUrl() string {
	if m.Url != "" {
		return m.Url
	}
	if m.ApigeeX {
		return DefaultApigeeXUrl
	}
	return DefaultEdgeUrl
}

func (m *ManagementConfig) Host() (string, error) {
	u, err := url.Parse(m.BaseUrl())
	if err != nil {
		return "", fmt.Errorf("management: invalid server url %s: %s", m.BaseUrl(), err)
	}
	return u.Hostname(), nil
}

func (m *ManagementConfig) GetTimeout() time.Duration {
	return time.Duration(m.Timeout) * time.Second
}

func (m *MetricsConfig) IsEnabled() bool {
	return m.Pushgateway != "" || m.Textfile != ""
}

type baasJSONFile struct {
	Org          string `json:"org"`
	App          string `json:"app"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ClientId     string `json:"clientid"`
	ClientSecret string `json:"clientsecret"`
	URI          string `json:"URI"`
}

// LoadJSONFile fills the unset fields from a BaaS connection file
// ({"org":..,"app":..,"username":..,"password":..,"clientid":..,"clientsecret":..,"URI":..}).
func (b *BaaSConfig) LoadJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("baas: failed to read config file %s: %s", path, err)
	}
	var f baasJSONFile
	if err = json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("baas: failed to parse JSON from config file %s: %s", path, err)
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&b.Org, f.Org)
	fill(&b.App, f.App)
	fill(&b.User, f.Username)
	fill(&b.Password, f.Password)
	fill(&b.ClientId, f.ClientId)
	fill(&b.ClientSecret, f.ClientSecret)
	if f.URI != "" {
		b.Url = f.URI
	}
	return nil
}

func (c *Config) setDefaults() {
	c.Management.SsoUrl = DefaultSsoUrl
	c.Management.Timeout = 60

	c.BaaS.Url = DefaultBaaSUrl

	c.Diag.Metrics.Job = "edgeadmin"
	c.Diag.Traces.Otlp.Protocol = "http"

	c.Sink.Redis.DB = 0
	c.Sink.Redis.Addresses = []string{"localhost:6379"}

	c.Sink.MongoDb.Database = "edgeadmin"
	c.Sink.MongoDb.Collection = "entities"

	c.Sink.DynamoDb.Table = "edgeadmin_entities"
}
