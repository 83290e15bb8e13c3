package exporters

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported exporter types.
	TypeFile      = "file"
	TypeHTTP      = "http"
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"

	FormatText = "text"
	FormatJSON = "json"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// ErrNoExporters is returned when an exporters file declares nothing.
var ErrNoExporters = errors.New("exporters file contains no exporters entries")

type configFile struct {
	Exporters []ExporterConfig `json:"exporters" yaml:"exporters"`
}

// ExporterConfig represents a single exporter entry declared in config files.
type ExporterConfig struct {
	ID        string           `json:"id" yaml:"id"`
	Type      string           `json:"type" yaml:"type"`
	Enabled   *bool            `json:"enabled" yaml:"enabled"`
	File      *FileConfig      `json:"file" yaml:"file"`
	HTTP      *HTTPConfig      `json:"http" yaml:"http"`
	SQS       *SQSConfig       `json:"sqs" yaml:"sqs"`
	SNS       *SNSConfig       `json:"sns" yaml:"sns"`
	GCPPubSub *GCPPubSubConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// FileConfig writes each exported page into Dir.
type FileConfig struct {
	Dir    string `json:"dir" yaml:"dir"`
	Format string `json:"format" yaml:"format"`
}

// HTTPConfig holds generic webhook settings.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSConfig is shared by the SQS and SNS exporters.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSConfig holds AWS SQS specific settings.
type SQSConfig struct {
	AWSConfig `yaml:",inline"`
	QueueURL  string `json:"uri" yaml:"uri"`
}

// SNSConfig holds AWS SNS specific settings.
type SNSConfig struct {
	AWSConfig `yaml:",inline"`
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
}

// GCPPubSubConfig holds Google Cloud Pub/Sub settings.
type GCPPubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// ConfigRegistry holds the exporter definitions loaded from a config file.
type ConfigRegistry struct {
	exporters []ExporterConfig
	idx       map[string]ExporterConfig
}

// LoadRegistry loads the exporter registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("exporters file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exporters file: %w", err)
	}

	file, err := parseConfigFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewConfigRegistry(file.Exporters)
}

// NewConfigRegistry sanitizes and validates cfgs.
func NewConfigRegistry(cfgs []ExporterConfig) (*ConfigRegistry, error) {
	if len(cfgs) == 0 {
		return nil, ErrNoExporters
	}

	reg := &ConfigRegistry{
		exporters: make([]ExporterConfig, len(cfgs)),
		idx:       make(map[string]ExporterConfig, len(cfgs)),
	}
	for i := range cfgs {
		cfg := sanitizeConfig(cfgs[i])
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("exporters[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate exporter id %q", cfg.ID)
		}
		reg.exporters[i] = cfg
		reg.idx[cfg.ID] = cfg
	}
	return reg, nil
}

func parseConfigFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file configFile
		if err := d.fn(data, &file); err != nil {
			errs = append(errs, fmt.Errorf("decode %s exporters: %w", d.name, err))
			continue
		}
		return file, nil
	}
	if len(errs) == 0 {
		return configFile{}, fmt.Errorf("exporters file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return configFile{}, errors.Join(errs...)
}

func sanitizeConfig(cfg ExporterConfig) ExporterConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.File != nil {
		c := *cfg.File
		c.Dir = strings.TrimSpace(c.Dir)
		c.Format = strings.ToLower(strings.TrimSpace(c.Format))
		if c.Format == "" {
			c.Format = FormatText
		}
		cfg.File = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = strings.TrimSpace(c.QueueURL)
		c.AWSConfig = sanitizeAWS(c.AWSConfig)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		c.TopicARN = strings.TrimSpace(c.TopicARN)
		c.AWSConfig = sanitizeAWS(c.AWSConfig)
		cfg.SNS = &c
	}
	if cfg.GCPPubSub != nil {
		c := *cfg.GCPPubSub
		c.ProjectID = strings.TrimSpace(c.ProjectID)
		c.Topic = strings.TrimSpace(c.Topic)
		c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
		cfg.GCPPubSub = &c
	}
	return cfg
}

func sanitizeAWS(c AWSConfig) AWSConfig {
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	c.SessionToken = strings.TrimSpace(c.SessionToken)
	return c
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateConfig(cfg ExporterConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for exporter %q", cfg.ID)
	case TypeFile:
		if cfg.File == nil || cfg.File.Dir == "" {
			return fmt.Errorf("file.dir is required for exporter %q", cfg.ID)
		}
		if cfg.File.Format != FormatText && cfg.File.Format != FormatJSON {
			return fmt.Errorf("file.format %q not supported for exporter %q", cfg.File.Format, cfg.ID)
		}
	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for exporter %q", cfg.ID)
		}
	case TypeSQS:
		if cfg.SQS == nil || cfg.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.uri is required for exporter %q", cfg.ID)
		}
		if cfg.SQS.Region == "" {
			return fmt.Errorf("sqs.region is required for exporter %q", cfg.ID)
		}
	case TypeSNS:
		if cfg.SNS == nil || cfg.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for exporter %q", cfg.ID)
		}
		if cfg.SNS.Region == "" {
			return fmt.Errorf("sns.region is required for exporter %q", cfg.ID)
		}
	case TypeGCPPubSub:
		if cfg.GCPPubSub == nil || cfg.GCPPubSub.ProjectID == "" || cfg.GCPPubSub.Topic == "" {
			return fmt.Errorf("gcp_pubsub.project_id and gcp_pubsub.topic are required for exporter %q", cfg.ID)
		}
	}
	return nil
}

// ByID returns the exporter config by id.
func (r *ConfigRegistry) ByID(id string) (ExporterConfig, bool) {
	if r == nil {
		return ExporterConfig{}, false
	}
	cfg, ok := r.idx[strings.TrimSpace(id)]
	return cfg, ok
}

// All returns all configured exporters in file order.
func (r *ConfigRegistry) All() []ExporterConfig {
	if r == nil {
		return nil
	}
	out := make([]ExporterConfig, len(r.exporters))
	copy(out, r.exporters)
	return out
}

// Enabled returns exporters that are enabled.
func (r *ConfigRegistry) Enabled() []ExporterConfig {
	var out []ExporterConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (cfg ExporterConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
