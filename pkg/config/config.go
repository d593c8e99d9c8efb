package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethpandaops/testreportoor/pkg/fsutil"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment variable override.
	EnvPrefix = "TESTREPORTOOR"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultLogsDir is where test run logs are looked up.
	DefaultLogsDir = "./logs"

	// DefaultReportsDir is where markdown reports are written and compared.
	DefaultReportsDir = "./reports"

	// DefaultSMTPPort is the submission port used when none is configured.
	DefaultSMTPPort = 587

	// DefaultSuiteName is used in notification subjects.
	DefaultSuiteName = "Test Suite"

	// DefaultUploadPrefix is the S3 key prefix for published reports.
	DefaultUploadPrefix = "reports"
)

// Config is the root configuration for testreportoor.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	Paths  PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Upload UploadConfig `yaml:"upload" mapstructure:"upload"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// PathsConfig locates the runner's logs and the generated reports.
type PathsConfig struct {
	LogsDir    string `yaml:"logs_dir" mapstructure:"logs_dir"`
	ReportsDir string `yaml:"reports_dir" mapstructure:"reports_dir"`
}

// ReportConfig controls how reports are written.
type ReportConfig struct {
	// Owner is an optional "UID:GID" applied to written reports.
	Owner string `yaml:"owner,omitempty" mapstructure:"owner"`
}

// NotifyConfig configures regression notifications.
type NotifyConfig struct {
	SuiteName  string     `yaml:"suite_name" mapstructure:"suite_name"`
	SMTP       SMTPConfig `yaml:"smtp" mapstructure:"smtp"`
	Recipients []string   `yaml:"recipients" mapstructure:"recipients"`
}

// SMTPConfig contains mail submission settings.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	// From defaults to User.
	From string `yaml:"from,omitempty" mapstructure:"from"`
	// Insecure allows delivery without STARTTLS or AUTH when the server
	// does not offer them.
	Insecure bool `yaml:"insecure,omitempty" mapstructure:"insecure"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c *NotifyConfig) Enabled() bool {
	return c.SMTP.Host != "" && c.SMTP.User != "" && c.SMTP.Password != ""
}

// UploadConfig contains report publishing settings.
type UploadConfig struct {
	S3 S3UploadConfig `yaml:"s3" mapstructure:"s3"`
}

// S3UploadConfig configures uploads to S3-compatible storage.
type S3UploadConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	StorageClass    string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL             string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// defaults lists every known key. Registering a key here is also what
// makes it visible to environment overrides.
var defaults = map[string]any{
	"global.log_level":            DefaultLogLevel,
	"paths.logs_dir":              DefaultLogsDir,
	"paths.reports_dir":           DefaultReportsDir,
	"report.owner":                "",
	"notify.suite_name":           DefaultSuiteName,
	"notify.recipients":           []string{},
	"notify.smtp.host":            "",
	"notify.smtp.port":            DefaultSMTPPort,
	"notify.smtp.user":            "",
	"notify.smtp.password":        "",
	"notify.smtp.from":            "",
	"notify.smtp.insecure":        false,
	"upload.s3.enabled":           false,
	"upload.s3.endpoint_url":      "",
	"upload.s3.region":            "",
	"upload.s3.bucket":            "",
	"upload.s3.access_key_id":     "",
	"upload.s3.secret_access_key": "",
	"upload.s3.force_path_style":  false,
	"upload.s3.prefix":            DefaultUploadPrefix,
	"upload.s3.storage_class":     "",
	"upload.s3.acl":               "",
}

// legacyEnv maps keys to the unprefixed variables the test runner
// environment already exports. Prefixed variables take precedence.
var legacyEnv = map[string]string{
	"notify.smtp.host":     "SMTP_HOST",
	"notify.smtp.port":     "SMTP_PORT",
	"notify.smtp.user":     "SMTP_USER",
	"notify.smtp.password": "SMTP_PASSWORD",
	"notify.recipients":    "EMAIL_RECIPIENTS",
}

// Load builds the configuration from defaults, the given YAML files
// (later files override earlier ones) and environment variables.
// No file is required; the environment alone is a valid source.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for _, path := range paths {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied config path
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("merging config file %s: %w", path, err)
	}

	return nil
}

// applyDefaults fills values that depend on other settings and cleans
// up list entries coming from comma separated environment values.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = DefaultLogsDir
	}

	if c.Paths.ReportsDir == "" {
		c.Paths.ReportsDir = DefaultReportsDir
	}

	if c.Notify.SuiteName == "" {
		c.Notify.SuiteName = DefaultSuiteName
	}

	if c.Notify.SMTP.Port == 0 {
		c.Notify.SMTP.Port = DefaultSMTPPort
	}

	if c.Notify.SMTP.From == "" {
		c.Notify.SMTP.From = c.Notify.SMTP.User
	}

	recipients := make([]string, 0, len(c.Notify.Recipients))

	for _, r := range c.Notify.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}

	c.Notify.Recipients = recipients

	if c.Upload.S3.Prefix == "" {
		c.Upload.S3.Prefix = DefaultUploadPrefix
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Notify.SMTP.Port < 1 || c.Notify.SMTP.Port > 65535 {
		return fmt.Errorf("notify.smtp.port %d is out of range", c.Notify.SMTP.Port)
	}

	if _, err := fsutil.ParseOwner(c.Report.Owner); err != nil {
		return fmt.Errorf("report.owner: %w", err)
	}

	if c.Upload.S3.Enabled && c.Upload.S3.Bucket == "" {
		return fmt.Errorf("upload.s3.bucket is required when s3 upload is enabled")
	}

	return nil
}
