// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/stratandtax/expedientesapi/pkg/utils/zaplogger"
)

// Config represents the application configuration
type Config struct {
	APIName          string `env:"EXP_API_APP_NAME"`
	APIVersion       string `env:"EXP_API_APP_VERSION"`
	ServerPort       string `env:"EXP_API_SERVER_PORT"`
	ServerLogLevel   string `env:"EXP_API_SERVER_LOG_LEVEL"`
	PostgresDsn      string `env:"EXP_API_PG_DSN"`
	PostgresLogLevel string `env:"EXP_API_PG_LOG_LEVEL"`
	RedisHost        string `env:"EXP_API_REDIS_HOST"`
	RedisPort        string `env:"EXP_API_REDIS_PORT"`
	RedisPassword    string `env:"EXP_API_REDIS_PASSWORD,optional"`
	SMTPHost         string `env:"EXP_API_SMTP_HOST"`
	SMTPPort         string `env:"EXP_API_SMTP_PORT"`
	SMTPUser         string `env:"EXP_API_SMTP_USER"`
	SMTPPassword     string `env:"EXP_API_SMTP_PASS"`
	MailTo           string `env:"EXP_API_MAIL_TO"`
	MailReportTo     string `env:"EXP_API_MAIL_REPORT_TO"`
	AdminUser        string `env:"EXP_API_ADMIN_USER"`
	AdminPass        string `env:"EXP_API_ADMIN_PASS"`
	AdminUser2       string `env:"EXP_API_ADMIN_USER2,optional"`
	AdminPass2       string `env:"EXP_API_ADMIN_PASS2,optional"`
	AdminUser3       string `env:"EXP_API_ADMIN_USER3,optional"`
	AdminPass3       string `env:"EXP_API_ADMIN_PASS3,optional"`
	TemplatesDir     string `env:"EXP_API_TEMPLATES_DIR,optional"`
	UploadsDir       string `env:"EXP_API_UPLOADS_DIR,optional"`
	ServicesFile     string `env:"EXP_API_SERVICES_FILE,optional"`
	ResponseMode     string `env:"EXP_API_RESPONSE_MODE,optional"`
	MaxUploadMB      string `env:"EXP_API_MAX_UPLOAD_MB,optional"`
}

var (
	SingleLine string = "--------------------------------------------------"
)

var (
	instance *Config
	once     sync.Once
	err      error
)

// Get returns the application configuration
func Get() (*Config, error) {
	zaplogger.Info(SingleLine)
	zaplogger.Info("Loading Configuration")

	once.Do(func() {
		instance, err = loadConfig()
	})
	return instance, err
}

// loadConfig loads configuration from environment variables
func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(c).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return fmt.Errorf("missing env tag for field %s", field.Name)
		}

		name, optional := parseEnvTag(envTag)
		value := os.Getenv(name)
		if value == "" && !optional {
			return fmt.Errorf("env variable %s is required but not set", name)
		}

		v.Field(i).SetString(value)
	}

	return nil
}

// parseEnvTag splits an env tag into its variable name and optional marker
func parseEnvTag(tag string) (string, bool) {
	parts := strings.Split(tag, ",")
	name := parts[0]
	for _, opt := range parts[1:] {
		if opt == "optional" {
			return name, true
		}
	}
	return name, false
}

func (c *Config) applyDefaults() {
	if c.TemplatesDir == "" {
		c.TemplatesDir = "template_word"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "uploads"
	}
	if c.ResponseMode == "" {
		c.ResponseMode = "json"
	}
	if c.MaxUploadMB == "" {
		c.MaxUploadMB = "15"
	}
}

// AdminPairs returns the configured admin username/password pairs
func (c *Config) AdminPairs() map[string]string {
	pairs := map[string]string{}
	if c.AdminUser != "" {
		pairs[c.AdminUser] = c.AdminPass
	}
	if c.AdminUser2 != "" {
		pairs[c.AdminUser2] = c.AdminPass2
	}
	if c.AdminUser3 != "" {
		pairs[c.AdminUser3] = c.AdminPass3
	}
	return pairs
}

// MailRecipients returns the expediente recipient list
func (c *Config) MailRecipients() []string {
	var recipients []string
	for _, addr := range strings.Split(c.MailTo, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

// MaxUploadBytes returns the upload size cap in bytes
func (c *Config) MaxUploadBytes() int64 {
	mb, err := strconv.ParseInt(c.MaxUploadMB, 10, 64)
	if err != nil || mb <= 0 {
		mb = 15
	}
	return mb * 1024 * 1024
}

// SMTPPortNumber returns the SMTP port as an int
func (c *Config) SMTPPortNumber() int {
	port, err := strconv.Atoi(c.SMTPPort)
	if err != nil || port <= 0 {
		port = 587
	}
	return port
}

// String returns the configuration as a string
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n--------------------------------------\n")
	sb.WriteString("Configuration:\n")
	sb.WriteString("--------------------------------------\n")

	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(*c)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i).String()

		// Mask sensitive fields
		value = maskSensitiveField(field.Name, value)
		sb.WriteString(fmt.Sprintf("  %s:  %s\n", field.Name, value))
	}

	sb.WriteString("--------------------------------------\n")

	return sb.String()
}

func maskSensitiveField(fieldName, value string) string {
	sensitiveFields := []string{"token", "dsn", "secret", "password", "pass", "url"}

	fieldNameLower := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldNameLower, sensitive) {
			return maskValue(value)
		}
	}

	return value
}

func maskValue(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}
