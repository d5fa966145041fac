package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSessionSecret  = "default-secret-key-change-me"
	defaultApprovalSecret = "default-approval-secret-change-me"
)

var (
	ErrSessionSecretUnset  = errors.New("SESSION_SECRET must be set in release mode")
	ErrApprovalSecretUnset = errors.New("APPROVAL_SECRET must be set in release mode")
)

type Config struct {
	DBDriver      string `yaml:"dbDriver"`
	DBHost        string `yaml:"dbHost"`
	DBPort        string `yaml:"dbPort"`
	DBUser        string `yaml:"dbUser"`
	DBPassword    string `yaml:"-"`
	DBName        string `yaml:"dbName"`
	RedisHost     string `yaml:"redisHost"`
	RedisPort     string `yaml:"redisPort"`
	RedisPassword string `yaml:"-"`
	SessionSecret string `yaml:"-"`
	GinMode       string `yaml:"ginMode"`
	ServerPort    string `yaml:"serverPort"`
	LogLevel      string `yaml:"logLevel"`
	SentryDSN     string `yaml:"sentryDsn"`
	OpenAIAPIKey  string `yaml:"-"`

	// Mail relay
	SMTPHost     string `yaml:"smtpHost"`
	SMTPPort     int    `yaml:"smtpPort"`
	SMTPUsername string `yaml:"smtpUsername"`
	SMTPPassword string `yaml:"-"`
	MailFrom     string `yaml:"mailFrom"`
	MailQueueURL string `yaml:"mailQueueUrl"`
	MailQueue    string `yaml:"mailQueue"`

	// Admin approval
	PublicBaseURL      string        `yaml:"publicBaseUrl"`
	AdminApproverEmail string        `yaml:"adminApproverEmail"`
	ApprovalSecret     string        `yaml:"-"`
	ApprovalTTL        time.Duration `yaml:"approvalTtl"`

	// TaskAcceptMode is "delete" (accepted tasks are removed) or "complete"
	// (accepted tasks stay with status completed).
	TaskAcceptMode string `yaml:"taskAcceptMode"`
}

func Load() *Config {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			// Surface the problem without refusing to start; env values still apply.
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}
	cfg.applyEnv()
	return cfg
}

func defaults() *Config {
	return &Config{
		DBDriver:       "mysql",
		DBHost:         "localhost",
		DBPort:         "3306",
		DBUser:         "taskuser",
		DBPassword:     "taskpassword",
		DBName:         "task_management",
		RedisHost:      "localhost",
		RedisPort:      "6379",
		SessionSecret:  defaultSessionSecret,
		GinMode:        "debug",
		ServerPort:     "8080",
		LogLevel:       "info",
		SMTPHost:       "smtp.gmail.com",
		SMTPPort:       587,
		MailQueue:      "email_jobs",
		PublicBaseURL:  "http://localhost:8080",
		ApprovalSecret: defaultApprovalSecret,
		ApprovalTTL:    48 * time.Hour,
		TaskAcceptMode: "delete",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnv("REDIS_PORT", c.RedisPort)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SentryDSN = getEnv("SENTRY_DSN", c.SentryDSN)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvAsInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.MailFrom = getEnv("MAIL_FROM", c.MailFrom)
	if c.MailFrom == "" {
		c.MailFrom = c.SMTPUsername
	}
	c.MailQueueURL = getEnv("MAIL_QUEUE_URL", c.MailQueueURL)
	c.MailQueue = getEnv("MAIL_QUEUE", c.MailQueue)

	c.PublicBaseURL = getEnv("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.AdminApproverEmail = getEnv("ADMIN_APPROVER_EMAIL", c.AdminApproverEmail)
	if c.AdminApproverEmail == "" {
		c.AdminApproverEmail = c.MailFrom
	}
	c.ApprovalSecret = getEnv("APPROVAL_SECRET", c.ApprovalSecret)
	c.ApprovalTTL = getEnvAsDuration("APPROVAL_TTL", c.ApprovalTTL)
	c.TaskAcceptMode = getEnv("TASK_ACCEPT_MODE", c.TaskAcceptMode)
}

// Validate rejects settings the server must not run with. Outside release
// mode the built-in secrets are accepted for local development.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	var errs []error
	if c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret {
		errs = append(errs, ErrSessionSecretUnset)
	}
	if c.ApprovalSecret == "" || c.ApprovalSecret == defaultApprovalSecret {
		errs = append(errs, ErrApprovalSecretUnset)
	}
	return errors.Join(errs...)
}

// RedisAddr returns host:port for the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
