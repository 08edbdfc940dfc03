package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the LearnHub backend.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
}

// AppConfig describes the deployment environment and public addresses.
type AppConfig struct {
	// Env is one of development, test, production.
	Env string `mapstructure:"env"`
	// BaseURL is the public address of the API itself.
	BaseURL string `mapstructure:"base_url"`
	// FrontendURL is the browser application origin.
	FrontendURL string `mapstructure:"frontend_url"`
}

// IsProduction reports whether the server runs with production hardening.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT          JWTSettings          `mapstructure:"jwt"`
	Google       GoogleSettings       `mapstructure:"google"`
	Verification VerificationSettings `mapstructure:"verification"`
}

// JWTSettings configures the access/refresh token pair.
type JWTSettings struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	Issuer        string        `mapstructure:"issuer"`
	AccessTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_token_ttl"`
}

// GoogleSettings configures the Google OAuth client.
type GoogleSettings struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// VerificationSettings controls email verification tokens.
type VerificationSettings struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// Secret is reserved for a future switch to signed verification links.
	Secret string `mapstructure:"secret"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// UploadsConfig controls image upload processing.
type UploadsConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
	MaxWidth int    `mapstructure:"max_width"`
	Quality  int    `mapstructure:"quality"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("LEARNHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate checks the settings a server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWT.AccessSecret == "" {
		return errors.New("config: auth.jwt.access_secret is required")
	}
	if c.Auth.JWT.RefreshSecret == "" {
		return errors.New("config: auth.jwt.refresh_secret is required")
	}
	if c.Auth.JWT.AccessSecret == c.Auth.JWT.RefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8000")
	v.SetDefault("app.frontend_url", "http://localhost:3000")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/learnhub.sqlite")

	v.SetDefault("auth.jwt.issuer", "learnhub")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.jwt.refresh_token_ttl", "720h") // 30 days
	v.SetDefault("auth.verification.token_ttl", "24h")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("uploads.dir", "./uploads/courses")
	v.SetDefault("uploads.max_bytes", 5<<20)
	v.SetDefault("uploads.max_width", 1200)
	v.SetDefault("uploads.quality", 80)
}

// bindLegacyEnv keeps the environment variable names earlier deployments
// shipped with working alongside the LEARNHUB_* scheme.
func bindLegacyEnv(v *viper.Viper) {
	aliases := map[string]string{
		"auth.jwt.access_secret":     "JWT_ACCESS_SECRET",
		"auth.jwt.refresh_secret":    "JWT_REFRESH_SECRET",
		"auth.jwt.access_token_ttl":  "JWT_ACCESS_EXPIRATION",
		"auth.jwt.refresh_token_ttl": "JWT_REFRESH_EXPIRATION",
		"auth.verification.secret":   "JWT_VERIFICATION_SECRET",
		"auth.google.client_id":      "GOOGLE_CLIENT_ID",
		"auth.google.client_secret":  "GOOGLE_CLIENT_SECRET",
		"auth.google.callback_url":   "GOOGLE_CALLBACK_URL",
		"app.base_url":               "APP_URL",
		"app.frontend_url":           "APP_FRONTEND_URL",
	}
	for key, env := range aliases {
		_ = v.BindEnv(key, "LEARNHUB_"+strings.ToUpper(strings.NewReplacer(".", "_").Replace(key)), env)
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
