package app

import (
	iauth "github.com/yudhapratama/learnhub/internal/auth"
	"github.com/yudhapratama/learnhub/internal/database"
	"github.com/yudhapratama/learnhub/internal/handlers"
	"github.com/yudhapratama/learnhub/internal/uploads"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/mail"
)

// ConfigureLogging initialises the global logger from configuration.
func ConfigureLogging(cfg *Config) error {
	return logger.Init(cfg.Server.LogLevel)
}

// TokenConfig converts configuration into the token service settings.
func (c *Config) TokenConfig() iauth.TokenConfig {
	return iauth.TokenConfig{
		AccessSecret:  c.Auth.JWT.AccessSecret,
		RefreshSecret: c.Auth.JWT.RefreshSecret,
		Issuer:        c.Auth.JWT.Issuer,
		AccessTTL:     c.Auth.JWT.AccessTTL,
		RefreshTTL:    c.Auth.JWT.RefreshTTL,
	}
}

// GoogleConfig converts configuration into the OAuth provider settings.
func (c *Config) GoogleConfig() iauth.GoogleConfig {
	return iauth.GoogleConfig{
		ClientID:     c.Auth.Google.ClientID,
		ClientSecret: c.Auth.Google.ClientSecret,
		RedirectURL:  c.Auth.Google.CallbackURL,
	}
}

// DatabaseConfig converts configuration into connection options.
func (c *Config) DatabaseConfig() database.Config {
	cfg := database.Config{
		Driver: c.Database.Driver,
		Path:   c.Database.Path,
		DSN:    c.Database.DSN,
	}

	switch c.Database.Driver {
	case "postgres":
		cfg.Host = c.Database.Postgres.Host
		cfg.Port = c.Database.Postgres.Port
		cfg.Name = c.Database.Postgres.Database
		cfg.User = c.Database.Postgres.Username
		cfg.Password = c.Database.Postgres.Password
	case "mysql":
		cfg.Host = c.Database.MySQL.Host
		cfg.Port = c.Database.MySQL.Port
		cfg.Name = c.Database.MySQL.Database
		cfg.User = c.Database.MySQL.Username
		cfg.Password = c.Database.MySQL.Password
	}

	return cfg
}

// SMTPSettings converts configuration into mailer settings.
func (c *Config) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.Email.SMTP.Enabled,
		Host:     c.Email.SMTP.Host,
		Port:     c.Email.SMTP.Port,
		Username: c.Email.SMTP.Username,
		Password: c.Email.SMTP.Password,
		From:     c.Email.SMTP.From,
		UseTLS:   c.Email.SMTP.UseTLS,
		Timeout:  c.Email.SMTP.Timeout,
	}
}

// UploadsConfig converts configuration into the upload service settings.
func (c *Config) UploadsServiceConfig() uploads.Config {
	return uploads.Config{
		Dir:      c.Uploads.Dir,
		MaxBytes: c.Uploads.MaxBytes,
		MaxWidth: c.Uploads.MaxWidth,
		Quality:  c.Uploads.Quality,
	}
}

// CookieConfig derives session cookie attributes. Cookie lifetimes track the
// token lifetimes, and Secure is forced on in production.
func (c *Config) CookieConfig(tokens *iauth.TokenService) handlers.CookieConfig {
	return handlers.CookieConfig{
		Secure:        c.App.IsProduction(),
		AccessMaxAge:  int(tokens.AccessTTL().Seconds()),
		RefreshMaxAge: int(tokens.RefreshTTL().Seconds()),
	}
}
