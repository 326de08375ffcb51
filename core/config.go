package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName       string
		Env           string // DEV (local; default), TEST, QA, PROD
		Build         string
		Debug         bool
		TestMode      bool
		RollbarToken  string
		TemplateEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Fanout   FanoutConfig
		Mail     MailConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine string // sqlite3 | postgres
		Path   string // sqlite file
		URL    string // postgres dsn
	}

	MailConfig struct {
		FromName        string
		FromAddress     string
		SendgridAPIKey  string
		FrontendBaseURL string
	}

	// FanoutConfig tunes the per-student writes of multi-document operations.
	FanoutConfig struct {
		MaxAttempts  int
		InitialDelay time.Duration
		MaxDelay     time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Speakmate")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("templateEmail", "template")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("databaseEngine", "sqlite3")
	v.SetDefault("databasePath", "speakmate.db")
	v.SetDefault("databaseUrl", "")
	v.SetDefault("fanoutMaxAttempts", 3)
	v.SetDefault("fanoutInitialDelay", 50*time.Millisecond)
	v.SetDefault("fanoutMaxDelay", 2*time.Second)
	v.SetDefault("mailFromName", "Speakmate")
	v.SetDefault("mailFromAddress", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:       v.GetString("appName"),
		Env:           env,
		Build:         v.GetString("build"),
		Debug:         v.GetBool("debug"),
		TestMode:      v.GetBool("testMode"),
		RollbarToken:  v.GetString("rollbarToken"),
		TemplateEmail: v.GetString("templateEmail"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Address:         v.GetString("serverAddress"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine: strings.ToLower(v.GetString("databaseEngine")),
			Path:   v.GetString("databasePath"),
			URL:    v.GetString("databaseUrl"),
		},
		Fanout: FanoutConfig{
			MaxAttempts:  v.GetInt("fanoutMaxAttempts"),
			InitialDelay: v.GetDuration("fanoutInitialDelay"),
			MaxDelay:     v.GetDuration("fanoutMaxDelay"),
		},
		Mail: MailConfig{
			FromName:        v.GetString("mailFromName"),
			FromAddress:     v.GetString("mailFromAddress"),
			SendgridAPIKey:  v.GetString("sendgridApiKey"),
			FrontendBaseURL: v.GetString("frontendBaseUrl"),
		},
	}
}

// DefaultFromEmail is the sender of every outgoing email.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Mail.FromName, Address: c.Mail.FromAddress}
}
