package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all app-wide settings. It is populated once at startup from
// the environment (and an optional .env file) and read everywhere else.
type Config struct {
	AppName string
	Env     string // DEV (local; default), TEST, QA, PROD
	Debug   bool
	Build   string

	// BaseURL is the school-management backend origin, e.g. http://localhost:8069.
	BaseURL string
	// SessionCookie is the cookie name carrying the session token.
	SessionCookie string
	// RequestTimeout bounds every HTTP call to the backend.
	RequestTimeout time.Duration

	// StateDir holds the two persisted entries (session token, cached profile).
	StateDir string

	RollbarToken string
}

var Conf *Config

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "EduSync Parent Portal")
	v.SetDefault("build", "dev")
	v.SetDefault("baseURL", "http://localhost:8069")
	v.SetDefault("sessionCookie", "session_id")
	v.SetDefault("requestTimeout", 30*time.Second)
	v.SetDefault("stateDir", defaultStateDir())
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
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

	Conf = &Config{
		AppName:        v.GetString("appName"),
		Env:            env,
		Debug:          v.GetBool("debug"),
		Build:          v.GetString("build"),
		BaseURL:        v.GetString("baseURL"),
		SessionCookie:  v.GetString("sessionCookie"),
		RequestTimeout: v.GetDuration("requestTimeout"),
		StateDir:       v.GetString("stateDir"),
		RollbarToken:   v.GetString("rollbarToken"),
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "edusync-portal")
	}
	return ".edusync-portal"
}
