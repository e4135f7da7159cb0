package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

// VAPIDEnv is the application server identity used to sign every push.
type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY" required:"true"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY" required:"true"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"admin@example.com"`
}

type PushEnv struct {
	TTL     int           `envconfig:"PUSH_TTL" default:"86400"`
	Timeout time.Duration `envconfig:"PUSH_TIMEOUT" default:"10s"`
}

type Env struct {
	BaseEnv
	VAPIDEnv
	PushEnv
}

const namespace = "PUSHRELAY"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

// Subject is the "sub" claim of the VAPID token.
func (e *VAPIDEnv) Subject() string {
	c := strings.TrimSpace(e.VAPIDContact)
	if strings.HasPrefix(c, "mailto:") || strings.HasPrefix(c, "https:") {
		return c
	}
	return "mailto:" + c
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}

func PushEnvFromEnv(env *Env) *PushEnv {
	return &env.PushEnv
}
