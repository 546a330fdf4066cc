package app

import (
	"os"
	"strings"

	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/envutil"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type Config struct {
	Port      string
	LogMode   string
	AdminUser string
	AdminPass string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:      envutil.String("PORT", "8080"),
		LogMode:   envutil.String("LOG_MODE", "development"),
		AdminUser: envutil.String("ADMIN_USER", ""),
		AdminPass: envutil.String("ADMIN_PASS", ""),
	}
	if cfg.AdminUser == "" || cfg.AdminPass == "" {
		log.Warn("ADMIN_USER/ADMIN_PASS not set, admin API disabled")
	}
	return cfg
}

// Validate fails fast on settings the pipeline cannot run without. Clients
// check their own keys too; this front-loads the common ones so a bad
// deploy dies at startup with one clear message.
func (c Config) Validate() error {
	for _, key := range []string{"OPENAI_API_KEY", "TELEGRAM_BOT_TOKEN"} {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			return &pkgerrors.ConfigError{Key: key}
		}
	}
	return nil
}

// AdminEnabled reports whether the admin surface should be mounted.
func (c Config) AdminEnabled() bool {
	return c.AdminUser != "" && c.AdminPass != ""
}
