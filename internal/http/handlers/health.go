package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /health/env reports which required settings are present. Booleans
// only; values never leave the process.
func (h *HealthHandler) EnvCheck(c *gin.Context) {
	set := func(key string) bool {
		return strings.TrimSpace(os.Getenv(key)) != ""
	}
	c.JSON(http.StatusOK, gin.H{
		"OPENAI_API_KEY":     set("OPENAI_API_KEY"),
		"TELEGRAM_BOT_TOKEN": set("TELEGRAM_BOT_TOKEN"),
		"POSTGRES_URL":       set("POSTGRES_URL"),
		"REDIS_ADDR":         set("REDIS_ADDR"),
		"ADMIN_USER":         set("ADMIN_USER"),
		"ADMIN_PASS":         set("ADMIN_PASS"),
	})
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "Casino Support Telegram Bot"})
}
