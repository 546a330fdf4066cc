package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/ctxutil"
	"github.com/yungbote/support-bot-backend/internal/platform/envutil"
	"github.com/yungbote/support-bot-backend/internal/platform/httpx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

// Client is the outbound Telegram Bot API surface.
type Client interface {
	// SendMessage delivers text to a chat and returns the platform-assigned
	// message id for audit linkage.
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
}

type Config struct {
	BotToken   string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BotToken:   strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		BaseURL:    envutil.String("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		Timeout:    envutil.DurationSeconds("TELEGRAM_TIMEOUT_SECONDS", 10*time.Second),
		MaxRetries: envutil.Int("TELEGRAM_MAX_RETRIES", 2),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("missing TELEGRAM_BOT_TOKEN")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &client{
		log:        log.With("service", "TelegramClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

func (c *client) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	req := sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	backoff := 500 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return 0, &errors.SendError{Err: ctx.Err()}
		}

		id, resp, err := c.sendOnce(ctx, req)
		if err == nil {
			return id, nil
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			break
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("Telegram sendMessage retrying",
			"chat_id", chatID,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-time.After(sleepFor):
		case <-ctx.Done():
			return 0, &errors.SendError{Err: ctx.Err()}
		}
		backoff *= 2
	}

	return 0, lastErr
}

type apiError struct {
	Status int
	Desc   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram api error (%d): %s", e.Status, e.Desc)
}

func (e *apiError) HTTPStatusCode() int { return e.Status }

func (c *client) sendOnce(ctx context.Context, body sendMessageRequest) (int64, *http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, &errors.SendError{Err: err}
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.cfg.BaseURL, c.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), "POST", url, &buf)
	if err != nil {
		return 0, nil, &errors.SendError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &errors.SendError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, resp, &errors.SendError{Status: resp.StatusCode, Err: err}
	}

	var parsed sendMessageResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !parsed.OK {
		return 0, resp, &errors.SendError{
			Status: resp.StatusCode,
			Err:    &apiError{Status: resp.StatusCode, Desc: parsed.Description},
		}
	}
	return parsed.Result.MessageID, resp, nil
}
