package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/logging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const DefaultTelegramBaseURL = "https://api.telegram.org"

// TelegramOptions configures NewTelegramNotifier.
type TelegramOptions struct {
	Token   string
	ChatID  string
	BaseURL string
	Timeout time.Duration
}

// TelegramNotifier posts to {base}/bot{token}/sendMessage with form fields
// chat_id and text. One attempt per message.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatID  string
	timeout time.Duration
	logger  logging.Logger
}

// NewTelegramNotifier does not call getMe, so a bad token only shows up in
// the logs of the first send.
func NewTelegramNotifier(opts TelegramOptions, logger logging.Logger) *TelegramNotifier {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultTelegramBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	bot := &tgbotapi.BotAPI{
		Token:  opts.Token,
		Client: &http.Client{Timeout: opts.Timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(base + "/bot%s/%s")

	return &TelegramNotifier{
		bot:     bot,
		chatID:  opts.ChatID,
		timeout: opts.Timeout,
		logger:  logger.With("module", "notify"),
	}
}

func (n *TelegramNotifier) message(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(n.chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(n.chatID, text)
}

func (n *TelegramNotifier) Notify(ctx context.Context, message string) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	// The bot API client has no context support; bind ctx per call.
	bot := *n.bot
	bot.Client = ctxClient{ctx: ctx, c: n.bot.Client}

	if _, err := bot.Send(n.message(message)); err != nil {
		n.logger.Error(ctx, "notification failed", "error", fmt.Errorf("%w: %w", common.ErrNotify, err))
		return
	}

	n.logger.Debug(ctx, "notification sent", "chat_id", n.chatID)
}

type ctxClient struct {
	ctx context.Context
	c   tgbotapi.HTTPClient
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.c.Do(req.WithContext(c.ctx))
}
