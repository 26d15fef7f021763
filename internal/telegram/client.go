package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pixelgen/internal/imagedata"
)

const (
	maxMessageBytes = 4096
	maxCaptionBytes = 1024
	// Bot API getFile is limited to 20 MB.
	maxDownloadBytes = 20 << 20
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *slog.Logger
}

type (
	Update         = tgbotapi.Update
	InlineKeyboard = tgbotapi.InlineKeyboardMarkup
)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		bot:        bot,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

type UpdatesOptions struct {
	Timeout time.Duration
}

func (c *Client) Updates(opts UpdatesOptions) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	if opts.Timeout > 0 {
		u.Timeout = int(opts.Timeout.Seconds())
	}
	u.AllowedUpdates = []string{"message", "callback_query"}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

// SendTyping shows the "sending photo" indicator; failures are irrelevant.
func (c *Client) SendTyping(chatID int64) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto)); err != nil {
		c.logger.Debug("chat action failed", "chat_id", chatID, "err", err)
	}
}

func (c *Client) SendText(chatID int64, text string) error {
	for _, p := range splitByBytes(text, maxMessageBytes) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, p)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) SendTextWithKeyboard(chatID int64, text string, kb InlineKeyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, truncateByBytes(text, maxMessageBytes))
	msg.ReplyMarkup = kb
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) EditTextWithKeyboard(chatID int64, messageID int, text string, kb InlineKeyboard) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, truncateByBytes(text, maxMessageBytes), kb)
	_, err := c.bot.Request(edit)
	return err
}

func (c *Client) AnswerCallback(callbackID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	_, err := c.bot.Request(cfg)
	return err
}

// SendPhotoDataURL sends a compressed preview of the result.
func (c *Client) SendPhotoDataURL(chatID int64, dataURL, caption string) error {
	return c.sendDataURL(dataURL, func(f tgbotapi.FileBytes) tgbotapi.Chattable {
		f.Name = "pixelgen.png"
		photo := tgbotapi.NewPhoto(chatID, f)
		photo.Caption = truncateByBytes(caption, maxCaptionBytes)
		return photo
	})
}

// SendDocumentDataURL sends the lossless file under the given name.
func (c *Client) SendDocumentDataURL(chatID int64, dataURL, filename, caption string) error {
	return c.sendDataURL(dataURL, func(f tgbotapi.FileBytes) tgbotapi.Chattable {
		f.Name = filename
		doc := tgbotapi.NewDocument(chatID, f)
		doc.Caption = truncateByBytes(caption, maxCaptionBytes)
		return doc
	})
}

func (c *Client) sendDataURL(dataURL string, build func(tgbotapi.FileBytes) tgbotapi.Chattable) error {
	_, payload, err := imagedata.ParseDataURL(dataURL, "image/png")
	if err != nil {
		return err
	}
	_, err = c.bot.Send(build(tgbotapi.FileBytes{Bytes: payload}))
	return err
}

// DownloadFile fetches a file by id and returns its bytes and MIME type.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token.
		return nil, "", errors.New("telegram file download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("telegram file download: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxDownloadBytes {
		return nil, "", errors.New("telegram file too large")
	}

	mimeType := imagedata.DetectMIME(resp.Header.Get("content-type"), data)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

// splitByBytes cuts text into chunks of at most maxBytes without splitting
// a rune.
func splitByBytes(text string, maxBytes int) []string {
	if maxBytes <= 0 {
		return []string{text}
	}
	var out []string
	for len(text) > maxBytes {
		head := truncateByBytes(text, maxBytes)
		if head == "" {
			break
		}
		out = append(out, head)
		text = text[len(head):]
	}
	return append(out, text)
}

func truncateByBytes(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
