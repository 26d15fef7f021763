package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"pixelgen/internal/mediagroup"
	"pixelgen/internal/pixelart"
	"pixelgen/internal/session"
	"pixelgen/internal/telegram"
)

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendTyping(chatID int64)
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.InlineKeyboard) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.InlineKeyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendPhotoDataURL(chatID int64, dataURL, caption string) error
	SendDocumentDataURL(chatID int64, dataURL, filename, caption string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

type Stylizer interface {
	Stylize(ctx context.Context, in pixelart.Input) (pixelart.Result, error)
}

type Options struct {
	Telegram Messenger
	Stylizer Stylizer
	Sessions *session.Store
	Logger   *slog.Logger
	// AlbumConcurrency bounds parallel stylizations inside one album.
	AlbumConcurrency int
	Now              func() time.Time
}

type Handler struct {
	tg         Messenger
	stylizer   Stylizer
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
	albumLimit int
	now        func() time.Time
}

const msgBusy = "⏳ Still working on your previous image. Please wait for it to finish."

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := opts.AlbumConcurrency
	if limit < 1 {
		limit = 2
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{})
	}

	return &Handler{
		tg:         opts.Telegram,
		stylizer:   opts.Stylizer,
		sessions:   sessions,
		logger:     logger,
		albumLimit: limit,
		now:        now,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, username, msg)
	}

	if fileID, ok := imageFileID(msg); ok {
		return h.handlePhoto(ctx, chatID, userID, username, msg, fileID)
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.tg.SendText(chatID, "📷 Send me a photo to convert it, or /help for options.")
	}
	return nil
}

// HandleMediaGroup converts every photo of an album with the same settings.
// The album counts as one in-flight request for the user.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if len(group.FileIDs) == 0 {
		return
	}
	if !h.sessions.TryBegin(group.UserID, group.Username) {
		_ = h.tg.SendText(group.ChatID, msgBusy)
		return
	}
	defer h.sessions.End(group.UserID)

	sess := h.sessions.Get(group.UserID, group.Username)
	settings := pixelart.ParseArgs(group.Caption, sess.Settings)

	h.tg.SendTyping(group.ChatID)
	_ = h.tg.SendText(group.ChatID, fmt.Sprintf("🎨 Converting %d images at %s…", len(group.FileIDs), pixelart.ProfileForTier(settings.Tier).Label))

	results := make([]pixelart.Result, len(group.FileIDs))
	errs := make([]error, len(group.FileIDs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(h.albumLimit)
	for i, fileID := range group.FileIDs {
		eg.Go(func() error {
			results[i], errs[i] = h.stylizeFile(egCtx, fileID, settings)
			// A failed photo must not cancel its siblings.
			return nil
		})
	}
	_ = eg.Wait()

	for i := range group.FileIDs {
		if errs[i] != nil {
			h.logger.Error("album item failed", "user_id", group.UserID, "index", i, "err", errs[i])
			_ = h.tg.SendText(group.ChatID, fmt.Sprintf("❌ Image %d: %s", i+1, pixelart.UserMessage(errs[i])))
			continue
		}
		if err := h.sendResult(group.ChatID, results[i]); err != nil {
			h.logger.Error("send album result failed", "user_id", group.UserID, "index", i, "err", err)
		}
	}

	h.sessions.Update(group.UserID, group.Username, func(s *session.Session) {
		s.LastPhotoFileID = group.FileIDs[len(group.FileIDs)-1]
	})
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, username string, msg *tgbotapi.Message, fileID string) error {
	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     username,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	sess := h.sessions.Update(userID, username, func(s *session.Session) {
		s.LastPhotoFileID = fileID
	})
	settings := pixelart.ParseArgs(msg.Caption, sess.Settings)
	return h.convert(ctx, chatID, userID, username, fileID, settings)
}

func (h *Handler) handleAgain(ctx context.Context, chatID, userID int64, username string) error {
	sess := h.sessions.Get(userID, username)
	if sess.LastPhotoFileID == "" {
		return h.tg.SendText(chatID, "📷 No photo yet. Send one first.")
	}
	return h.convert(ctx, chatID, userID, username, sess.LastPhotoFileID, sess.Settings)
}

// convert runs one stylization for a user and reports the outcome in chat.
func (h *Handler) convert(ctx context.Context, chatID, userID int64, username, fileID string, settings pixelart.Settings) error {
	if !h.sessions.TryBegin(userID, username) {
		return h.tg.SendText(chatID, msgBusy)
	}
	defer h.sessions.End(userID)

	h.tg.SendTyping(chatID)

	res, err := h.stylizeFile(ctx, fileID, settings)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		h.logger.Error("stylize failed", "user_id", userID, "tier", settings.Tier, "err", err)
		return h.tg.SendText(chatID, "❌ "+pixelart.UserMessage(err))
	}
	return h.sendResult(chatID, res)
}

func (h *Handler) stylizeFile(ctx context.Context, fileID string, settings pixelart.Settings) (pixelart.Result, error) {
	data, mimeType, err := h.tg.DownloadFile(ctx, fileID)
	if err != nil {
		return pixelart.Result{}, fmt.Errorf("download photo: %w", err)
	}

	return h.stylizer.Stylize(ctx, pixelart.Input{
		Image:       base64.StdEncoding.EncodeToString(data),
		MIMEType:    mimeType,
		Prompt:      settings.Prompt,
		Tier:        settings.Tier,
		AspectRatio: string(settings.AspectRatio),
	})
}

func (h *Handler) sendResult(chatID int64, res pixelart.Result) error {
	caption := fmt.Sprintf("✅ %s\n%s · %s", res.Label, res.Profile.Name, res.AspectRatio)
	if err := h.tg.SendPhotoDataURL(chatID, res.DataURL, caption); err != nil {
		return err
	}
	return h.tg.SendDocumentDataURL(chatID, res.DataURL, pixelart.ExportFilename(h.now()), "")
}

// imageFileID picks the largest photo size, or an image sent as a file.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}
