package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pixelgen/internal/pixelart"
	"pixelgen/internal/session"
)

const helpText = "🕹 PixelGen turns photos into retro pixel art.\n\n" +
	"Send a photo (or an album) and get it back as a sprite.\n" +
	"Caption shortcuts: tier=1..4 ar=16:9 plus any style text.\n\n" +
	"Commands:\n" +
	"/tier [1-4] - hardware tier\n" +
	"/ratio [1:1|3:4|4:3|9:16|16:9] - output aspect ratio\n" +
	"/style <text> - extra style instruction (empty clears)\n" +
	"/again - convert the last photo with current settings\n" +
	"/settings - show settings\n" +
	"/reset - restore defaults"

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, username string, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		if err := h.tg.SendText(chatID, helpText); err != nil {
			return err
		}
		return h.showSettings(chatID, userID, username)
	case "settings":
		return h.showSettings(chatID, userID, username)
	case "tier":
		if args == "" {
			return h.showSettings(chatID, userID, username)
		}
		n, err := strconv.Atoi(args)
		if err != nil || n < pixelart.MinTier || n > pixelart.MaxTier {
			return h.tg.SendText(chatID, "❌ Tier must be a number from 1 to 4.")
		}
		sess := h.sessions.Update(userID, username, func(s *session.Session) { s.Settings.Tier = n })
		return h.tg.SendText(chatID, "✅ Tier: "+tierLine(sess.Settings.Tier))
	case "ratio":
		if args == "" {
			return h.showSettings(chatID, userID, username)
		}
		ar, err := pixelart.ParseAspectRatio(args)
		if err != nil {
			return h.tg.SendText(chatID, "❌ "+pixelart.UserMessage(err))
		}
		h.sessions.Update(userID, username, func(s *session.Session) { s.Settings.AspectRatio = ar })
		return h.tg.SendText(chatID, "✅ Aspect ratio: "+string(ar))
	case "style":
		h.sessions.Update(userID, username, func(s *session.Session) { s.Settings.Prompt = args })
		if args == "" {
			return h.tg.SendText(chatID, "✅ Style instruction cleared.")
		}
		return h.tg.SendText(chatID, "✅ Style instruction: "+args)
	case "again":
		return h.handleAgain(ctx, chatID, userID, username)
	case "reset":
		h.sessions.Reset(userID, username)
		return h.showSettings(chatID, userID, username)
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Try /help.")
	}
}

const callbackPrefix = "px"

// Callback data is "px:<owner>:<action>[:<arg>]". The arg may itself contain
// colons (aspect ratios).
func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.Message.Chat == nil || q.From == nil {
		return nil
	}

	parts := strings.SplitN(strings.TrimSpace(q.Data), ":", 4)
	if len(parts) < 3 || parts[0] != callbackPrefix {
		return nil
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		return h.tg.AnswerCallback(q.ID, "These settings belong to someone else.", true)
	}

	action := parts[2]
	arg := ""
	if len(parts) == 4 {
		arg = parts[3]
	}
	chatID := q.Message.Chat.ID
	username := q.From.UserName

	switch action {
	case "tier":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return h.tg.AnswerCallback(q.ID, "Unknown tier", false)
		}
		h.sessions.Update(ownerID, username, func(s *session.Session) { s.Settings.Tier = pixelart.NormalizeTier(n) })
	case "ratio":
		ar, err := pixelart.ParseAspectRatio(arg)
		if err != nil {
			return h.tg.AnswerCallback(q.ID, "Unknown ratio", false)
		}
		h.sessions.Update(ownerID, username, func(s *session.Session) { s.Settings.AspectRatio = ar })
	case "clearstyle":
		h.sessions.Update(ownerID, username, func(s *session.Session) { s.Settings.Prompt = "" })
	case "reset":
		h.sessions.Reset(ownerID, username)
	case "again":
		_ = h.tg.AnswerCallback(q.ID, "Converting…", false)
		return h.handleAgain(ctx, chatID, ownerID, username)
	default:
		return h.tg.AnswerCallback(q.ID, "", false)
	}

	_ = h.tg.AnswerCallback(q.ID, "Saved", false)
	sess := h.sessions.Get(ownerID, username)
	if err := h.tg.EditTextWithKeyboard(chatID, q.Message.MessageID, settingsText(sess), settingsKeyboard(ownerID, sess.Settings)); err != nil {
		h.logger.Debug("edit settings message failed", "err", err)
	}
	return nil
}

func (h *Handler) showSettings(chatID, userID int64, username string) error {
	sess := h.sessions.Get(userID, username)
	_, err := h.tg.SendTextWithKeyboard(chatID, settingsText(sess), settingsKeyboard(userID, sess.Settings))
	return err
}

func tierLine(tier int) string {
	p := pixelart.ProfileForTier(tier)
	return fmt.Sprintf("%d · %s (%s)", p.Tier, p.Label, p.Name)
}

func settingsText(sess session.Session) string {
	st := sess.Settings
	style := st.Prompt
	if style == "" {
		style = "(none)"
	}
	photo := "none"
	if sess.LastPhotoFileID != "" {
		photo = "saved, use /again"
	}

	var b strings.Builder
	b.WriteString("🕹 PixelGen settings\n\n")
	b.WriteString("Tier: " + tierLine(st.Tier) + "\n")
	b.WriteString("Specs: " + pixelart.ProfileForTier(st.Tier).Description + "\n")
	b.WriteString("Aspect ratio: " + string(st.AspectRatio) + "\n")
	b.WriteString("Style: " + style + "\n")
	b.WriteString("Last photo: " + photo)
	return b.String()
}

func settingsKeyboard(ownerID int64, st pixelart.Settings) tgbotapi.InlineKeyboardMarkup {
	var tierRow []tgbotapi.InlineKeyboardButton
	for _, opt := range pixelart.TierOptions() {
		label := opt.Key
		if opt.Key == strconv.Itoa(pixelart.NormalizeTier(st.Tier)) {
			label = "✅ " + label
		}
		tierRow = append(tierRow, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "tier", opt.Key)))
	}

	var ratioRow []tgbotapi.InlineKeyboardButton
	for _, opt := range pixelart.AspectOptions() {
		label := opt.Key
		if opt.Key == string(st.AspectRatio) {
			label = "✅ " + label
		}
		ratioRow = append(ratioRow, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "ratio", opt.Key)))
	}

	actions := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🔁 Again", cb(ownerID, "again")),
		tgbotapi.NewInlineKeyboardButtonData("Reset", cb(ownerID, "reset")),
	}
	if st.Prompt != "" {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("Clear style", cb(ownerID, "clearstyle")))
	}

	return tgbotapi.NewInlineKeyboardMarkup(tierRow, ratioRow, actions)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, strings.Join(parts, ":"))
}
