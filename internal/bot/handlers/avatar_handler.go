package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botwarden/internal/avatar"
)

const avatarTimeout = 2 * time.Minute

// NewAvatarUsageHandler answers a text-only /avatar with usage instructions.
func NewAvatarUsageHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		reply(ctx, b, deps.Logger.With("handler", "avatar"), update.Message.Chat.ID, deps.Config.Messages.AvatarUsage)
	}
}

// NewDefaultHandler serves updates no command matched. A photo captioned
// /avatar <id> replaces that bot's avatar; everything else is ignored.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	avatar := avatarHandler{deps}.Handle
	admin := AdminOnly(deps)(avatar)
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if !isAvatarUpload(update.Message) {
			return
		}
		admin(ctx, b, update)
	}
}

func isAvatarUpload(msg *models.Message) bool {
	if msg == nil || len(msg.Photo) == 0 {
		return false
	}
	word, _, _ := strings.Cut(strings.TrimSpace(msg.Caption), " ")
	word, _, _ = strings.Cut(word, "@")
	return word == "/avatar"
}

type avatarHandler struct {
	deps HandlerDeps
}

func (h avatarHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "avatar")
	msg := update.Message
	chatID := msg.Chat.ID

	botID := commandArgs(msg.Caption)
	if botID == "" {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.AvatarUsage)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, avatarTimeout)
	defer cancel()

	source, err := photoURL(runCtx, b, h.deps.Config.Telegram.Token, largestPhoto(msg.Photo))
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve photo", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Replacing avatar", "bot_id", botID)
	out, err := h.deps.App.ReplaceAvatar(runCtx, botID, source)
	reply(ctx, b, log, chatID, outcomeText(h.deps, botID, out, err))
}

// largestPhoto picks the highest resolution size Telegram offers.
func largestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func photoURL(ctx context.Context, b *bot.Bot, token string, photo models.PhotoSize) (string, error) {
	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: photo.FileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("empty file path returned from Telegram")
	}
	return telegramFileURL(token, file.FilePath), nil
}

// telegramFileURL embeds the bot token, so its host must stay one the fetcher
// never proxies.
func telegramFileURL(token, filePath string) string {
	return fmt.Sprintf("https://%s/file/bot%s/%s", avatar.TelegramFileHost, token, filePath)
}
