package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"linktrack/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

const maxTelegramMessageLen = 4096

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}
	return sanitized
}

func (t *TgBot) requireAdmin(chatId int64) bool {
	return t.config.AdminId != 0 && chatId == t.config.AdminId
}

func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Try to split at newline
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

// sendWithKeyboard sends a message with an inline keyboard attached.
func (t *TgBot) sendWithKeyboard(chatId int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	if text == "" {
		return nil
	}
	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode:   "MarkdownV2",
		ReplyMarkup: keyboard,
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message with keyboard", sl.Err(err))
		// Fallback: try without markdown
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
			ReplyMarkup: keyboard,
		})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending message with keyboard fallback", sl.Err(err))
		}
	}
	return err
}

// reportError logs the error, notifies the admin with details, and sends a
// neutral message to the user.
func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("user_id", chatId),
		sl.Err(err),
	)
	if chatId != t.config.AdminId {
		t.NotifyAdmin(fmt.Sprintf("Command %s failed\nUser: %d\nError: %s", command, chatId, err.Error()))
	}
	t.plainResponse(chatId, "Something went wrong\\. Please try again later\\.")
}
