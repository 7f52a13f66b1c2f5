package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// buildShareKeyboard creates the two-button keyboard attached to link
// notifications: open the tracked link, or forward it via Telegram's share
// dialog. Both are URL buttons, no callback data involved.
func buildShareKeyboard(trackUrl, shareUrl string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{{Text: "Watch now", Url: trackUrl}},
			{{Text: "Share with friends", Url: shareUrl}},
		},
	}
}
