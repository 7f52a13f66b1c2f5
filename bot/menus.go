package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Command lists for Telegram's menu button (the "/" icon in the chat
// input). The default scope gets the user commands; the admin chat
// additionally sees /broadcast and /schedule.

var commandsUser = []tgbotapi.BotCommand{
	{Command: "start", Description: "Start"},
	{Command: "subscribe", Description: "Get notified about new links"},
	{Command: "unsubscribe", Description: "Stop notifications"},
	{Command: "myref", Description: "Your referral stats"},
	{Command: "mylinks", Description: "Your saved links"},
	{Command: "help", Description: "Show available commands"},
}

var commandsAdmin = append(commandsUser[:len(commandsUser):len(commandsUser)],
	tgbotapi.BotCommand{Command: "broadcast", Description: "Send a link to all subscribers"},
	tgbotapi.BotCommand{Command: "schedule", Description: "Schedule a broadcast"},
)

func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsUser, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}

	if t.config.AdminId == 0 {
		return
	}
	_, err = t.api.SetMyCommands(commandsAdmin, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeChat{ChatId: t.config.AdminId},
	})
	if err != nil {
		t.log.Warn("setting admin commands", "error", err)
	}
}
