package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"linktrack/impl/core"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// broadcast fans a link out to every subscriber immediately.
// Usage: /broadcast <link_id> <text>
func (t *TgBot) broadcast(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	chatId := ctx.EffectiveChat.Id
	reply, err := t.broadcastCommand(chatId, ctx.EffectiveMessage.Text)
	if err != nil {
		t.reportError(chatId, "/broadcast", err)
		return nil
	}
	t.plainResponse(chatId, reply)
	return nil
}

func (t *TgBot) broadcastCommand(chatId int64, message string) (string, error) {
	if !t.requireAdmin(chatId) {
		return "Not authorized\\.", nil
	}

	args := strings.Fields(message)
	if len(args) < 3 {
		return "Usage: `/broadcast <link_id> <text>`", nil
	}
	linkId, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "Link id must be a number\\.", nil
	}
	text := strings.Join(args[2:], " ")

	report, err := t.core.Broadcast(linkId, text, "")
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Sprintf("Unknown link id: %d", linkId), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Broadcast sent to %d subscriber\\(s\\), %d failed\\.", report.Sent, report.Failed), nil
}

// schedule inserts a broadcast job for the dispatcher.
// Usage: /schedule <link_id> <YYYY-MM-DD_HH:MM> <text>
func (t *TgBot) schedule(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	chatId := ctx.EffectiveChat.Id
	reply, err := t.scheduleCommand(chatId, ctx.EffectiveMessage.Text)
	if err != nil {
		t.reportError(chatId, "/schedule", err)
		return nil
	}
	t.plainResponse(chatId, reply)
	return nil
}

func (t *TgBot) scheduleCommand(chatId int64, message string) (string, error) {
	if !t.requireAdmin(chatId) {
		return "Not authorized\\.", nil
	}

	args := strings.Fields(message)
	if len(args) < 4 {
		return "Usage: `/schedule <link_id> <YYYY\\-MM\\-DD_HH:MM> <text>`", nil
	}
	linkId, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "Link id must be a number\\.", nil
	}
	text := strings.Join(args[3:], " ")

	job, err := t.core.ScheduleBroadcast(linkId, args[2], text, chatId)
	if errors.Is(err, core.ErrMalformedSchedule) {
		return "Wrong time format\\. Use `YYYY\\-MM\\-DD_HH:MM`", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Broadcast \\#%d scheduled for %s\\.", job.Id, Sanitize(job.ScheduledAt)), nil
}
