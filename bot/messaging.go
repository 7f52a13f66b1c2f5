package bot

import (
	"fmt"

	"linktrack/entity"
)

// Send delivers one fan-out notification with its share keyboard.
// Implements core.Sender. A failure here is one recipient's failure; the
// core records it in the send report and moves on.
func (t *TgBot) Send(n *entity.Notification) error {
	err := t.sendWithKeyboard(n.ChatId,
		Sanitize(n.Text),
		buildShareKeyboard(n.TrackUrl, n.ShareUrl),
	)
	if err != nil {
		return fmt.Errorf("send to %d: %w", n.ChatId, err)
	}
	return nil
}

// NotifyAdmin sends an operational message to the configured admin chat.
// Used directly and as the sink of the Telegram slog handler.
func (t *TgBot) NotifyAdmin(msg string) {
	if t.config.AdminId == 0 || msg == "" {
		return
	}
	t.plainResponse(t.config.AdminId, Sanitize(msg))
}
