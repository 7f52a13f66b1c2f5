package bot

import (
	"fmt"
	"strings"

	"linktrack/impl/core"
	"linktrack/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId,
		"Hi\\! I turn video links into tracked share links\\.\n\n"+
			"Send me a TikTok link to save it and get a tracking URL, "+
			"or use /subscribe to get notified about new links\\.")
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	isAdmin := t.requireAdmin(chatId)

	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")
	sb.WriteString("`/start` \\- Start\n")
	sb.WriteString("`/subscribe` \\- Get notified about new links\n")
	sb.WriteString("`/unsubscribe` \\- Stop notifications\n")
	sb.WriteString("`/myref` \\- Your referral stats\n")
	sb.WriteString("`/mylinks` \\- Your saved links with click counts\n")
	sb.WriteString("Send a TikTok link to save and share it\\.\n")

	if isAdmin {
		sb.WriteString("\n*Admin Commands:*\n")
		sb.WriteString("`/broadcast <link_id> <text>` \\- Send a link to all subscribers now\n")
		sb.WriteString("`/schedule <link_id> <YYYY\\-MM\\-DD_HH:MM> <text>` \\- Schedule a broadcast\n")
	}

	t.plainResponse(chatId, sb.String())
	return nil
}

func (t *TgBot) subscribeCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	chatId := ctx.EffectiveChat.Id
	if err := t.core.Subscribe(chatId); err != nil {
		t.reportError(chatId, "/subscribe", err)
		return nil
	}
	t.plainResponse(chatId, "Subscribed — you will be notified when new links are published\\.")
	return nil
}

func (t *TgBot) unsubscribeCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	chatId := ctx.EffectiveChat.Id
	if err := t.core.Unsubscribe(chatId); err != nil {
		t.reportError(chatId, "/unsubscribe", err)
		return nil
	}
	t.plainResponse(chatId, "Unsubscribed\\.")
	return nil
}

func (t *TgBot) myref(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	userId := ctx.EffectiveUser.Id
	count, err := t.core.ReferralCount(userId)
	if err != nil {
		t.reportError(userId, "/myref", err)
		return nil
	}
	t.plainResponse(userId, fmt.Sprintf(
		"Share links from this bot and your id rides along as referrer — "+
			"every click through them is credited to you\\.\n\n"+
			"Referrals recorded for you: %d", count))
	return nil
}

func (t *TgBot) mylinks(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	userId := ctx.EffectiveUser.Id
	links, err := t.core.LinksByOwner(userId)
	if err != nil {
		t.reportError(userId, "/mylinks", err)
		return nil
	}
	if len(links) == 0 {
		t.plainResponse(userId, "You have no saved links yet\\. Send me a TikTok link to start\\.")
		return nil
	}

	var sb strings.Builder
	for _, link := range links {
		title := link.Title
		if title == "" {
			title = link.DestinationUrl
		}
		clicks, cerr := t.core.ClickCount(link.Id)
		if cerr != nil {
			clicks = 0
		}
		trackUrl := t.core.TrackURL(link.Id, &userId, "")
		sb.WriteString(fmt.Sprintf("\\#%d — %s\n%s\nClicks: %d\n\n",
			link.Id, Sanitize(title), Sanitize(trackUrl), clicks))
	}

	for _, part := range splitMessage(sb.String(), maxTelegramMessageLen) {
		t.plainResponse(userId, part)
	}
	return nil
}

func isPlainText(msg *tgbotapi.Message) bool {
	return msg.Text != "" && !strings.HasPrefix(msg.Text, "/")
}

// onLinkMessage saves a video link sent as a plain message, replies with
// the tracking URL and share buttons, and fans the new link out to all
// subscribers with personalized referral links.
func (t *TgBot) onLinkMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	userId := ctx.EffectiveUser.Id
	text := strings.TrimSpace(ctx.EffectiveMessage.Text)

	videoUrl := extractVideoUrl(text)
	if videoUrl == "" {
		t.plainResponse(userId, "Send a valid TikTok link so I can save and share it\\.")
		return nil
	}

	link, err := t.core.CreateLink(videoUrl, userId, "")
	if err != nil {
		t.reportError(userId, "link message", err)
		return nil
	}

	trackUrl := t.core.TrackURL(link.Id, nil, "")
	shareText := fmt.Sprintf("Watch this video: %s", trackUrl)
	t.sendWithKeyboard(userId,
		fmt.Sprintf("Link saved\\. Tracking URL:\n%s\n\nStats will show up once clicks come in\\.", Sanitize(trackUrl)),
		buildShareKeyboard(trackUrl, core.ShareURL(trackUrl, shareText)),
	)

	author := ctx.EffectiveUser.Username
	if author == "" {
		author = ctx.EffectiveUser.FirstName
	}
	report, err := t.core.Broadcast(link.Id, fmt.Sprintf("New video from @%s", author), "")
	if err != nil {
		t.log.Warn("announcing new link", sl.Err(err))
		return nil
	}
	if report.Failed > 0 {
		t.NotifyAdmin(fmt.Sprintf("New link #%d announced: %d sent, %d failed", link.Id, report.Sent, report.Failed))
	}
	return nil
}

// extractVideoUrl picks the first whitespace-separated token that looks
// like a TikTok URL. Returns empty when the message has none.
func extractVideoUrl(text string) string {
	for _, field := range strings.Fields(text) {
		if strings.Contains(field, "tiktok.com") || strings.Contains(field, "vm.tiktok.com") {
			return field
		}
	}
	return ""
}
