// Package bot implements the Telegram surface of the tracker.
//
// Architecture overview:
//   - tgbot.go     — TgBot struct, lifecycle (Start/Stop), Core interface
//   - commands.go  — User-facing commands: /start, /help, /subscribe, /unsubscribe, /myref, /mylinks
//     plus the plain-message handler that captures video links
//   - admin.go     — Admin commands: /broadcast, /schedule
//   - keyboards.go — Inline keyboard builders for track/share buttons
//   - menus.go     — Command menus via Telegram's BotCommandScope API
//   - messaging.go — core.Sender implementation and admin notifications
//   - helpers.go   — Shared utilities: Sanitize, plainResponse, splitMessage, reportError
//
// The bot holds no subscriber state of its own; every command delegates to
// the core service, which owns the registry and the attribution pipeline.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	"linktrack/entity"
	"linktrack/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// BotConfig holds Telegram-specific configuration.
// AdminId is the single chat authorized for /broadcast and /schedule.
type BotConfig struct {
	AdminId int64
}

// Core defines the tracker operations the bot depends on.
// Implemented by impl/core.Core.
type Core interface {
	CreateLink(url string, ownerId int64, title string) (*entity.Link, error)
	LinksByOwner(ownerId int64) ([]*entity.Link, error)
	ClickCount(linkId int64) (int, error)
	ReferralCount(referrerId int64) (int, error)
	Subscribe(chatId int64) error
	Unsubscribe(chatId int64) error
	TrackURL(linkId int64, referrerId *int64, campaign string) string
	Broadcast(linkId int64, text, campaign string) (*entity.SendReport, error)
	ScheduleBroadcast(linkId int64, rawTime, text string, createdBy int64) (*entity.ScheduledJob, error)
}

// TgBot is the central Telegram bot instance. It is both a consumer of the
// core (commands) and its outbound channel (core.Sender).
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    Core
	updater *ext.Updater
	config  BotConfig
}

func NewTgBot(apiKey string, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		config: cfg,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SetCore connects the tracker service. Must be called before Start.
func (t *TgBot) SetCore(core Core) {
	t.core = core
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// User commands
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewCommand("subscribe", t.subscribeCmd))
	dispatcher.AddHandler(handlers.NewCommand("unsubscribe", t.unsubscribeCmd))
	dispatcher.AddHandler(handlers.NewCommand("myref", t.myref))
	dispatcher.AddHandler(handlers.NewCommand("mylinks", t.mylinks))

	// Admin commands
	dispatcher.AddHandler(handlers.NewCommand("broadcast", t.broadcast))
	dispatcher.AddHandler(handlers.NewCommand("schedule", t.schedule))

	// Plain text messages carrying a video link
	dispatcher.AddHandler(handlers.NewMessage(isPlainText, t.onLinkMessage))

	t.setDefaultCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}
