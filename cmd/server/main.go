package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"linktrack/bot"
	"linktrack/impl/core"
	"linktrack/impl/scheduler"
	"linktrack/internal/config"
	"linktrack/internal/database"
	"linktrack/internal/http-server/api"
	"linktrack/lib/logger"
	"linktrack/lib/sl"
)

const logFileName = "linktrack.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting linktrack",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
	)

	store, err := database.New(conf.Storage.Path)
	if err != nil {
		log.Error("opening storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, log, bot.BotConfig{
		AdminId: conf.Telegram.AdminId,
	})
	if err != nil {
		log.Error("creating telegram bot", sl.Err(err))
		os.Exit(1)
	}

	// From here on, ERROR records also reach the admin chat.
	log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelError))

	trackerCore := core.New(store, conf.BaseUrl, log)
	trackerCore.SetSender(tgBot)
	tgBot.SetCore(trackerCore)

	dispatcher := scheduler.New(
		trackerCore,
		time.Duration(conf.Scheduler.IntervalSec)*time.Second,
		log,
	)
	if err = dispatcher.Start(); err != nil {
		log.Error("starting dispatcher", sl.Err(err))
		os.Exit(1)
	}
	defer dispatcher.Stop()

	go func() {
		if serveErr := api.New(conf, log, trackerCore); serveErr != nil {
			log.Error("api server stopped", sl.Err(serveErr))
			os.Exit(1)
		}
	}()

	// Blocks until the updater is stopped.
	if err = tgBot.Start(); err != nil {
		log.Error("telegram bot stopped", sl.Err(err))
		os.Exit(1)
	}
}
