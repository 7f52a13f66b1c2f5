package config

import (
	"fmt"
	"log"
	"net/url"
	"sync"

	"linktrack/lib/validate"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"PORT" env-default:"8080"`
}

type TelegramConfig struct {
	ApiKey  string `yaml:"api_key" env:"TELEGRAM_TOKEN" validate:"required"`
	AdminId int64  `yaml:"admin_id" env:"ADMIN_ID" validate:"required"`
}

type StorageConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"linktrack.db"`
}

type SchedulerConfig struct {
	IntervalSec int `yaml:"interval_sec" env:"DISPATCH_INTERVAL" env-default:"60"`
}

type ApiConfig struct {
	Token string `yaml:"token" env:"API_TOKEN" validate:"required"`
}

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	BaseUrl   string          `yaml:"base_url" env:"BASE_URL" validate:"required,url"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Api       ApiConfig       `yaml:"api"`
	Listen    Listen          `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = check(instance); err != nil {
			instance = nil
			log.Fatal(fmt.Errorf("config: %w", err))
		}
	})
	return instance
}

func check(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return err
	}
	// Track links are composed from base_url and handed to end users;
	// production must hand out https only.
	if conf.Env == "prod" {
		u, err := url.Parse(conf.BaseUrl)
		if err != nil || u.Scheme != "https" {
			return fmt.Errorf("base_url must be https in prod: %s", conf.BaseUrl)
		}
	}
	return nil
}
