package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralParams    GeneralParams
	HttpServerParams HttpServerParams
	TelegramParams   TelegramParams
}

type GeneralParams struct {
	Env     string
	BaseURL string
}

type HttpServerParams struct {
	Address string
	Port    string
}

type TelegramParams struct {
	Enabled  bool
	BotToken string
}

type ConfigManager struct {
	v      *viper.Viper
	config *Config
}

// NewConfigManager creates new config manager that handles
// all viper config options and loads a config from yaml
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cm := &ConfigManager{v: v}

	if err := cm.loadConfig(); err != nil {
		return nil, err
	}

	return cm, nil
}

// Extracting data from yaml file and loading into Config
func (cm *ConfigManager) loadConfig() error {
	cm.config = &Config{
		GeneralParams: GeneralParams{
			Env:     cm.v.GetString("general_params.env"),
			BaseURL: cm.v.GetString("general_params.base_url"),
		},
		HttpServerParams: HttpServerParams{
			Address: cm.v.GetString("http_server_params.http_server_address"),
			Port:    cm.v.GetString("http_server_params.http_server_port"),
		},
		TelegramParams: TelegramParams{
			Enabled:  cm.v.GetBool("telegram_params.enabled"),
			BotToken: cm.v.GetString("telegram_params.bot_token"),
		},
	}
	return nil
}

// Geting config instance
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

func (h *HttpServerParams) GetAddress() string {
	return fmt.Sprintf(
		"%s:%s",
		h.Address,
		h.Port,
	)
}

func (c *Config) Validate() error {
	// Checking out enviroment variable
	switch c.GeneralParams.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("env parameter is invalid: %s. try dev/prod/test instead", c.GeneralParams.Env)
	}

	// Base URL is embedded into every room link we hand out
	if c.GeneralParams.BaseURL == "" {
		return fmt.Errorf("parameter base_url is required")
	}
	if !strings.HasPrefix(c.GeneralParams.BaseURL, "http://") &&
		!strings.HasPrefix(c.GeneralParams.BaseURL, "https://") {
		return fmt.Errorf("parameter base_url must start with http:// or https://")
	}

	// Checking http server parameters
	if c.HttpServerParams.Address == "" {
		return fmt.Errorf("%s: http server address is required", c.HttpServerParams.Address)
	}
	if c.HttpServerParams.Port == "" {
		return fmt.Errorf("%s: http server port is required", c.HttpServerParams.Port)
	}

	// Telegram gateway is optional, but a token is required once enabled
	if c.TelegramParams.Enabled && c.TelegramParams.BotToken == "" {
		return fmt.Errorf("telegram gateway is enabled but bot_token is empty")
	}

	return nil
}
