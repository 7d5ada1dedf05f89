package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Gemini GeminiConfig
	Match  MatchConfig
}

type ServerConfig struct {
	Address string
}

// DBConfig 是對戰紀錄用的資料庫設定，Host 留空即停用紀錄
type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string
	ImageModel string `mapstructure:"image_model"`
}

// MatchConfig 控制配對與戰鬥演出的時間參數
type MatchConfig struct {
	WaitTimeout       time.Duration `mapstructure:"wait_timeout"`
	PresentationDelay time.Duration `mapstructure:"presentation_delay"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.image_model", "gemini-2.5-flash-image")
	viper.SetDefault("match.wait_timeout", 30*time.Second)
	viper.SetDefault("match.presentation_delay", 5*time.Second)

	// API 金鑰照舊從環境變數讀，不寫進設定檔
	if err := viper.BindEnv("gemini.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
