package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/toniiplaycode/DNC-Learning-sub002/pkg/config"
)

type Config struct {
	Backend   BackendConfig
	WebSocket WebSocketConfig
	Session   SessionConfig
	Log       LogConfig
}

type BackendConfig struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	WSURL       string        `mapstructure:"ws_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type WebSocketConfig struct {
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongWait          time.Duration `mapstructure:"pong_wait"`
	WriteWait         time.Duration `mapstructure:"write_wait"`
	AckTimeout        time.Duration `mapstructure:"ack_timeout"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
}

type SessionConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("backend.api_base_url", "http://localhost:3000")
	v.SetDefault("backend.ws_url", "ws://localhost:3000/ws")
	v.SetDefault("backend.http_timeout", "15s")
	v.SetDefault("websocket.reconnect_attempts", 5)
	v.SetDefault("websocket.reconnect_interval", "1s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.ack_timeout", "5s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("session.file", defaultSessionFile())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("backend.api_base_url", "API_BASE_URL")
	v.BindEnv("backend.ws_url", "WS_URL")
	v.BindEnv("websocket.reconnect_attempts", "WS_RECONNECT_ATTEMPTS")
	v.BindEnv("websocket.reconnect_interval", "WS_RECONNECT_INTERVAL")
	v.BindEnv("session.file", "SESSION_FILE")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Backend.HTTPTimeout = parseDuration(v, "backend.http_timeout", 15*time.Second)
	cfg.WebSocket.ReconnectInterval = parseDuration(v, "websocket.reconnect_interval", time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.WebSocket.AckTimeout = parseDuration(v, "websocket.ack_timeout", 5*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lms-chat-session.json"
	}
	return filepath.Join(home, ".lms-chat-session.json")
}
