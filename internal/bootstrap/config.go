package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvProduction = "production"
	DevServerURL  = "ws://localhost:3301"
)

type Config struct {
	AppEnv           string        `mapstructure:"APP_ENV"`
	GameServerUrl    string        `mapstructure:"GAME_SERVER_URL"`
	ReconnectDelay   time.Duration `mapstructure:"RECONNECT_DELAY"`
	HandshakeTimeout time.Duration `mapstructure:"HANDSHAKE_TIMEOUT"`
	LocalPort        string        `mapstructure:"LOCAL_PORT"`
	IsLocalCors      bool          `mapstructure:"LOCAL_CORS"`
	RedisUrl         string        `mapstructure:"REDIS_URL"`
	MongoUri         string        `mapstructure:"MONGO_URI"`
	KafkaBrokers     []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic       string        `mapstructure:"KAFKA_TOPIC"`
	UserUUID         string        `mapstructure:"USER_UUID"`
	Nickname         string        `mapstructure:"NICKNAME"`
}

var defaults = map[string]any{
	"APP_ENV":           "development",
	"GAME_SERVER_URL":   "",
	"RECONNECT_DELAY":   time.Second,
	"HANDSHAKE_TIMEOUT": 10 * time.Second,
	"LOCAL_PORT":        ":8080",
	"LOCAL_CORS":        false,
	"REDIS_URL":         "",
	"MONGO_URI":         "",
	"KAFKA_BROKERS":     []string{},
	"KAFKA_TOPIC":       "review-events",
	"USER_UUID":         "",
	"NICKNAME":          "",
}

// Setup loads cfgPath into the environment when it exists and reads the
// configuration from environment variables.
func Setup(cfgPath string) (*Config, error) {
	if cfgPath != "" {
		if err := godotenv.Load(cfgPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.AppEnv == EnvProduction && cfg.GameServerUrl == "" {
		return nil, errors.New("GAME_SERVER_URL is required in production")
	}

	return &cfg, nil
}

// ServerURL picks the game server address for the deployment environment.
// Outside production the local development server is the default.
func (c *Config) ServerURL() string {
	if c.GameServerUrl != "" {
		return c.GameServerUrl
	}
	return DevServerURL
}
