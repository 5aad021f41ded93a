package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Chapa    ChapaConfig
	SMS      SMSConfig
	QRCode   QRCodeConfig
	Cron     CronConfig
	AppURL   string
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// ChapaConfig holds payment gateway configuration
type ChapaConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Currency      string
	MockGateway   bool
}

// SMSConfig holds AfroMessage SMS gateway configuration
type SMSConfig struct {
	Endpoint string
	APIKey   string
	SenderID string
	MockSMS  bool
}

// QRCodeConfig holds QR image service configuration
type QRCodeConfig struct {
	Endpoint string
	MockQR   bool
}

// CronConfig guards the scheduled endpoints
type CronConfig struct {
	Secret string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, environment variables cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "zlucky")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60)
	viper.SetDefault("Chapa.BaseURL", "https://api.chapa.co/v1")
	viper.SetDefault("Chapa.Currency", "ETB")
	viper.SetDefault("Chapa.MockGateway", false)
	viper.SetDefault("SMS.Endpoint", "https://api.afromessage.com/api/send")
	viper.SetDefault("SMS.MockSMS", false)
	viper.SetDefault("QRCode.MockQR", false)
	viper.SetDefault("AppURL", "http://localhost:4000")
	viper.SetDefault("LogLevel", "info")
}
