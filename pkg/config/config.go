package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config 应用配置
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Queue   QueueConfig   `yaml:"queue"`
	Speech  SpeechConfig  `yaml:"speech"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
	UploadDir     string `yaml:"upload_dir"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type        string      `yaml:"type"` // memory / postgres / redis / hybrid
	PostgresDSN string      `yaml:"postgres_dsn"`
	Redis       RedisConfig `yaml:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
}

// QueueConfig 队列配置
type QueueConfig struct {
	Type       string         `yaml:"type"` // memory / rabbitmq
	BufferSize int            `yaml:"buffer_size"`
	RabbitMQ   RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig RabbitMQ 配置
type RabbitMQConfig struct {
	URL       string `yaml:"url"`
	QueueName string `yaml:"queue_name"`
}

// SpeechConfig 外部语音转写服务配置
type SpeechConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// OpenAIConfig OpenAI 配置（翻译 / 转写拉丁化）
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %v", err)
	}

	// 解析 YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %v", err)
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %v", err)
	}

	return &config, nil
}

// Validate 验证配置并填默认值
func (c *Config) Validate() error {
	if c.Speech.BaseURL == "" {
		return fmt.Errorf("请在配置文件中设置语音转写服务地址 speech.base_url")
	}

	if c.OpenAI.APIKey == "" || c.OpenAI.APIKey == "your-openai-api-key-here" {
		return fmt.Errorf("请在配置文件中设置有效的 OpenAI API Key")
	}

	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}

	if c.Server.MaxUploadSize <= 0 {
		c.Server.MaxUploadSize = 100 * 1024 * 1024 // 默认 100 MB
	}

	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}

	if c.Storage.Type == "postgres" || c.Storage.Type == "hybrid" {
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("存储类型 %s 需要设置 storage.postgres_dsn", c.Storage.Type)
		}
	}

	if c.Storage.Type == "redis" || c.Storage.Type == "hybrid" {
		if c.Storage.Redis.Addr == "" {
			c.Storage.Redis.Addr = "localhost:6379"
		}
		if c.Storage.Redis.TTLHours <= 0 {
			c.Storage.Redis.TTLHours = 72 // 默认 3 天
		}
	}

	if c.Queue.Type == "" {
		c.Queue.Type = "memory"
	}

	if c.Queue.BufferSize <= 0 {
		c.Queue.BufferSize = 100
	}

	if c.Queue.Type == "rabbitmq" && c.Queue.RabbitMQ.QueueName == "" {
		c.Queue.RabbitMQ.QueueName = "bakbak.ingest"
	}

	return nil
}
