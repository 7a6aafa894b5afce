package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，COURIER_ 前缀的环境变量可覆盖文件配置
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("COURIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("webhook.max_body_bytes", 1<<20)
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "courier")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("elastic.indices.message_index", "courier-messages")
	v.SetDefault("minio.bucket", "courier-webhooks")
	v.SetDefault("minio.retention_days", 30)
	v.SetDefault("logstash.index", "logstash-courier")
	v.SetDefault("kafka_webhook_consumer.topic", "courier-webhooks")
	v.SetDefault("kafka_webhook_consumer.group_id", "courier-ingest")
	v.SetDefault("kafka_event_producer.topic", "courier-events")
	v.SetDefault("callback.timeout", 5)
	v.SetDefault("callback.retries", 2)
	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.buffer", 1024)
	v.SetDefault("dispatcher.timeout", 3)
	v.SetDefault("delivery.spec", "@every 5s")
	v.SetDefault("delivery.delivered_after", 3)
	v.SetDefault("delivery.read_after", 10)
	v.SetDefault("conversation.cache_ttl", 60)
	v.SetDefault("conversation.default_page_size", 50)
	v.SetDefault("conversation.max_page_size", 200)
}
