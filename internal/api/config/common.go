package config

// Config 配置主体
type Config struct {
	Server               ServerConfig               `mapstructure:"server"`
	Webhook              WebhookConfig              `mapstructure:"webhook"`
	DB                   DBConfig                   `mapstructure:"database"`
	Redis                RedisConfig                `mapstructure:"redis"`
	Mongo                MongoConfig                `mapstructure:"mongo"`
	MinIO                MinIOConfig                `mapstructure:"minio"`
	Elastic              ElasticConfig              `mapstructure:"elastic"`
	Logstash             LogstashConfig             `mapstructure:"logstash"`
	Kafka                KafkaConfig                `mapstructure:"kafka"`
	KafkaWebhookConsumer KafkaWebhookConsumerConfig `mapstructure:"kafka_webhook_consumer"`
	KafkaEventProducer   KafkaEventProducerConfig   `mapstructure:"kafka_event_producer"`
	Callback             CallbackConfig             `mapstructure:"callback"`
	Dispatcher           DispatcherConfig           `mapstructure:"dispatcher"`
	Delivery             DeliveryConfig             `mapstructure:"delivery"`
	Conversation         ConversationConfig         `mapstructure:"conversation"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// WebhookConfig 入站 webhook，Token 为空时不校验
type WebhookConfig struct {
	Token        string `mapstructure:"token"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置，用于归档原始 webhook 负载
type MinIOConfig struct {
	Enable    bool   `mapstructure:"enable"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// RetentionDays 归档保留天数，0 表示不过期
	RetentionDays int `mapstructure:"retention_days"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Address  string         `mapstructure:"address"`
	Username string         `mapstructure:"username"`
	Password string         `mapstructure:"password"`
	Indices  ElasticIndices `mapstructure:"indices"`
}

// ElasticIndices Elastic索引
type ElasticIndices struct {
	MessageIndex string `mapstructure:"message_index"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaWebhookConsumerConfig 从 Kafka 拉取 webhook 原始负载
type KafkaWebhookConsumerConfig struct {
	Enable  bool   `mapstructure:"enable"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// KafkaEventProducerConfig 将消息事件写入 Kafka
type KafkaEventProducerConfig struct {
	Enable bool   `mapstructure:"enable"`
	Topic  string `mapstructure:"topic"`
}

// CallbackConfig 事件 HTTP 回调
type CallbackConfig struct {
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
	Timeout int    `mapstructure:"timeout"`
	Retries int    `mapstructure:"retries"`
}

// DispatcherConfig 事件分发工作池
type DispatcherConfig struct {
	Workers int `mapstructure:"workers"`
	Buffer  int `mapstructure:"buffer"`
	Timeout int `mapstructure:"timeout"`
}

// DeliveryConfig 本地消息投递进度模拟
type DeliveryConfig struct {
	Enable         bool   `mapstructure:"enable"`
	Spec           string `mapstructure:"spec"`
	DeliveredAfter int    `mapstructure:"delivered_after"`
	ReadAfter      int    `mapstructure:"read_after"`
}

type ConversationConfig struct {
	CacheTTL        int `mapstructure:"cache_ttl"`
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}
