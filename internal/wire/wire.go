package wire

import (
	"Courier/internal/api"
	"Courier/internal/api/config"
	"Courier/internal/api/handler"
	"Courier/internal/job"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/cron"
	"Courier/internal/pkg/es"
	"Courier/internal/pkg/kafka"
	"Courier/internal/pkg/minio"
	"Courier/internal/pkg/mongo"
	"Courier/internal/pkg/notify"
	"Courier/internal/pkg/redis"
	"Courier/internal/repository"
	"Courier/internal/service"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	mongoDriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	Dispatcher    *broadcast.Dispatcher
	EventProducer *kafka.EventProducer
	// KafkaManager 未启用 webhook 消费时为 nil
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongoDriver.Database, cfg *config.Config) (*ApplicationContainer, error) {
	app := &ApplicationContainer{DB: db}

	// 事件下游
	sinks := []broadcast.Broadcaster{redis.NewEventPublisher()}
	if cfg.KafkaEventProducer.Enable {
		producer, err := kafka.NewEventProducer(cfg)
		if err != nil {
			return nil, err
		}
		app.EventProducer = producer
		sinks = append(sinks, producer)
	}
	var searcher es.MessageRepo
	if cfg.Elastic.Enable {
		esRepo := es.NewMessageRepo(es.Client)
		searcher = esRepo
		sinks = append(sinks, es.NewIndexer(esRepo))
	}
	if cfg.Callback.URL != "" {
		sinks = append(sinks, notify.NewCallbackBroadcaster(cfg.Callback))
	}
	app.Dispatcher = broadcast.NewDispatcher(
		cfg.Dispatcher.Workers,
		cfg.Dispatcher.Buffer,
		time.Duration(cfg.Dispatcher.Timeout)*time.Second,
		sinks...,
	)

	messageRepo := mongo.NewMessageRepo(mongoDB)
	contactRepo := repository.NewContactRepo(db)
	summaryCache := redis.NewSummaryCache(time.Duration(cfg.Conversation.CacheTTL) * time.Second)

	ingestService := service.NewIngestService(messageRepo, app.Dispatcher, summaryCache, contactRepo)
	conversationService := service.NewConversationService(messageRepo, app.Dispatcher, summaryCache, cfg.Conversation)
	messageService := service.NewMessageService(messageRepo, app.Dispatcher, summaryCache, searcher)
	contactService := service.NewContactService(contactRepo)

	var archive handler.ArchiveFunc
	if cfg.MinIO.Enable {
		archive = minio.ArchivePayload
	}

	handlers := &api.HandlersGroup{
		WebhookHandler: handler.NewWebhookHandler(ingestService, archive),
		IMHandler:      handler.NewIMHandler(conversationService, messageService),
		WSHandler:      handler.NewWsHandler(),
		ContactHandler: handler.NewContactHandler(contactService),
	}
	app.Router = api.SetupRouter(handlers, cfg)

	if cfg.KafkaWebhookConsumer.Enable {
		kafkaMgr, err := kafka.NewConsumerManager(cfg, ingestService)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.KafkaManager = kafkaMgr
	}

	deliveryJob := job.NewDeliverySimulationJob(messageService, cfg.Delivery)
	app.CronMgr = cron.NewCronManager(cfg.Delivery, deliveryJob)

	return app, nil
}

// Close 先排空事件队列，再关闭依赖它的下游
func (a *ApplicationContainer) Close() {
	if a.Dispatcher != nil {
		a.Dispatcher.Close()
	}
	if a.EventProducer != nil {
		if err := a.EventProducer.Close(); err != nil {
			log.Error("Failed to close event producer", "err", err)
		}
	}
}
