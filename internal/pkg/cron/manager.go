package cron

import (
	"Courier/internal/api/config"
	"Courier/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine      *cron.Cron
	cfg         config.DeliveryConfig
	deliveryJob *job.DeliverySimulationJob
}

func NewCronManager(cfg config.DeliveryConfig, deliveryJob *job.DeliverySimulationJob) *Manager {
	return &Manager{
		engine:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:         cfg,
		deliveryJob: deliveryJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if !s.cfg.Enable {
		log.Info("delivery simulation disabled")
		return nil
	}
	if _, err := s.engine.AddJob(s.cfg.Spec, s.deliveryJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
