package processor

import (
	"context"
	"log"

	"autoreply/internal/app/autoreply/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler запускает периодические задачи пайплайна:
// обработку очереди, очистку старых данных и проверку уведомлений
type CronScheduler struct {
	cron            *cron.Cron
	queueSvc        service.QueueServiceInterface
	notificationSvc service.NotificationServiceInterface
}

func NewCronScheduler(queueSvc service.QueueServiceInterface, notificationSvc service.NotificationServiceInterface) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))

	return &CronScheduler{
		cron:            c,
		queueSvc:        queueSvc,
		notificationSvc: notificationSvc,
	}
}

// Start регистрирует задачи и запускает планировщик
func (s *CronScheduler) Start(ctx context.Context, queueDrainSchedule, cleanupSchedule, notificationsSchedule string) error {
	log.Printf("Starting cron scheduler (queue: %s, cleanup: %s, notifications: %s)",
		queueDrainSchedule, cleanupSchedule, notificationsSchedule)

	_, err := s.cron.AddFunc(queueDrainSchedule, func() {
		log.Println("Cron job triggered: draining review queue")
		if err := s.queueSvc.Drain(ctx); err != nil {
			log.Printf("ERROR: Failed to drain review queue: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(cleanupSchedule, func() {
		log.Println("Cron job triggered: cleaning up old data")
		if err := s.queueSvc.CleanupOldData(ctx); err != nil {
			log.Printf("ERROR: Failed to clean up old data: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(notificationsSchedule, func() {
		log.Println("Cron job triggered: checking notifications")
		if err := s.notificationSvc.CheckAndNotify(ctx); err != nil {
			log.Printf("ERROR: Failed to check notifications: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("Cron scheduler started")

	return nil
}

func (s *CronScheduler) Stop() {
	log.Println("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
