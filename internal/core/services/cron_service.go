package services

import (
	"context"
	"fmt"
	"time"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"
	"microloan/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAuditSchedule runs the fee drift audit twice an hour
const DefaultAuditSchedule = "@every 30m"

const auditBatchSize = 100

// CronService runs scheduled maintenance jobs
type CronService struct {
	appRepo  repositories.ApplicationRepository
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

// NewCronService creates a new cron service
func NewCronService(appRepo repositories.ApplicationRepository, schedule string, log *zap.Logger) *CronService {
	if schedule == "" {
		schedule = DefaultAuditSchedule
	}
	return &CronService{
		appRepo:  appRepo,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		log:      logger.OrNop(log),
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.AuditFeeDrift(ctx); err != nil {
			s.log.Error("fee drift audit failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule fee drift audit %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("cron service started", zap.String("audit_schedule", s.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron service stopped")
}

// AuditFeeDrift reports applications marked paid that have no payment record.
// Such rows are left for an operator; nothing is repaired automatically.
func (s *CronService) AuditFeeDrift(ctx context.Context) ([]*domain.Application, error) {
	apps, err := s.appRepo.ListPaidWithoutPayment(ctx, auditBatchSize)
	if err != nil {
		return nil, upstream("list paid applications without payment", err)
	}
	for _, app := range apps {
		tracking := ""
		if app.TrackingID != nil {
			tracking = *app.TrackingID
		}
		s.log.Warn("paid application has no payment record",
			zap.String("application_id", app.ID),
			zap.String("borrower", app.BorrowerEmail),
			zap.String("tracking_id", tracking),
		)
	}
	if len(apps) > 0 {
		s.log.Warn("fee drift detected", zap.Int("count", len(apps)))
	}
	return apps, nil
}
