package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/metrics"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// ExportService queues CSV exports and processes them on a background
// worker, one job at a time. Files land in the configured directory
// under a uuid name so repeated exports never clash.
type ExportService struct {
	exportRepo     repositories.ExportRepository
	withdrawalRepo repositories.WithdrawalRepository
	accountRepo    repositories.AccountRepository
	referralRepo   repositories.ReferralRepository
	logger         logger.Logger
	dir            string
	interval       time.Duration
	wg             *sync.WaitGroup
	done           chan struct{}
	stopOnce       sync.Once
}

func NewExportService(
	exportRepo repositories.ExportRepository,
	withdrawalRepo repositories.WithdrawalRepository,
	accountRepo repositories.AccountRepository,
	referralRepo repositories.ReferralRepository,
	logger logger.Logger,
	config *config.Config,
) (*ExportService, error) {
	if exportRepo == nil {
		return nil, errors.New("nil dependency: export repository")
	}
	if withdrawalRepo == nil {
		return nil, errors.New("nil dependency: withdrawal repository")
	}
	if accountRepo == nil {
		return nil, errors.New("nil dependency: account repository")
	}
	if referralRepo == nil {
		return nil, errors.New("nil dependency: referral repository")
	}
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}
	return &ExportService{
		exportRepo:     exportRepo,
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
		referralRepo:   referralRepo,
		logger:         logger,
		dir:            config.Export.Dir,
		interval:       config.Export.Interval,
		wg:             &sync.WaitGroup{},
		done:           make(chan struct{}),
	}, nil
}

// Enqueue registers a new export job for the worker.
func (s *ExportService) Enqueue(ctx context.Context, adminID int64, kind entities.ExportKind) (*entities.ExportJob, error) {
	return s.exportRepo.CreateJob(ctx, adminID, kind)
}

func (s *ExportService) GetJob(ctx context.Context, id int64) (*entities.ExportJob, error) {
	return s.exportRepo.GetJob(ctx, id)
}

// Run starts the background worker.
func (s *ExportService) Run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
}

// Stop signals the worker and waits for the job in flight to finish.
func (s *ExportService) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *ExportService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.drain()
		}
	}
}

// drain claims and processes pending jobs until the queue is empty.
func (s *ExportService) drain() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		job, err := s.exportRepo.ClaimNextJob(context.Background())
		if err != nil {
			if !errors.Is(err, errs.ErrNotFound) {
				s.logger.Errorf("claim export job: %s", err)
			}
			return
		}

		s.process(job)
	}
}

func (s *ExportService) process(job *entities.ExportJob) {
	ctx := context.Background()

	path, err := s.write(ctx, job.Kind)
	if err != nil {
		s.logger.Errorf("export job %d failed: %s", job.ID, err)
		metrics.ExportJobsTotal.WithLabelValues("failed").Inc()

		if err = s.exportRepo.FinishJob(ctx, job.ID, entities.ExportFailed, "", err.Error()); err != nil {
			s.logger.Errorf("finish export job %d: %s", job.ID, err)
		}
		return
	}

	metrics.ExportJobsTotal.WithLabelValues("done").Inc()

	if err = s.exportRepo.FinishJob(ctx, job.ID, entities.ExportDone, path, ""); err != nil {
		s.logger.Errorf("finish export job %d: %s", job.ID, err)
	}
}

func (s *ExportService) write(ctx context.Context, kind entities.ExportKind) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", kind, uuid.NewString())
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	switch kind {
	case entities.ExportWithdrawals:
		err = s.writeWithdrawals(ctx, w)
	case entities.ExportTransactions:
		err = s.writeTransactions(ctx, w)
	case entities.ExportReferrals:
		err = s.writeReferrals(ctx, w)
	default:
		err = fmt.Errorf("unknown export kind %q", kind)
	}
	if err != nil {
		return "", err
	}

	w.Flush()
	if err = w.Error(); err != nil {
		return "", fmt.Errorf("flush export file: %w", err)
	}

	return path, nil
}

func (s *ExportService) writeWithdrawals(ctx context.Context, w *csv.Writer) error {
	rows, err := s.withdrawalRepo.ListAllWithdrawals(ctx)
	if err != nil {
		return err
	}

	if err = w.Write([]string{"id", "user_id", "amount_sum", "method", "destination_masked", "status", "admin_id", "created_at"}); err != nil {
		return err
	}

	for _, r := range rows {
		adminID := ""
		if r.AdminID != nil {
			adminID = strconv.FormatInt(*r.AdminID, 10)
		}
		err = w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.UserID, 10),
			strconv.FormatInt(r.Amount, 10),
			string(r.Method),
			r.DestinationMasked,
			string(r.Status),
			adminID,
			r.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *ExportService) writeTransactions(ctx context.Context, w *csv.Writer) error {
	rows, err := s.accountRepo.ListAllTransactions(ctx)
	if err != nil {
		return err
	}

	if err = w.Write([]string{"id", "user_id", "type", "amount_sum", "ref_id", "created_at"}); err != nil {
		return err
	}

	for _, r := range rows {
		refID := ""
		if r.RefID != nil {
			refID = strconv.FormatInt(*r.RefID, 10)
		}
		err = w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.UserID, 10),
			string(r.Type),
			strconv.FormatInt(r.Amount, 10),
			refID,
			r.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *ExportService) writeReferrals(ctx context.Context, w *csv.Writer) error {
	rows, err := s.referralRepo.ListAllReferrals(ctx)
	if err != nil {
		return err
	}

	if err = w.Write([]string{"id", "referrer_user_id", "referred_user_id", "bonus_sum", "status", "created_at"}); err != nil {
		return err
	}

	for _, r := range rows {
		err = w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.ReferrerUserID, 10),
			strconv.FormatInt(r.ReferredUserID, 10),
			strconv.FormatInt(r.BonusSum, 10),
			string(r.Status),
			r.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}

	return nil
}
