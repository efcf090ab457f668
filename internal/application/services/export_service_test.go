package services

import (
	"context"
	"encoding/csv"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExportRepository struct {
	jobs   []*entities.ExportJob
	nextID int64
	mu     sync.Mutex
}

func (m *mockExportRepository) CreateJob(_ context.Context, adminID int64, kind entities.ExportKind) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job := &entities.ExportJob{
		ID:        m.nextID,
		AdminID:   adminID,
		Kind:      kind,
		Status:    entities.ExportPending,
		CreatedAt: time.Now(),
	}
	m.jobs = append(m.jobs, job)
	copied := *job
	return &copied, nil
}

func (m *mockExportRepository) GetJob(_ context.Context, id int64) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.ID == id {
			copied := *job
			return &copied, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockExportRepository) ClaimNextJob(_ context.Context) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.Status == entities.ExportPending {
			job.Status = entities.ExportRunning
			copied := *job
			return &copied, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockExportRepository) FinishJob(_ context.Context, id int64, status entities.ExportStatus, filePath, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.ID == id {
			job.Status = status
			job.FilePath = filePath
			job.Error = errMsg
			return nil
		}
	}
	return errs.ErrNotFound
}

func newExportFixture(t *testing.T, withdrawalRepo *mockWithdrawalRepository) (*ExportService, *mockExportRepository) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Export.Dir = t.TempDir()
	cfg.Export.Interval = 10 * time.Millisecond

	exportRepo := &mockExportRepository{}

	service, err := NewExportService(
		exportRepo, withdrawalRepo, newMockAccountRepository(nil), &mockReferralRepository{},
		logger.NewNop(), cfg)
	require.NoError(t, err)

	return service, exportRepo
}

func TestExportService_Drain(t *testing.T) {
	adminID := int64(7)
	withdrawalRepo := &mockWithdrawalRepository{
		items: []*entities.Withdrawal{
			{
				ID:                1,
				UserID:            1,
				Amount:            20000,
				Method:            entities.CARD,
				DestinationMasked: "1234 **** **** 5678",
				Status:            entities.PAID,
				AdminID:           &adminID,
				CreatedAt:         time.Now(),
			},
		},
		nextID: 1,
	}

	service, _ := newExportFixture(t, withdrawalRepo)
	ctx := context.Background()

	queued, err := service.Enqueue(ctx, 7, entities.ExportWithdrawals)
	require.NoError(t, err)
	assert.Equal(t, entities.ExportPending, queued.Status)

	service.drain()

	job, err := service.GetJob(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ExportDone, job.Status)
	assert.Empty(t, job.Error)
	require.NotEmpty(t, job.FilePath)

	f, err := os.Open(job.FilePath)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "destination_masked", records[0][4])
	assert.Equal(t, "1234 **** **** 5678", records[1][4])
	assert.Equal(t, "PAID", records[1][5])
}

func TestExportService_RunStop(t *testing.T) {
	service, _ := newExportFixture(t, &mockWithdrawalRepository{})

	_, err := service.Enqueue(context.Background(), 7, entities.ExportTransactions)
	require.NoError(t, err)

	service.Run()
	time.Sleep(50 * time.Millisecond)
	service.Stop()

	job, err := service.GetJob(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entities.ExportDone, job.Status)
}
