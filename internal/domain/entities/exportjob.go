package entities

import (
	"fmt"
	"time"
)

type ExportKind string

const (
	ExportWithdrawals  ExportKind = "WITHDRAWALS"
	ExportTransactions ExportKind = "TRANSACTIONS"
	ExportReferrals    ExportKind = "REFERRALS"
)

// ParseExportKind validates an export kind coming off the wire.
func ParseExportKind(s string) (ExportKind, error) {
	switch k := ExportKind(s); k {
	case ExportWithdrawals, ExportTransactions, ExportReferrals:
		return k, nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

type ExportStatus string

const (
	ExportPending ExportStatus = "PENDING"
	ExportRunning ExportStatus = "RUNNING"
	ExportDone    ExportStatus = "DONE"
	ExportFailed  ExportStatus = "FAILED"
)

// ExportJob is one queued CSV export, processed asynchronously by the
// export worker.
type ExportJob struct {
	ID        int64
	AdminID   int64
	Kind      ExportKind
	Status    ExportStatus
	FilePath  string
	Error     string
	CreatedAt time.Time
}
