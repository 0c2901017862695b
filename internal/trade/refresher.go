package trade

import (
	"context"
	"log"
	"time"

	"secondhand-market-server/internal/models"
)

// RefreshStore is the persistence surface the code refresher needs.
// *Service implements it on the shared database.
type RefreshStore interface {
	// DueForCodeRefresh returns AGREED transactions whose code expires
	// at or before the cutoff.
	DueForCodeRefresh(ctx context.Context, cutoff time.Time) ([]models.Transaction, error)
	// SaveRefreshedCode persists the rotated code fields.
	SaveRefreshedCode(ctx context.Context, tx *models.Transaction) error
}

// Refresher periodically rotates verification codes that are close to
// expiring, so an agreed meetup that slips a day keeps a working code.
// Interval and Now are injectable so the sweep is testable without
// waiting on wall-clock time.
type Refresher struct {
	Store    RefreshStore
	Interval time.Duration
	Now      func() time.Time
}

// NewRefresher creates a refresher with the given sweep interval.
func NewRefresher(store RefreshStore, interval time.Duration) *Refresher {
	return &Refresher{
		Store:    store,
		Interval: interval,
		Now:      time.Now,
	}
}

// Run sweeps on the configured interval until the context ends.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce performs a single sweep. Each transaction is rotated
// independently: one failing row is logged and skipped, never aborting
// the rest of the batch. It returns how many codes were rotated.
func (r *Refresher) RefreshOnce(ctx context.Context) int {
	now := r.Now()
	cutoff := now.Add(models.CodeLifetime)

	due, err := r.Store.DueForCodeRefresh(ctx, cutoff)
	if err != nil {
		log.Printf("trade: code refresh sweep failed: %v", err)
		return 0
	}

	refreshed := 0
	for i := range due {
		tx := &due[i]
		expiry := now.Add(models.CodeLifetime)
		tx.Code = models.GenerateTransactionCode()
		tx.CodeExpiresAt = &expiry
		tx.CodeRefreshCount++
		if err := r.Store.SaveRefreshedCode(ctx, tx); err != nil {
			log.Printf("trade: code refresh for transaction %s failed: %v", tx.ID, err)
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		log.Printf("trade: refreshed %d pickup codes", refreshed)
	}
	return refreshed
}

// DueForCodeRefresh returns AGREED transactions whose code expires at or
// before the cutoff, oldest expiry first.
func (s *Service) DueForCodeRefresh(ctx context.Context, cutoff time.Time) ([]models.Transaction, error) {
	var due []models.Transaction
	err := s.DB.WithContext(ctx).
		Where("status = ? AND code_expires_at IS NOT NULL AND code_expires_at <= ?",
			models.TransactionStatusAgreed, cutoff).
		Order("code_expires_at ASC").
		Find(&due).Error
	return due, err
}

// SaveRefreshedCode persists only the rotated code fields.
func (s *Service) SaveRefreshedCode(ctx context.Context, tx *models.Transaction) error {
	return s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", tx.ID).
		Updates(map[string]interface{}{
			"code":               tx.Code,
			"code_expires_at":    tx.CodeExpiresAt,
			"code_refresh_count": tx.CodeRefreshCount,
		}).Error
}
