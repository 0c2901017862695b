package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"secondhand-market-server/internal/models"
)

type fakeRefreshStore struct {
	due      []models.Transaction
	dueErr   error
	saved    []models.Transaction
	failSave map[string]bool
}

func (f *fakeRefreshStore) DueForCodeRefresh(ctx context.Context, cutoff time.Time) ([]models.Transaction, error) {
	return f.due, f.dueErr
}

func (f *fakeRefreshStore) SaveRefreshedCode(ctx context.Context, tx *models.Transaction) error {
	if f.failSave[tx.ID] {
		return errors.New("save failed")
	}
	f.saved = append(f.saved, *tx)
	return nil
}

func agreedTransaction(id string, expiry time.Time) models.Transaction {
	return models.Transaction{
		BaseModel:     models.BaseModel{ID: id},
		Status:        models.TransactionStatusAgreed,
		Code:          "1111",
		CodeExpiresAt: &expiry,
	}
}

func TestRefreshOnceRotatesDueCodes(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	soon := now.Add(time.Hour)

	store := &fakeRefreshStore{
		due: []models.Transaction{
			agreedTransaction("tx-1", soon),
			agreedTransaction("tx-2", soon),
		},
	}
	r := NewRefresher(store, time.Hour)
	r.Now = func() time.Time { return now }

	if got := r.RefreshOnce(context.Background()); got != 2 {
		t.Fatalf("expected 2 refreshed codes, got %d", got)
	}

	wantExpiry := now.Add(models.CodeLifetime)
	for _, saved := range store.saved {
		if saved.CodeExpiresAt == nil || !saved.CodeExpiresAt.Equal(wantExpiry) {
			t.Errorf("transaction %s: expected expiry %v, got %v", saved.ID, wantExpiry, saved.CodeExpiresAt)
		}
		if saved.CodeRefreshCount != 1 {
			t.Errorf("transaction %s: expected refresh count 1, got %d", saved.ID, saved.CodeRefreshCount)
		}
		if len(saved.Code) != 4 {
			t.Errorf("transaction %s: expected a 4-character code, got %q", saved.ID, saved.Code)
		}
	}
}

func TestRefreshOnceIsolatesRowFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	soon := now.Add(time.Hour)

	store := &fakeRefreshStore{
		due: []models.Transaction{
			agreedTransaction("tx-1", soon),
			agreedTransaction("tx-2", soon),
			agreedTransaction("tx-3", soon),
		},
		failSave: map[string]bool{"tx-2": true},
	}
	r := NewRefresher(store, time.Hour)
	r.Now = func() time.Time { return now }

	if got := r.RefreshOnce(context.Background()); got != 2 {
		t.Fatalf("expected the batch to continue past the failing row, got %d refreshed", got)
	}
	if len(store.saved) != 2 {
		t.Fatalf("expected 2 saved rows, got %d", len(store.saved))
	}
	for _, saved := range store.saved {
		if saved.ID == "tx-2" {
			t.Error("the failing row must not be recorded as saved")
		}
	}
}

func TestRefreshOnceSweepError(t *testing.T) {
	t.Parallel()

	store := &fakeRefreshStore{dueErr: errors.New("db down")}
	r := NewRefresher(store, time.Hour)

	if got := r.RefreshOnce(context.Background()); got != 0 {
		t.Fatalf("expected 0 refreshed on sweep error, got %d", got)
	}
}

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"13812345678", "138****5678"},
		{"555123", "555123"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MaskPhone(tc.in); got != tc.want {
			t.Errorf("MaskPhone(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
