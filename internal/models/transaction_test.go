package models

import (
	"testing"
	"time"
)

func TestGenerateTransactionCodeFormat(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		code := GenerateTransactionCode()
		if len(code) != 4 {
			t.Fatalf("expected 4-character code, got %q", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestParseTransactionID(t *testing.T) {
	t.Parallel()

	tx := Transaction{BaseModel: BaseModel{ID: "abc-123"}}
	public := tx.PublicID()
	if public != "tx_abc-123" {
		t.Errorf("expected prefixed id, got %q", public)
	}
	if ParseTransactionID(public) != "abc-123" {
		t.Errorf("round trip failed: %q", ParseTransactionID(public))
	}
	// Bare ids pass through unchanged.
	if ParseTransactionID("abc-123") != "abc-123" {
		t.Error("bare ids must be accepted as-is")
	}
}

func TestCodeMatches(t *testing.T) {
	t.Parallel()

	tx := Transaction{Code: "0042"}
	if !tx.CodeMatches("0042") {
		t.Error("expected exact code to match")
	}
	if tx.CodeMatches("42") {
		t.Error("leading zeros are significant")
	}

	empty := Transaction{}
	if empty.CodeMatches("") {
		t.Error("a transaction without a code must never match")
	}
}

func TestCodeExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	none := Transaction{}
	if !none.CodeExpired(now) {
		t.Error("a transaction without an expiry counts as expired")
	}

	future := now.Add(time.Hour)
	tx := Transaction{CodeExpiresAt: &future}
	if tx.CodeExpired(now) {
		t.Error("a code before its expiry must be valid")
	}
	if !tx.CodeExpired(future) {
		t.Error("a code at its expiry instant must be expired")
	}
}

func TestTransactionParties(t *testing.T) {
	t.Parallel()

	tx := Transaction{BuyerID: "buyer", SellerID: "seller"}
	if !tx.IsParty("buyer") || !tx.IsParty("seller") {
		t.Error("both sides are parties")
	}
	if tx.IsParty("other") {
		t.Error("strangers are not parties")
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	for _, status := range []TransactionStatus{TransactionStatusInquiry, TransactionStatusAgreed} {
		tx := Transaction{Status: status}
		if tx.Terminal() {
			t.Errorf("%s must not be terminal", status)
		}
	}
	for _, status := range []TransactionStatus{TransactionStatusCompleted, TransactionStatusCancelled} {
		tx := Transaction{Status: status}
		if !tx.Terminal() {
			t.Errorf("%s must be terminal", status)
		}
	}
}
