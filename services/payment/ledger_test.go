package payment

import (
	"context"
	"errors"
	"testing"

	"interlingo/models"
)

func TestLedgerAuthorizeCaptureCycle(t *testing.T) {
	ledger := NewLedgerAdapter()
	ledger.Deposit("corp-acct", 200.0)

	auth, err := ledger.Authorize(context.Background(), 120.0, "EUR", "corp-acct", "appt-1:1")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if !auth.Success || auth.ProviderReference == "" {
		t.Fatalf("unexpected authorize result: %+v", auth)
	}
	if got := ledger.Balance("corp-acct"); got != 80.0 {
		t.Errorf("hold must reduce the balance, got %v", got)
	}

	captured, err := ledger.Capture(context.Background(), "item-1", auth.ProviderReference, 120.0)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !captured.Success {
		t.Fatalf("unexpected capture result: %+v", captured)
	}

	// A fully consumed hold cannot be released.
	if _, err := ledger.CancelAuthorization(context.Background(), auth.ProviderReference); err == nil {
		t.Error("expected release of a consumed hold to fail")
	}
}

func TestLedgerAuthorizeInsufficientBalance(t *testing.T) {
	ledger := NewLedgerAdapter()
	ledger.Deposit("corp-acct", 50.0)

	_, err := ledger.Authorize(context.Background(), 120.0, "EUR", "corp-acct", "appt-2:1")
	if !errors.Is(err, ErrProviderRejected) {
		t.Fatalf("expected ErrProviderRejected, got %v", err)
	}
	if got := ledger.Balance("corp-acct"); got != 50.0 {
		t.Errorf("declined authorization must not touch the balance, got %v", got)
	}
}

func TestLedgerAuthorizeIdempotencyReplay(t *testing.T) {
	ledger := NewLedgerAdapter()
	ledger.Deposit("corp-acct", 100.0)

	first, err := ledger.Authorize(context.Background(), 60.0, "EUR", "corp-acct", "appt-3:1")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	replay, err := ledger.Authorize(context.Background(), 60.0, "EUR", "corp-acct", "appt-3:1")
	if err != nil {
		t.Fatalf("replayed Authorize failed: %v", err)
	}
	if replay.ProviderReference != first.ProviderReference {
		t.Errorf("replay must return the original hold, got %s vs %s", replay.ProviderReference, first.ProviderReference)
	}
	if got := ledger.Balance("corp-acct"); got != 40.0 {
		t.Errorf("replay must not place a second hold, got balance %v", got)
	}
}

func TestLedgerCancelReleasesHold(t *testing.T) {
	ledger := NewLedgerAdapter()
	ledger.Deposit("corp-acct", 100.0)

	auth, err := ledger.Authorize(context.Background(), 75.0, "EUR", "corp-acct", "appt-4:1")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if _, err := ledger.CancelAuthorization(context.Background(), auth.ProviderReference); err != nil {
		t.Fatalf("CancelAuthorization failed: %v", err)
	}
	if got := ledger.Balance("corp-acct"); got != 100.0 {
		t.Errorf("release must restore the balance, got %v", got)
	}
}

func TestLedgerTransferCreditsDestination(t *testing.T) {
	ledger := NewLedgerAdapter()

	result, err := ledger.Transfer(context.Background(), "interp-acct", 85.0, "EUR", models.TransferContextOptions{})
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected transfer result: %+v", result)
	}
	if got := ledger.Balance("interp-acct"); got != 85.0 {
		t.Errorf("transfer must credit the destination, got %v", got)
	}
}
