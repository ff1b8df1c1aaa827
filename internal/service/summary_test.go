package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sati-centro/consulta-booking/internal/model"
)

func TestSummaryTotals(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	ledger.add(&model.Payment{UserID: 1, Amount: "100.00", Status: model.PaymentSucceeded})
	ledger.add(&model.Payment{UserID: 1, Amount: "25.50", Status: model.PaymentPaid})
	ledger.add(&model.Payment{UserID: 1, Amount: "40.00", Status: model.PaymentPending})
	ledger.add(&model.Payment{UserID: 1, Amount: "99.00", Status: model.PaymentFailed})
	ledger.add(&model.Payment{UserID: 2, Amount: "77.00", Status: model.PaymentSucceeded})

	s, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.TotalPaid != "125.50" {
		t.Errorf("total paid = %q, want 125.50", s.TotalPaid)
	}
	if s.PendingCharges != "40.00" {
		t.Errorf("pending = %q, want 40.00", s.PendingCharges)
	}
	if len(s.Recent) != 4 {
		t.Errorf("recent has %d rows, want 4 (other users excluded)", len(s.Recent))
	}
}

func TestSummaryRecentIsCapped(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	for i := 0; i < recentMovements+5; i++ {
		ledger.add(&model.Payment{UserID: 1, Amount: "10.00", Status: model.PaymentSucceeded,
			Concept: fmt.Sprintf("cuota %d", i)})
	}
	s, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(s.Recent) != recentMovements {
		t.Errorf("recent has %d rows, want %d", len(s.Recent), recentMovements)
	}
	// Newest first.
	if s.Recent[0].Concept != fmt.Sprintf("cuota %d", recentMovements+4) {
		t.Errorf("first movement = %q", s.Recent[0].Concept)
	}
}

func TestSummaryNextPaymentDate(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	settledAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	ledger.add(&model.Payment{UserID: 1, Amount: "50.00", Status: model.PaymentSucceeded, CreatedAt: settledAt})

	s, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.NextPaymentDate == nil {
		t.Fatal("next payment date missing")
	}
	want := settledAt.Add(nextPaymentInterval).Format(time.RFC3339)
	if *s.NextPaymentDate != want {
		t.Errorf("next payment date = %q, want %q", *s.NextPaymentDate, want)
	}
}

func TestSummaryNoSettledPaymentsHasNoNextDate(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	ledger.add(&model.Payment{UserID: 1, Amount: "50.00", Status: model.PaymentPending})
	s, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.NextPaymentDate != nil {
		t.Errorf("next payment date = %q, want none", *s.NextPaymentDate)
	}
}

func TestSummaryUsesCacheUntilInvalidated(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	r.Cache = NewSummaryCache(nil)
	ledger.add(&model.Payment{UserID: 1, Amount: "50.00", Status: model.PaymentPending})

	first, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// A ledger write without invalidation is not visible yet.
	ledger.add(&model.Payment{UserID: 1, Amount: "30.00", Status: model.PaymentPending})
	cached, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if cached.PendingCharges != first.PendingCharges {
		t.Errorf("cached pending = %q, want %q", cached.PendingCharges, first.PendingCharges)
	}
	r.Cache.Invalidate(context.Background(), 1)
	fresh, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if fresh.PendingCharges != "80.00" {
		t.Errorf("fresh pending = %q, want 80.00", fresh.PendingCharges)
	}
}
