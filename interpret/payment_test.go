package interpret

import "testing"

func TestDetectPaymentExplicit(t *testing.T) {
	tests := []struct {
		text   string
		status PaymentStatus
		conf   Confidence
	}{
		{"Somchai orders coke 5 already paid", PaymentPaid, ConfidenceHigh},
		{"Somchai orders coke 5 paid in full", PaymentPaid, ConfidenceHigh},
		{"Somchai orders coke 5 not yet paid", PaymentUnpaid, ConfidenceHigh},
		{"Somchai orders coke 5 on credit", PaymentUnpaid, ConfidenceHigh},
		{"Somchai orders coke 5", PaymentUnknown, ConfidenceLow},
	}

	for _, tt := range tests {
		got := DetectPayment(tt.text, DefaultPaidPositionCutoff)
		if got.Status != tt.status || got.Confidence != tt.conf {
			t.Errorf("DetectPayment(%q) = %v/%v, want %v/%v",
				tt.text, got.Status, got.Confidence, tt.status, tt.conf)
		}
	}
}

func TestDetectPaymentPositionalTieBreak(t *testing.T) {
	// Голый глагол в хвосте текста трактуется как "оплачено", в начале -
	// как "не оплачено"; в обоих случаях только medium, и это должно
	// дойти до вызывающего
	late := DetectPayment("somchai orders ice tube and coke bottles today paid", DefaultPaidPositionCutoff)
	if late.Status != PaymentPaid {
		t.Errorf("trailing bare verb: status = %v, want paid", late.Status)
	}
	if late.Confidence != ConfidenceMedium {
		t.Errorf("trailing bare verb: confidence = %v, want medium", late.Confidence)
	}

	early := DetectPayment("paid orders from somchai for ice tube and coke bottles", DefaultPaidPositionCutoff)
	if early.Status != PaymentUnpaid {
		t.Errorf("leading bare verb: status = %v, want unpaid", early.Status)
	}
	if early.Confidence != ConfidenceMedium {
		t.Errorf("leading bare verb: confidence = %v, want medium", early.Confidence)
	}
}

func TestHasCreditKeywords(t *testing.T) {
	if !HasCreditKeywords("Somchai orders coke, put it on the tab") {
		t.Error("tab phrase not detected")
	}
	if !HasCreditKeywords("somchai owes for the rice") {
		t.Error("owes not detected")
	}
	if HasCreditKeywords("somchai orders coke 5") {
		t.Error("false positive credit detection")
	}
}

func TestDetectPaymentEmptyText(t *testing.T) {
	got := DetectPayment("", DefaultPaidPositionCutoff)
	if got.Status != PaymentUnknown {
		t.Errorf("status = %v, want unknown", got.Status)
	}
}
