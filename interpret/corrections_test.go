package interpret

import (
	"testing"

	"orderserver/catalog"
	"orderserver/customer"
)

func correctionIntent() *OrderIntent {
	return &OrderIntent{
		Customer:     customer.NewProfile("c-1", "Somchai"),
		CustomerID:   "c-1",
		CustomerName: "somchai",
		Items: []LineItem{
			{Entry: catalog.Entry{ID: "it-1", Name: "Ice Tube", Price: 60, Stock: 10}, Quantity: 0, Quality: QualityExact},
			{Entry: catalog.Entry{ID: "ck-1", Name: "Coke Can", Price: 15, Stock: 48}, Quantity: 3, Quality: QualityHigh},
		},
		Payment: PaymentUnknown,
	}
}

func TestCorrectorApply(t *testing.T) {
	c := NewCorrector(true, "khun", customer.Honorifics)
	intent := correctionIntent()
	c.Apply(intent, "somchai orders ice tube and coke, put it on the tab")

	if intent.CustomerName != "Khun somchai" {
		t.Errorf("CustomerName = %q, want honorific prefix", intent.CustomerName)
	}
	if intent.Items[0].Quantity != 1 {
		t.Errorf("zero quantity not defaulted: %d", intent.Items[0].Quantity)
	}
	if intent.Payment != PaymentCredit {
		t.Errorf("Payment = %v, want credit after keyword re-check", intent.Payment)
	}
	if intent.Total != 60*1+15*3 {
		t.Errorf("Total = %v, want %v", intent.Total, 60.0+45.0)
	}
	if len(intent.Warnings) == 0 {
		t.Fatal("corrections must leave warnings")
	}
}

func TestCorrectorIdempotent(t *testing.T) {
	c := NewCorrector(true, "khun", customer.Honorifics)
	intent := correctionIntent()
	raw := "somchai orders ice tube, he owes us"

	c.Apply(intent, raw)
	name := intent.CustomerName
	warnings := len(intent.Warnings)
	total := intent.Total

	c.Apply(intent, raw)

	if intent.CustomerName != name {
		t.Errorf("second apply changed name: %q -> %q", name, intent.CustomerName)
	}
	if len(intent.Warnings) != warnings {
		t.Errorf("second apply added warnings: %d -> %d", warnings, len(intent.Warnings))
	}
	if intent.Total != total {
		t.Errorf("second apply changed total: %v -> %v", total, intent.Total)
	}
}

func TestCorrectorDisabled(t *testing.T) {
	c := NewCorrector(false, "khun", customer.Honorifics)
	intent := correctionIntent()
	c.Apply(intent, "somchai orders ice tube on credit")

	if intent.CustomerName != "somchai" {
		t.Errorf("disabled corrector must not touch name, got %q", intent.CustomerName)
	}
	if intent.Items[0].Quantity != 0 {
		t.Error("disabled corrector must not default quantity")
	}
	if intent.Payment != PaymentUnknown {
		t.Error("disabled corrector must not change payment")
	}
}

func TestCorrectorSkipsUnspecifiedCustomer(t *testing.T) {
	c := NewCorrector(true, "khun", customer.Honorifics)
	intent := &OrderIntent{
		Customer:     customer.Unspecified(),
		CustomerID:   customer.UnspecifiedID,
		CustomerName: "",
	}
	c.Apply(intent, "orders coke 5")

	if intent.CustomerName != "" {
		t.Errorf("placeholder customer must stay bare, got %q", intent.CustomerName)
	}
}
