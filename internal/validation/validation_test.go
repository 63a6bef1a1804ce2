package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"medstock/m/domain"
)

type sample struct {
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Method   string          `json:"paymentMethod" validate:"paymentmethod"`
	Category string          `json:"category" validate:"category"`
	Lines    []sampleLine    `json:"lines" validate:"min=1,dive"`
}

type sampleLine struct {
	StockID string `json:"stockId" validate:"required"`
	Cartons int64  `json:"cartonsOrdered" validate:"gte=1"`
}

func TestStructValid(t *testing.T) {
	s := sample{
		Name:     "Gauze",
		Price:    decimal.Zero,
		Amount:   decimal.RequireFromString("0.01"),
		Method:   "Net Banking",
		Category: "Surgical",
		Lines:    []sampleLine{{StockID: "a", Cartons: 1}},
	}
	if err := Struct(s); err != nil {
		t.Fatalf("Struct() error = %v", err)
	}
}

func TestStructCollectsFieldErrors(t *testing.T) {
	s := sample{
		Price:    decimal.NewFromInt(-1),
		Amount:   decimal.Zero,
		Method:   "Cheque",
		Category: "Food",
		Lines:    []sampleLine{{StockID: "", Cartons: 0}},
	}
	err := Struct(s)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Struct() error = %v, want validation error", err)
	}
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Struct() error type = %T", err)
	}
	got := map[string]string{}
	for _, f := range ve.Fields {
		got[f.Field] = f.Message
	}
	want := map[string]string{
		"name":                    "is required",
		"price":                   "must be greater than or equal to 0",
		"amount":                  "must be greater than 0",
		"paymentMethod":           "must be one of Cash, Card, UPI, Net Banking",
		"category":                "must be one of Medicine, Equipment, Consumables, Surgical, Other",
		"lines[0].stockId":        "is required",
		"lines[0].cartonsOrdered": "must be greater than or equal to 1",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("field %q message = %q, want %q", field, got[field], msg)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"9876543210", "9876543210", false},
		{"+91 98765 43210", "9876543210", false},
		{"+91-98765-43210", "9876543210", false},
		{"+1 987 654 3210", "+19876543210", false},
		{"+44 20 7946 0958", "+442079460958", false},
		{"", "", true},
		{"hello", "", true},
		{"12", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Phone(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Phone(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("Phone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
