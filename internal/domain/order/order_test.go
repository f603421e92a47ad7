package order_test

import (
	"testing"

	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"whole euros", "19.99", "EUR", 1999},
		{"lowercase currency", "19.99", "eur", 1999},
		{"half rounds up", "10.005", "EUR", 1001},
		{"below half rounds down", "10.004", "EUR", 1000},
		{"float artefact", "0.285", "USD", 29},
		{"zero decimal currency", "1500", "JPY", 1500},
		{"zero decimal half up", "1500.5", "KRW", 1501},
		{"zero", "0", "EUR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, order.ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestOrder_PayableAmount(t *testing.T) {
	o := &order.Order{Total: decimal.RequireFromString("19.99"), Currency: "EUR"}
	assert.Equal(t, int64(1999), o.PayableAmount())
	assert.Equal(t, "eur", o.ProcessorCurrency())
}

func TestCustomer_Description(t *testing.T) {
	c := &order.Customer{Number: "10001", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "jane@example.com / Customer 10001", c.Description())
	assert.Equal(t, "Jane Doe", c.FullName())
	assert.Equal(t, "Jane", (&order.Customer{FirstName: "Jane"}).FullName())
	assert.Equal(t, "Jane Doe", c.DisplayName())

	c.Company = "ACME GmbH"
	assert.Equal(t, "ACME GmbH", c.DisplayName())
}
