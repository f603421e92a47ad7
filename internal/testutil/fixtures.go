package testutil

import (
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TestChannelID = "storefront"

func NewTestTransaction(method string) *transaction.OrderTransaction {
	return &transaction.OrderTransaction{
		ID:            uuid.New(),
		OrderID:       uuid.New(),
		ChannelID:     TestChannelID,
		PaymentMethod: method,
		State:         transaction.StateOpen,
	}
}

// NewTestOrder returns a 19.99 EUR order with one line item and a German billing address.
func NewTestOrder(tx *transaction.OrderTransaction) *order.Order {
	billing := &order.Address{
		FirstName: "Jane",
		LastName:  "Doe",
		Street:    "Hauptstraße 1",
		ZipCode:   "10115",
		City:      "Berlin",
		Country:   "DE",
	}
	return &order.Order{
		ID:            tx.OrderID,
		Number:        "10042",
		ChannelID:     tx.ChannelID,
		Total:         decimal.RequireFromString("19.99"),
		ShippingTotal: decimal.RequireFromString("4.99"),
		Currency:      "EUR",
		Locale:        "de-DE",
		Customer: &order.Customer{
			ID:        uuid.New(),
			Number:    "C-7",
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		},
		BillingAddress: billing,
		LineItems: []order.LineItem{
			{Label: "T-Shirt", Quantity: 1, TotalPrice: decimal.RequireFromString("15.00")},
		},
	}
}

func NewTestSettings() checkout.ChannelSettings {
	return checkout.ChannelSettings{
		ChannelID:         TestChannelID,
		SecretKey:         "sk_test_123",
		WebhookSecret:     "whsec_123",
		SendReceiptEmail:  true,
		ShopName:          "Demo Shop",
		ReturnURLTemplate: "https://shop.example.com/checkout/{transaction_id}/finalize",
	}
}

func NewTestSession() checkout.Session {
	return checkout.Session{
		SelectedCardID:        "pm_card_visa",
		SelectedBankAccountID: "pm_sepa_debit",
		WalletPaymentMethodID: "pm_wallet",
		ClientIP:              "203.0.113.7",
		UserAgent:             "Mozilla/5.0",
	}
}
