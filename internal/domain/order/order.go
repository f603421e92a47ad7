package order

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is the shop customer placing the order.
type Customer struct {
	ID        uuid.UUID
	Number    string
	Email     string
	FirstName string
	LastName  string
	Company   string
	// StripeCustomerID is the processor customer linked to this shop customer, if any.
	StripeCustomerID string
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// DisplayName is the company name when set, the person's name otherwise.
func (c *Customer) DisplayName() string {
	if c.Company != "" {
		return strings.TrimSpace(c.Company)
	}
	return c.FullName()
}

// Description identifies the customer on processor objects.
func (c *Customer) Description() string {
	return c.Email + " / Customer " + c.Number
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	ZipCode   string `json:"zip_code"`
	City      string `json:"city"`
	Country   string `json:"country"` // ISO 3166-1 alpha-2
}

type LineItem struct {
	Label      string          `json:"label"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Order is a read-only view of the order an order transaction pays for.
type Order struct {
	ID              uuid.UUID
	Number          string
	ChannelID       string
	Total           decimal.Decimal
	ShippingTotal   decimal.Decimal
	Currency        string
	Locale          string
	Customer        *Customer
	BillingAddress  *Address
	ShippingAddress *Address
	LineItems       []LineItem
}

// PayableAmount is the order total in the currency's smallest unit.
func (o *Order) PayableAmount() int64 {
	return ToMinorUnits(o.Total, o.Currency)
}

// ProcessorCurrency is the lowercase ISO code the processor expects.
func (o *Order) ProcessorCurrency() string {
	return strings.ToLower(o.Currency)
}

// Reader loads order views. Implementations return ErrOrderNotFound.
type Reader interface {
	GetByTransactionID(ctx context.Context, txID uuid.UUID) (*Order, error)
}

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {}, "MGA": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// ToMinorUnits converts a decimal amount to integer minor units, rounding half up.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
