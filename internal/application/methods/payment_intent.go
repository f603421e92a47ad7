package methods

import (
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
)

// CardBuilder confirms a payment intent against a saved or freshly tokenised card.
type CardBuilder struct{}

func (CardBuilder) Method() checkout.Method { return checkout.MethodCard }
func (CardBuilder) Flow() processor.Flow    { return processor.FlowPaymentIntent }

func (CardBuilder) Validate(s checkout.Session) error {
	if s.SelectedCardID == "" {
		return domainErrors.NewValidationError("selected_card_id", "no card selected")
	}
	return nil
}

func (b CardBuilder) Build(in BuildInput) (processor.CreateRequest, error) {
	if err := b.Validate(in.Session); err != nil {
		return processor.CreateRequest{}, err
	}
	customer, err := requireCustomer(in.Order)
	if err != nil {
		return processor.CreateRequest{}, err
	}

	return processor.CreateRequest{PaymentIntent: &processor.PaymentIntentRequest{
		Amount:              in.Order.PayableAmount(),
		Currency:            in.Order.ProcessorCurrency(),
		PaymentMethodID:     in.Session.SelectedCardID,
		CustomerID:          in.StripeCustomerID,
		Description:         customer.Description(),
		StatementDescriptor: in.Settings.CardStatementDescriptor(in.Order.Number),
		ReceiptEmail:        receiptEmail(in.Settings, customer),
		ReturnURL:           in.ReturnURL,
		SetupFutureUsage:    in.Session.SaveCard,
		MOTO:                in.Settings.AllowMOTO,
		Metadata:            metadata(in.TransactionID),
	}}, nil
}

// SEPABuilder debits a selected bank account under an online mandate.
type SEPABuilder struct{}

func (SEPABuilder) Method() checkout.Method { return checkout.MethodSEPA }
func (SEPABuilder) Flow() processor.Flow    { return processor.FlowPaymentIntent }

func (SEPABuilder) Validate(s checkout.Session) error {
	if s.SelectedBankAccountID == "" {
		return domainErrors.NewValidationError("selected_bank_account_id", "no bank account selected")
	}
	return nil
}

func (b SEPABuilder) Build(in BuildInput) (processor.CreateRequest, error) {
	if err := b.Validate(in.Session); err != nil {
		return processor.CreateRequest{}, err
	}
	customer, err := requireCustomer(in.Order)
	if err != nil {
		return processor.CreateRequest{}, err
	}

	return processor.CreateRequest{PaymentIntent: &processor.PaymentIntentRequest{
		Amount:              in.Order.PayableAmount(),
		Currency:            in.Order.ProcessorCurrency(),
		PaymentMethodID:     in.Session.SelectedBankAccountID,
		PaymentMethodTypes:  []string{"sepa_debit"},
		CustomerID:          in.StripeCustomerID,
		Description:         customer.Description(),
		StatementDescriptor: in.Settings.SourceStatementDescriptor(),
		ReceiptEmail:        receiptEmail(in.Settings, customer),
		ReturnURL:           in.ReturnURL,
		SetupFutureUsage:    in.Session.SaveBankAccount,
		Mandate: &processor.MandateAcceptance{
			IPAddress: in.Session.ClientIP,
			UserAgent: in.Session.UserAgent,
		},
		Metadata: metadata(in.TransactionID),
	}}, nil
}

// WalletBuilder confirms a payment method produced by a browser wallet.
type WalletBuilder struct{}

func (WalletBuilder) Method() checkout.Method { return checkout.MethodDigitalWallets }
func (WalletBuilder) Flow() processor.Flow    { return processor.FlowPaymentIntent }

func (WalletBuilder) Validate(s checkout.Session) error {
	if s.WalletPaymentMethodID == "" {
		return domainErrors.NewValidationError("wallet_payment_method_id", "no wallet payment method")
	}
	return nil
}

func (b WalletBuilder) Build(in BuildInput) (processor.CreateRequest, error) {
	if err := b.Validate(in.Session); err != nil {
		return processor.CreateRequest{}, err
	}
	customer, err := requireCustomer(in.Order)
	if err != nil {
		return processor.CreateRequest{}, err
	}

	return processor.CreateRequest{PaymentIntent: &processor.PaymentIntentRequest{
		Amount:              in.Order.PayableAmount(),
		Currency:            in.Order.ProcessorCurrency(),
		PaymentMethodID:     in.Session.WalletPaymentMethodID,
		CustomerID:          in.StripeCustomerID,
		Description:         customer.Description(),
		StatementDescriptor: in.Settings.CardStatementDescriptor(in.Order.Number),
		ReceiptEmail:        receiptEmail(in.Settings, customer),
		ReturnURL:           in.ReturnURL,
		Metadata:            metadata(in.TransactionID),
	}}, nil
}
