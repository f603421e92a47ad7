package checkout

// Method is a payment method offered at checkout.
type Method string

const (
	MethodCard           Method = "card"
	MethodSEPA           Method = "sepa"
	MethodSofort         Method = "sofort"
	MethodBancontact     Method = "bancontact"
	MethodKlarna         Method = "klarna"
	MethodDigitalWallets Method = "digital_wallets"
)

// Methods lists every supported method.
func Methods() []Method {
	return []Method{MethodCard, MethodSEPA, MethodSofort, MethodBancontact, MethodKlarna, MethodDigitalWallets}
}

// Session is the customer's in-progress method selection. It is carried by the
// storefront and passed into each checkout call; the service never stores it.
type Session struct {
	SelectedCardID        string `json:"selected_card_id,omitempty"`
	SaveCard              bool   `json:"save_card,omitempty"`
	SelectedBankAccountID string `json:"selected_bank_account_id,omitempty"`
	SaveBankAccount       bool   `json:"save_bank_account,omitempty"`
	WalletPaymentMethodID string `json:"wallet_payment_method_id,omitempty"`

	// Set by the transport from the incoming request.
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// Reset drops the transient selection. The request metadata is kept.
func (s Session) Reset() Session {
	return Session{ClientIP: s.ClientIP, UserAgent: s.UserAgent}
}
