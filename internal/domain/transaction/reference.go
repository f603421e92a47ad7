package transaction

// ReferenceField names a lookup column of the stored payment reference.
type ReferenceField string

const (
	FieldSourceID        ReferenceField = "source_id"
	FieldPaymentIntentID ReferenceField = "payment_intent_id"
	FieldChargeID        ReferenceField = "charge_id"
)

// PaymentReference links an order transaction to processor objects. It lives in the
// transaction's custom_fields under stripe_payment_context.payment.
type PaymentReference struct {
	SourceID        string `json:"source_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	ChargeID        string `json:"charge_id,omitempty"`
	// ChargedSourceID is the source the recorded charge was created from.
	ChargedSourceID string `json:"charged_source_id,omitempty"`
}

func (r PaymentReference) IsZero() bool {
	return r.SourceID == "" && r.PaymentIntentID == "" && r.ChargeID == ""
}

// HasCharge reports whether a charge was already observed for the transaction.
func (r PaymentReference) HasCharge() bool {
	return r.ChargeID != ""
}

// ChargedSource reports whether the recorded charge was created from sourceID.
func (r PaymentReference) ChargedSource(sourceID string) bool {
	return r.ChargeID != "" && sourceID != "" && r.ChargedSourceID == sourceID
}

// Merge applies the non-empty fields of patch. An existing charge id is never replaced,
// and the charged source only travels with it.
func (r PaymentReference) Merge(patch PaymentReference) PaymentReference {
	if patch.SourceID != "" {
		r.SourceID = patch.SourceID
	}
	if patch.PaymentIntentID != "" {
		r.PaymentIntentID = patch.PaymentIntentID
	}
	if patch.ChargeID != "" && r.ChargeID == "" {
		r.ChargeID = patch.ChargeID
		r.ChargedSourceID = patch.ChargedSourceID
	}
	return r
}

// StartAttempt replaces the transient fields for a new payment attempt. Exactly one of
// sourceID and paymentIntentID is expected to be set; the charge id is kept.
func (r PaymentReference) StartAttempt(sourceID, paymentIntentID string) PaymentReference {
	return PaymentReference{
		SourceID:        sourceID,
		PaymentIntentID: paymentIntentID,
		ChargeID:        r.ChargeID,
		ChargedSourceID: r.ChargedSourceID,
	}
}

// Patch returns the JSON object written by a merge, omitting empty fields.
func (r PaymentReference) Patch() map[string]string {
	out := make(map[string]string, 4)
	if r.SourceID != "" {
		out[string(FieldSourceID)] = r.SourceID
	}
	if r.PaymentIntentID != "" {
		out[string(FieldPaymentIntentID)] = r.PaymentIntentID
	}
	if r.ChargeID != "" {
		out[string(FieldChargeID)] = r.ChargeID
	}
	if r.ChargedSourceID != "" {
		out["charged_source_id"] = r.ChargedSourceID
	}
	return out
}
