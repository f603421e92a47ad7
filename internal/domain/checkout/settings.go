package checkout

import (
	"regexp"
	"strings"
)

// ChannelSettings is the per sales channel configuration, resolved once per request.
type ChannelSettings struct {
	ChannelID                 string
	SecretKey                 string
	WebhookSecret             string
	SendReceiptEmail          bool
	AllowMOTO                 bool
	StatementDescriptorPrefix string
	StatementDescriptorSuffix string
	ShopName                  string
	ReturnURLTemplate         string
}

const (
	maxDescriptorLength     = 35
	maxCardDescriptorLength = 22
)

var descriptorForbidden = regexp.MustCompile(`[<>/(){}'"]`)

// StatementDescriptor is "<prefix> Ref. <order number>", where the prefix falls back to
// the shop name. Forbidden characters are removed and the result holds at most 35 runes.
func (s ChannelSettings) StatementDescriptor(orderNumber string) string {
	prefix := s.StatementDescriptorPrefix
	if prefix == "" {
		prefix = s.ShopName
	}

	descriptor := prefix
	if orderNumber != "" {
		if prefix == "" {
			descriptor = "Ref. " + orderNumber
		} else {
			descriptor = prefix + " Ref. " + orderNumber
		}
	}

	descriptor = descriptorForbidden.ReplaceAllString(descriptor, "")
	return truncate(descriptor, maxDescriptorLength)
}

// CardStatementDescriptor is StatementDescriptor cut to the card network limit.
func (s ChannelSettings) CardStatementDescriptor(orderNumber string) string {
	return truncate(s.StatementDescriptor(orderNumber), maxCardDescriptorLength)
}

// SourceStatementDescriptor is the configured suffix cut to 22 runes.
func (s ChannelSettings) SourceStatementDescriptor() string {
	return truncate(strings.TrimSpace(s.StatementDescriptorSuffix), maxCardDescriptorLength)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ReturnURL expands the channel's return URL template for a transaction.
func (s ChannelSettings) ReturnURL(transactionID string) string {
	return strings.ReplaceAll(s.ReturnURLTemplate, "{transaction_id}", transactionID)
}
