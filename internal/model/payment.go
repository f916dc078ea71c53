package model

// ChargeRequest asks a payment gateway to take money from a payment method.
type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	MethodRef   string
	Description string
	Metadata    map[string]string
}

// ChargeResult is the gateway's answer to a charge. A declined charge is a
// result with Success false, not an error.
type ChargeResult struct {
	Success       bool
	TransactionID string
	Message       string
}
