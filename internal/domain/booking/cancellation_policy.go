package booking

import "fmt"

// CancellationPolicy decides what a customer's cancel action does.
type CancellationPolicy string

const (
	// PolicyAdminApproval parks the booking in cancellation_requested until an
	// administrator approves the refund.
	PolicyAdminApproval CancellationPolicy = "admin_approval"
	// PolicyDirect cancels and refunds immediately.
	PolicyDirect CancellationPolicy = "direct"
)

// ParseCancellationPolicy converts a config value into a CancellationPolicy.
func ParseCancellationPolicy(s string) (CancellationPolicy, error) {
	switch CancellationPolicy(s) {
	case PolicyAdminApproval, PolicyDirect:
		return CancellationPolicy(s), nil
	}
	return "", fmt.Errorf("invalid cancellation policy: %s", s)
}
