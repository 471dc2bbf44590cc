// internal/domain/checkout/state.go
package checkout

// State is a checkout state machine state
type State string

const (
	StateIdle                  State = "idle"
	StateValidatingCart        State = "validating_cart"
	StateCollectingDetails     State = "collecting_details"
	StateCreatingCODOrder      State = "creating_cod_order"
	StateCreatingGatewayIntent State = "creating_gateway_intent"
	StateAwaitingGatewayResult State = "awaiting_gateway_result"
	StateVerifyingPayment      State = "verifying_payment"
	StateFinalized             State = "finalized"
	StateFailed                State = "failed"
	StateRedirectToCart        State = "redirect_to_cart"
)

// FailureReason says why an attempt ended in StateFailed
type FailureReason string

const (
	ReasonStorageError          FailureReason = "storage_error"
	ReasonOrderCreationFailed   FailureReason = "order_creation_failed"
	ReasonGatewayError          FailureReason = "gateway_error"
	ReasonCancelled             FailureReason = "cancelled"
	ReasonWidgetError           FailureReason = "widget_error"
	ReasonVerificationFailed    FailureReason = "payment_verification_failed"
	ReasonCompensationFailed    FailureReason = "compensation_failed"
	ReasonOnlinePaymentDisabled FailureReason = "online_payment_disabled"
)

var validTransitions = map[State][]State{
	StateIdle: {
		StateValidatingCart,
	},
	StateValidatingCart: {
		StateCollectingDetails,
		StateRedirectToCart,
		StateFailed,
	},
	StateCollectingDetails: {
		StateCreatingCODOrder,
		StateCreatingGatewayIntent,
		StateFailed,
	},
	StateCreatingCODOrder: {
		StateFinalized,
		StateFailed,
	},
	StateCreatingGatewayIntent: {
		StateAwaitingGatewayResult,
		StateFailed,
	},
	StateAwaitingGatewayResult: {
		StateVerifyingPayment,
		StateFailed,
	},
	StateVerifyingPayment: {
		StateFinalized,
		StateFailed,
	},
}

func isValidTransition(from, to State) bool {
	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, state := range allowed {
		if state == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateFailed || s == StateRedirectToCart
}
