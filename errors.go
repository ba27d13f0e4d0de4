package escrow

import (
	"errors"
	"fmt"

	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/types"
)

// Sentinel errors for common failure scenarios. Errors owned by a subpackage
// are aliased here so callers can match either import path with errors.Is.
var (
	// Validation errors
	ErrZeroAmount    = errors.New("escrow: amount must be positive")
	ErrInvalidInput  = errors.New("escrow: invalid input")
	ErrNilPermitKey  = errors.New("escrow: permit key is empty")
	ErrModeInactive  = errors.New("escrow: mode is not active")
	ErrModeNotFound  = mode.ErrNotFound
	ErrInvalidParams = mode.ErrInvalidParams

	// Authorization errors
	ErrUnauthorizedCaller    = collateral.ErrUnauthorized
	ErrWrongUser             = errors.New("escrow: user does not own session")
	ErrWrongProvider         = errors.New("escrow: provider does not match session")
	ErrInvalidSignature      = errors.New("escrow: permit signature invalid")
	ErrPermitBindingMismatch = errors.New("escrow: permit not bound to session")

	// State errors
	ErrInvalidSessionState = errors.New("escrow: operation not allowed in current session state")
	ErrSessionTerminal     = errors.New("escrow: session is terminal")
	ErrStartDeadlinePassed = errors.New("escrow: start deadline has passed")
	ErrDeadlineNotPassed   = errors.New("escrow: start deadline has not passed")
	ErrStallNotReached     = errors.New("escrow: stall window has not elapsed")
	ErrPermitExpired       = errors.New("escrow: permit expired")
	ErrPermitNonceMismatch = errors.New("escrow: permit nonce mismatch")
	ErrMaxSpendExceeded    = errors.New("escrow: cumulative spend exceeds max spend")
	ErrNoReservation       = collateral.ErrNoReservation
	ErrSessionExists       = errors.New("escrow: session already exists")

	// Funds errors
	ErrInsufficientEscrow     = errors.New("escrow: insufficient escrow balance")
	ErrInsufficientCollateral = collateral.ErrInsufficient
	ErrPayoutExceedsReserved  = collateral.ErrPayoutExceedsReserved

	// Not-found errors
	ErrSessionNotFound  = errors.New("escrow: session not found")
	ErrPositionNotFound = collateral.ErrNotFound

	// Invariant errors. These indicate corrupted state, not caller mistakes.
	ErrReservedExceedsTotal = collateral.ErrReservedExceedsTotal

	// Store errors
	ErrStoreNotReady   = errors.New("escrow: store not ready")
	ErrStoreClosed     = errors.New("escrow: store is closed")
	ErrMigrationFailed = errors.New("escrow: migration failed")
)

// ErrArithmeticOverflow is returned when a checked arithmetic operation on
// amounts would wrap. Overflow aborts the whole operation; balances never
// wrap or saturate.
var ErrArithmeticOverflow = types.ErrOverflow

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("escrow: validation failed for %s: %s", e.Field, e.Message)
}

// IsValidation returns true if the error is a malformed-input error.
func IsValidation(err error) bool {
	if errors.Is(err, ErrZeroAmount) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNilPermitKey) ||
		errors.Is(err, ErrModeInactive) ||
		errors.Is(err, ErrModeNotFound) ||
		errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, collateral.ErrZeroAmount) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsAuthorization returns true if the error is an identity or signature
// failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorizedCaller) ||
		errors.Is(err, ErrWrongUser) ||
		errors.Is(err, ErrWrongProvider) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrPermitBindingMismatch)
}

// IsState returns true if the error means the operation is not valid for the
// current lifecycle state or timing.
func IsState(err error) bool {
	return errors.Is(err, ErrInvalidSessionState) ||
		errors.Is(err, ErrSessionTerminal) ||
		errors.Is(err, ErrStartDeadlinePassed) ||
		errors.Is(err, ErrDeadlineNotPassed) ||
		errors.Is(err, ErrStallNotReached) ||
		errors.Is(err, ErrPermitExpired) ||
		errors.Is(err, ErrPermitNonceMismatch) ||
		errors.Is(err, ErrMaxSpendExceeded) ||
		errors.Is(err, ErrNoReservation) ||
		errors.Is(err, ErrSessionExists) ||
		errors.Is(err, collateral.ErrReservationExists)
}

// IsInsufficientFunds returns true if the error is a balance shortfall.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientEscrow) ||
		errors.Is(err, ErrInsufficientCollateral) ||
		errors.Is(err, ErrPayoutExceedsReserved)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrPositionNotFound) ||
		errors.Is(err, ErrModeNotFound)
}

// IsInvariantViolation returns true if the error indicates corrupted state
// that should be unreachable through valid calls.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrReservedExceedsTotal)
}
