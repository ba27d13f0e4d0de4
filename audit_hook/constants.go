package audithook

// Action constants for audit events.
const (
	// Session actions
	ActionSessionOpened  = "session.opened"
	ActionSessionFunded  = "session.funded"
	ActionSessionStarted = "session.started"
	ActionSessionClosed  = "session.closed"

	// Permit actions
	ActionPermitRedeemed = "permit.redeemed"

	// Claim actions
	ActionClaimNoStart = "claim.no_start"
	ActionClaimStall   = "claim.stall"

	// Collateral actions
	ActionCollateralDeposited = "collateral.deposited"
	ActionCollateralWithdrawn = "collateral.withdrawn"
	ActionCollateralReserved  = "collateral.reserved"
	ActionCollateralReleased  = "collateral.released"
)

// Resource constants for audit events.
const (
	ResourceSession    = "session"
	ResourcePermit     = "permit"
	ResourceClaim      = "claim"
	ResourceCollateral = "collateral"
)

// Category constants for audit events.
const (
	CategorySettlement = "settlement"
	CategoryCustody    = "custody"
	CategoryDispute    = "dispute"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
