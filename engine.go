package escrow

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"sync"

	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/insurance"
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/permit"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/session"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/types"
)

// Default deadline windows, in ticks.
const (
	DefaultStartWindow uint64 = 300
	DefaultStallWindow uint64 = 900
)

// Engine is the escrow settlement engine. It serializes every operation,
// validates all preconditions before the first write, and returns Transfer
// instructions instead of moving assets itself.
type Engine struct {
	store      store.Store
	collateral *collateral.Ledger
	authority  collateral.Authority
	modes      mode.Registry
	verifier   permit.Verifier
	plugins    *plugin.Registry
	logger     *slog.Logger
	clock      Clock

	// mu makes each operation's read-validate-write sequence indivisible.
	mu sync.Mutex

	startWindow uint64
	stallWindow uint64
}

// New creates a new Engine instance.
func New(s store.Store, modes mode.Registry, opts ...Option) *Engine {
	ledger, authority := collateral.NewLedger(s)

	e := &Engine{
		store:       s,
		collateral:  ledger,
		authority:   authority,
		modes:       modes,
		verifier:    permit.NewEd25519(),
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		clock:       TickClock{},
		startWindow: DefaultStartWindow,
		stallWindow: DefaultStallWindow,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the logical clock source.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithVerifier replaces the permit signature verifier.
func WithVerifier(v permit.Verifier) Option {
	return func(e *Engine) {
		e.verifier = v
	}
}

// WithStartWindow sets how many ticks a provider has to acknowledge a new
// session before the user can claim no-start.
func WithStartWindow(ticks uint64) Option {
	return func(e *Engine) {
		e.startWindow = ticks
	}
}

// WithStallWindow sets how many ticks of provider inactivity make a started
// session claimable as stalled.
func WithStallWindow(ticks uint64) Option {
	return func(e *Engine) {
		e.stallWindow = ticks
	}
}

// Start migrates the store and initializes plugins. The engine runs no
// background workers; every operation completes within its call.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("escrow engine started",
		"start_window", e.startWindow,
		"stall_window", e.stallWindow,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Collateral Management
// ──────────────────────────────────────────────────

// Deposit credits a provider's collateral position for one mode.
func (e *Engine) Deposit(ctx context.Context, provider id.ProviderID, modeID id.ModeID, amount types.Amount) (*collateral.Position, error) {
	p, err := e.collateral.Deposit(ctx, collateral.Key{Provider: provider, Mode: modeID}, amount)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitCollateralDeposited(ctx, p, uint64(amount))
	e.logger.Debug("collateral deposited",
		"position", p.Key.String(),
		"amount", amount,
		"total", p.Total,
	)
	return p, nil
}

// Withdraw debits a provider's free collateral.
func (e *Engine) Withdraw(ctx context.Context, provider id.ProviderID, modeID id.ModeID, amount types.Amount) (*collateral.Position, error) {
	p, err := e.collateral.Withdraw(ctx, collateral.Key{Provider: provider, Mode: modeID}, amount)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitCollateralWithdrawn(ctx, p, uint64(amount))
	e.logger.Debug("collateral withdrawn",
		"position", p.Key.String(),
		"amount", amount,
		"total", p.Total,
	)
	return p, nil
}

// Position returns a provider's position for one mode.
func (e *Engine) Position(ctx context.Context, provider id.ProviderID, modeID id.ModeID) (*collateral.Position, error) {
	return e.collateral.Position(ctx, collateral.Key{Provider: provider, Mode: modeID})
}

// ──────────────────────────────────────────────────
// Session Lifecycle
// ──────────────────────────────────────────────────

// OpenSessionParams carries everything needed to open a session.
type OpenSessionParams struct {
	User          id.UserID
	SessionNonce  uint64
	Provider      id.ProviderID
	Mode          id.ModeID
	MaxSpend      types.Amount
	PricePerChunk types.Amount
	Escrow        types.Amount
	PermitKey     []byte
}

func (p OpenSessionParams) validate() error {
	if p.User.IsNil() || p.Provider.IsNil() || p.Mode.IsNil() {
		return ErrInvalidInput
	}
	if p.MaxSpend.IsZero() || p.PricePerChunk.IsZero() {
		return ErrZeroAmount
	}
	if len(p.PermitKey) == 0 {
		return ErrNilPermitKey
	}
	if len(p.PermitKey) != ed25519.PublicKeySize {
		return ErrInvalidInput
	}
	if p.Escrow < p.MaxSpend {
		return ErrInsufficientEscrow
	}
	return nil
}

// OpenSession creates a session, prices its insurance coverage from the
// mode's parameters, and locks the resulting reserve on the provider's
// position. The reserve stays locked until the session settles.
func (e *Engine) OpenSession(ctx context.Context, p OpenSessionParams) (*session.Session, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	active, err := e.modes.IsActive(ctx, p.Mode)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrModeInactive
	}
	params, err := e.modes.Params(ctx, p.Mode)
	if err != nil {
		return nil, err
	}

	coverage, err := insurance.Coverage(p.MaxSpend, p.PricePerChunk, params)
	if err != nil {
		return nil, err
	}
	reserve, err := insurance.CollateralReserve(coverage, params.CRBps)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := session.Key{User: p.User, Nonce: p.SessionNonce}
	if _, err := e.store.GetSession(ctx, key); err == nil {
		return nil, ErrSessionExists
	} else if !IsNotFound(err) {
		return nil, err
	}

	position := collateral.Key{Provider: p.Provider, Mode: p.Mode}
	if err := e.collateral.Reserve(ctx, e.authority, position, key.String(), reserve); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	sess := &session.Session{
		Entity:             types.NewEntity(),
		Key:                key,
		Provider:           p.Provider,
		Mode:               p.Mode,
		Status:             session.StatusOpened,
		EscrowBalance:      p.Escrow,
		MaxSpend:           p.MaxSpend,
		Coverage:           coverage,
		ReservedCollateral: reserve,
		StartDeadline:      now.Add(e.startWindow),
		LastActivity:       now,
		PermitKey:          append([]byte(nil), p.PermitKey...),
	}

	if err := e.store.CreateSession(ctx, sess); err != nil {
		// Unwind the reservation so a storage fault cannot strand collateral.
		if relErr := e.collateral.Release(ctx, e.authority, position, key.String(), reserve); relErr != nil {
			e.logger.Error("failed to release reservation after create failure",
				"session", key.String(),
				"error", relErr,
			)
		}
		return nil, err
	}

	e.plugins.EmitSessionOpened(ctx, sess)
	e.plugins.EmitCollateralReserved(ctx, key.String(), uint64(reserve))
	e.logger.Info("session opened",
		"session", key.String(),
		"provider", p.Provider,
		"mode", p.Mode,
		"coverage", coverage,
		"reserve", reserve,
	)
	return sess, nil
}

// FundSession adds escrow to a non-terminal session. Only the session's user
// may fund it.
func (e *Engine) FundSession(ctx context.Context, caller id.UserID, key session.Key, amount types.Amount) (*session.Session, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.User {
		return nil, ErrWrongUser
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}

	balance, err := sess.EscrowBalance.CheckedAdd(amount)
	if err != nil {
		return nil, err
	}
	sess.EscrowBalance = balance
	sess.Touch()

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	e.plugins.EmitSessionFunded(ctx, sess, uint64(amount))
	e.logger.Debug("session funded",
		"session", key.String(),
		"amount", amount,
		"balance", sess.EscrowBalance,
	)
	return sess, nil
}

// AckStart is the provider's acknowledgement that service has begun. It must
// arrive while the session is Opened and the start deadline has not passed.
func (e *Engine) AckStart(ctx context.Context, caller id.ProviderID, key session.Key) (*session.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.Provider {
		return nil, ErrWrongProvider
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}
	if sess.Status != session.StatusOpened {
		return nil, ErrInvalidSessionState
	}

	now := e.clock.Now()
	if now.After(sess.StartDeadline) {
		return nil, ErrStartDeadlinePassed
	}

	sess.Status = session.StatusStarted
	sess.LastActivity = now
	sess.Touch()

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	e.plugins.EmitSessionStarted(ctx, sess)
	e.logger.Info("session started",
		"session", key.String(),
		"provider", caller,
	)
	return sess, nil
}

// RedeemResult is the outcome of a successful permit redemption.
type RedeemResult struct {
	Session *session.Session
	Payout  types.Transfer
}

// RedeemPermit settles one signed permit against the session's escrow. Every
// precondition is checked before any balance moves; on success the permit
// nonce advances so the same permit can never settle twice.
func (e *Engine) RedeemPermit(ctx context.Context, caller id.ProviderID, key session.Key, p permit.Permit) (*RedeemResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.Provider {
		return nil, ErrWrongProvider
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}
	if sess.Status != session.StatusStarted {
		return nil, ErrInvalidSessionState
	}
	if p.User != key.User || p.SessionNonce != key.Nonce || p.Provider != sess.Provider {
		return nil, ErrPermitBindingMismatch
	}
	if p.Nonce != sess.PermitNonce {
		return nil, ErrPermitNonceMismatch
	}

	now := e.clock.Now()
	if now.After(p.Expiry) {
		return nil, ErrPermitExpired
	}
	if p.Amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if sess.EscrowBalance < p.Amount {
		return nil, ErrInsufficientEscrow
	}
	spent, err := sess.TotalSpent.CheckedAdd(p.Amount)
	if err != nil {
		return nil, err
	}
	if spent > sess.MaxSpend {
		return nil, ErrMaxSpendExceeded
	}
	if !e.verifier.Verify(p.Message(), p.Signature, sess.PermitKey) {
		return nil, ErrInvalidSignature
	}

	sess.EscrowBalance -= p.Amount
	sess.TotalSpent = spent
	sess.PermitNonce++
	sess.LastActivity = now
	sess.Touch()

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	e.plugins.EmitPermitRedeemed(ctx, sess, uint64(p.Amount), p.Nonce)
	e.logger.Info("permit redeemed",
		"session", key.String(),
		"amount", p.Amount,
		"nonce", p.Nonce,
		"balance", sess.EscrowBalance,
	)
	return &RedeemResult{
		Session: sess,
		Payout:  types.Transfer{To: sess.Provider, Amount: p.Amount},
	}, nil
}

// CloseSession moves an Opened or Started session into the Closing grace
// state. Settlement happens in FinalizeClose.
func (e *Engine) CloseSession(ctx context.Context, caller id.UserID, key session.Key) (*session.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.User {
		return nil, ErrWrongUser
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}
	if !sess.Status.CanTransitionTo(session.StatusClosing) {
		return nil, ErrInvalidSessionState
	}

	sess.Status = session.StatusClosing
	sess.Touch()

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	e.logger.Info("session closing", "session", key.String())
	return sess, nil
}

// CloseResult is the outcome of a finalized close: the collateral reserve is
// unlocked and the remaining escrow refunds to the user.
type CloseResult struct {
	Session *session.Session
	Refund  types.Transfer
}

// FinalizeClose settles a Closing session: releases the provider's reserve
// and refunds whatever escrow is left.
func (e *Engine) FinalizeClose(ctx context.Context, caller id.UserID, key session.Key) (*CloseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.User {
		return nil, ErrWrongUser
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}
	if sess.Status != session.StatusClosing {
		return nil, ErrInvalidSessionState
	}

	position := collateral.Key{Provider: sess.Provider, Mode: sess.Mode}
	if err := e.collateral.Release(ctx, e.authority, position, key.String(), sess.ReservedCollateral); err != nil {
		return nil, err
	}

	refund := sess.EscrowBalance
	sess.EscrowBalance = 0
	sess.Status = session.StatusClosed
	sess.Touch()

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	e.plugins.EmitSessionClosed(ctx, sess, uint64(refund))
	e.plugins.EmitCollateralReleased(ctx, key.String(), uint64(sess.ReservedCollateral))
	e.logger.Info("session closed",
		"session", key.String(),
		"refund", refund,
		"released", sess.ReservedCollateral,
	)
	return &CloseResult{
		Session: sess,
		Refund:  types.Transfer{To: sess.User, Amount: refund},
	}, nil
}

// ──────────────────────────────────────────────────
// Claims
// ──────────────────────────────────────────────────

// ClaimResult is the outcome of a successful claim: the slashed reserve and
// the escrow refund, both payable to the user.
type ClaimResult struct {
	Session *session.Session
	Slashed types.Transfer
	Refund  types.Transfer
}

// ClaimNoStart compensates the user when a provider never acknowledged the
// session: after the start deadline the whole reserve is slashed to the user
// and the escrow refunds in full.
func (e *Engine) ClaimNoStart(ctx context.Context, caller id.UserID, key session.Key) (*ClaimResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.User {
		return nil, ErrWrongUser
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}
	if sess.Status != session.StatusOpened {
		return nil, ErrInvalidSessionState
	}
	if !e.clock.Now().After(sess.StartDeadline) {
		return nil, ErrDeadlineNotPassed
	}

	return e.settleClaim(ctx, sess, session.StatusClaimedNoStart)
}

// ClaimStall compensates the user when a started session goes quiet: once the
// stall window elapses with no provider activity, the reserve is slashed to
// the user and the escrow refunds.
func (e *Engine) ClaimStall(ctx context.Context, caller id.UserID, key session.Key) (*ClaimResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if caller != sess.User {
		return nil, ErrWrongUser
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionTerminal
	}
	if sess.Status != session.StatusStarted {
		return nil, ErrInvalidSessionState
	}
	if !e.clock.Now().After(sess.LastActivity.Add(e.stallWindow)) {
		return nil, ErrStallNotReached
	}

	return e.settleClaim(ctx, sess, session.StatusClaimedStall)
}

// settleClaim slashes the session's reserve to the user, refunds the escrow,
// and lands the session in the given terminal state. Callers hold e.mu and
// have already validated status and timing.
func (e *Engine) settleClaim(ctx context.Context, sess *session.Session, terminal session.Status) (*ClaimResult, error) {
	position := collateral.Key{Provider: sess.Provider, Mode: sess.Mode}
	slashed, err := e.collateral.SlashAndPay(ctx, e.authority, position, sess.Key.String(), sess.ReservedCollateral, sess.User)
	if err != nil {
		return nil, err
	}

	refund := sess.EscrowBalance
	sess.EscrowBalance = 0
	sess.Status = terminal
	sess.Touch()

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	e.plugins.EmitClaimPaid(ctx, sess, string(terminal), uint64(slashed.Amount))
	e.logger.Info("claim paid",
		"session", sess.Key.String(),
		"kind", string(terminal),
		"slashed", slashed.Amount,
		"refund", refund,
	)
	return &ClaimResult{
		Session: sess,
		Slashed: slashed,
		Refund:  types.Transfer{To: sess.User, Amount: refund},
	}, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetSession retrieves a session by key.
func (e *Engine) GetSession(ctx context.Context, key session.Key) (*session.Session, error) {
	return e.store.GetSession(ctx, key)
}

// ListSessions lists a user's sessions.
func (e *Engine) ListSessions(ctx context.Context, user id.UserID, opts session.ListOpts) ([]*session.Session, error) {
	return e.store.ListSessions(ctx, user, opts)
}
