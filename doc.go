// Package escrow provides an escrow and collateral settlement engine for Go
// applications.
//
// The engine is designed as a library, not a service. The hosting environment
// authenticates callers, serializes operations, and executes the Transfer
// instructions the engine returns; the engine itself never holds custody of
// assets. It provides:
//
//   - Prepaid escrow sessions between users and service providers
//   - Provider collateral positions with per-session insurance reserves
//   - One-time signed spend permits with strict nonce ordering
//   - Objective no-start and stall claims that slash reserved collateral
//   - Integer-only, overflow-checked balance arithmetic
//
// # Quick Start
//
// Create an engine with your preferred store and a mode registry:
//
//	import (
//	    "github.com/xraph/escrow"
//	    "github.com/xraph/escrow/mode"
//	    "github.com/xraph/escrow/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	modes := mode.NewMemoryRegistry(timelockTicks)
//	e := escrow.New(store, modes)
//
//	// Start the engine (runs migrations, initializes plugins)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Providers post collateral per settlement mode:
//
//	pos, err := e.Deposit(ctx, providerID, modeID, 10_000)
//
// Users open sessions against a provider, prepaying escrow. Opening a session
// prices its insurance coverage from the mode's parameters and locks the
// corresponding reserve on the provider's position:
//
//	sess, err := e.OpenSession(ctx, escrow.OpenSessionParams{
//	    User:          userID,
//	    SessionNonce:  1,
//	    Provider:      providerID,
//	    Mode:          modeID,
//	    MaxSpend:      1000,
//	    PricePerChunk: 50,
//	    Escrow:        1000,
//	    PermitKey:     publicKey,
//	})
//
// Providers redeem signed permits against the escrow as they deliver service:
//
//	result, err := e.RedeemPermit(ctx, providerID, sess.Key, permit)
//	// result.Payout is the Transfer instruction for the provider
//
// If the provider never starts, or goes quiet mid-session, the user claims
// the reserve:
//
//	claim, err := e.ClaimNoStart(ctx, userID, sess.Key)
//	// claim.Slashed pays the reserve to the user, claim.Refund returns escrow
//
// # Time
//
// The engine never blocks on timers. Deadlines are expressed on a logical
// tick clock (escrow.Clock); the default derives ticks from wall-clock
// seconds and tests inject a ManualClock. All balance arithmetic is integer
// basis-point math with explicit overflow errors.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	user_01h2xcejqtf2nbrexx3vqjhp41  // User ID
//	prov_01h2xcejqtf2nbrexx3vqjhp41  // Provider ID
//	mode_01h455vb4pex5vsknk084sn02q  // Mode ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package escrow
