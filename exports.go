package escrow

import "github.com/xraph/escrow/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Tick is re-exported from types package.
type Tick = types.Tick

// Transfer is re-exported from types package.
type Transfer = types.Transfer

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Entity constructor
var NewEntity = types.NewEntity
