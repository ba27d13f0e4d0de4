package types

import "github.com/xraph/escrow/id"

// Transfer is a settlement instruction produced by an operation: pay Amount
// to the party identified by To. The engine never holds custody; the hosting
// environment executes transfers against its own asset rails.
type Transfer struct {
	To     id.ID  `json:"to"`
	Amount Amount `json:"amount"`
}
