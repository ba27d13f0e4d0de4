// Package permit defines the one-time spend authorizations users sign for
// providers. Permits are ephemeral wire messages: they are verified, consumed
// against the session's nonce counter, and never persisted.
package permit

import (
	"encoding/binary"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/types"
)

// domainTag separates permit signatures from any other message a key might
// sign. It is the first component of every canonical encoding.
const domainTag = "escrow.permit.v1"

// Permit authorizes a provider to redeem one payment from a session's escrow.
// Nonce must equal the session's current permit counter exactly, and the
// permit is dead once the counter moves past it.
type Permit struct {
	User         id.UserID     `json:"user"`
	SessionNonce uint64        `json:"session_nonce"`
	Provider     id.ProviderID `json:"provider"`
	Amount       types.Amount  `json:"amount"`
	Nonce        uint64        `json:"nonce"`
	Expiry       types.Tick    `json:"expiry"`
	Signature    []byte        `json:"signature"`
}

// Message returns the canonical byte encoding the signature covers: the
// domain tag, both identities length-prefixed, then the numeric fields as
// little-endian u64 in declaration order. Any field change produces a
// different message.
func (p *Permit) Message() []byte {
	user := p.User.Bytes()
	provider := p.Provider.Bytes()

	buf := make([]byte, 0, len(domainTag)+2+len(user)+2+len(provider)+4*8)
	buf = append(buf, domainTag...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(user)))
	buf = append(buf, user...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(provider)))
	buf = append(buf, provider...)
	buf = binary.LittleEndian.AppendUint64(buf, p.SessionNonce)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Amount))
	buf = binary.LittleEndian.AppendUint64(buf, p.Nonce)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Expiry))
	return buf
}
