package permit

import "crypto/ed25519"

// Verifier checks a signature over a canonical permit message. Implementations
// are stateless; replay protection is the session nonce counter's job, not
// the verifier's.
type Verifier interface {
	Verify(message, signature, publicKey []byte) bool
}

// Ed25519 verifies permits signed with Ed25519 keys. Malformed keys or
// signatures verify false rather than erroring.
type Ed25519 struct{}

// NewEd25519 returns the default permit verifier.
func NewEd25519() Ed25519 { return Ed25519{} }

func (Ed25519) Verify(message, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
