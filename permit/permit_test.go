package permit_test

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/permit"
)

func testPermit() permit.Permit {
	return permit.Permit{
		User:         id.NewUserID(),
		SessionNonce: 7,
		Provider:     id.NewProviderID(),
		Amount:       30,
		Nonce:        0,
		Expiry:       1000,
	}
}

func TestMessageDeterministic(t *testing.T) {
	p := testPermit()
	if !bytes.Equal(p.Message(), p.Message()) {
		t.Error("same permit produced different messages")
	}
}

func TestMessageFieldSensitivity(t *testing.T) {
	base := testPermit()

	tests := []struct {
		name   string
		mutate func(*permit.Permit)
	}{
		{"user", func(p *permit.Permit) { p.User = id.NewUserID() }},
		{"session nonce", func(p *permit.Permit) { p.SessionNonce++ }},
		{"provider", func(p *permit.Permit) { p.Provider = id.NewProviderID() }},
		{"amount", func(p *permit.Permit) { p.Amount++ }},
		{"nonce", func(p *permit.Permit) { p.Nonce++ }},
		{"expiry", func(p *permit.Permit) { p.Expiry++ }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := base
			tt.mutate(&mutated)
			if bytes.Equal(base.Message(), mutated.Message()) {
				t.Errorf("changing %s did not change the message", tt.name)
			}
		})
	}
}

func TestMessageNoFieldAliasing(t *testing.T) {
	// Swapping numeric fields with equal values must still yield distinct
	// messages from permutations, since positions are fixed.
	a := testPermit()
	a.Amount = 5
	a.Nonce = 9

	b := a
	b.Amount = 9
	b.Nonce = 5

	if bytes.Equal(a.Message(), b.Message()) {
		t.Error("field positions are not distinguished in the encoding")
	}
}

func TestEd25519Verify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	p := testPermit()
	msg := p.Message()
	sig := ed25519.Sign(priv, msg)

	v := permit.NewEd25519()
	if !v.Verify(msg, sig, pub) {
		t.Fatal("valid signature rejected")
	}
}

func TestEd25519VerifyRejections(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	otherPub, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	p := testPermit()
	msg := p.Message()
	sig := ed25519.Sign(priv, msg)

	tampered := p
	tampered.Amount++

	flipped := append([]byte(nil), sig...)
	flipped[0] ^= 0x01

	tests := []struct {
		name      string
		message   []byte
		signature []byte
		publicKey []byte
	}{
		{"tampered message", tampered.Message(), sig, pub},
		{"flipped signature bit", msg, flipped, pub},
		{"wrong key", msg, sig, otherPub},
		{"signed by wrong key", msg, ed25519.Sign(otherPriv, msg), pub},
		{"short key", msg, sig, pub[:16]},
		{"nil key", msg, sig, nil},
		{"short signature", msg, sig[:32], pub},
		{"nil signature", msg, nil, pub},
	}

	v := permit.NewEd25519()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v.Verify(tt.message, tt.signature, tt.publicKey) {
				t.Error("expected verification to fail")
			}
		})
	}
}
