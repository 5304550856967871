// Package bls implements the minimal BLS12-381 signature operations needed
// for proposer signature verification, backed by supranational/blst using the
// ETH2 minimal-pubkey-size scheme.
package bls

import (
	"crypto/rand"

	"github.com/pkg/errors"
	blst "github.com/supranational/blst/bindings/go"
)

var dst = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

var (
	// ErrInfinitePubKey describes an error due to an infinite public key.
	ErrInfinitePubKey = errors.New("received an infinite public key")
	errInvalidPubKey  = errors.New("could not unmarshal bytes into public key")
	errInvalidSig     = errors.New("could not unmarshal bytes into signature")
	errInvalidSecret  = errors.New("could not generate secret key")
)

type blstPublicKey = blst.P1Affine
type blstSignature = blst.P2Affine
type blstSecretKey = blst.SecretKey

// PublicKey is a BLS public key on G1.
type PublicKey struct {
	p *blstPublicKey
}

// Signature is a BLS signature on G2.
type Signature struct {
	s *blstSignature
}

// SecretKey is a BLS secret scalar.
type SecretKey struct {
	k *blstSecretKey
}

// RandKey creates a new private key using a cryptographically secure source
// of randomness.
func RandKey() (*SecretKey, error) {
	var ikm [32]byte
	if _, err := rand.Read(ikm[:]); err != nil {
		return nil, err
	}
	k := blst.KeyGen(ikm[:])
	if k == nil {
		return nil, errInvalidSecret
	}
	return &SecretKey{k: k}, nil
}

// PublicKey computes the public key corresponding to the secret key.
func (k *SecretKey) PublicKey() *PublicKey {
	return &PublicKey{p: new(blstPublicKey).From(k.k)}
}

// Sign signs the given message, which is expected to be a 32 byte signing
// root.
func (k *SecretKey) Sign(msg []byte) *Signature {
	return &Signature{s: new(blstSignature).Sign(k.k, msg, dst)}
}

// PublicKeyFromBytes creates a BLS public key from its 48 byte compressed
// serialization.
func PublicKeyFromBytes(pubKey []byte) (*PublicKey, error) {
	p := new(blstPublicKey).Uncompress(pubKey)
	if p == nil {
		return nil, errInvalidPubKey
	}
	if !p.KeyValidate() {
		// The KeyValidate fails for infinite and non-subgroup points.
		return nil, ErrInfinitePubKey
	}
	return &PublicKey{p: p}, nil
}

// SignatureFromBytes creates a BLS signature from its 96 byte compressed
// serialization.
func SignatureFromBytes(sig []byte) (*Signature, error) {
	s := new(blstSignature).Uncompress(sig)
	if s == nil {
		return nil, errInvalidSig
	}
	if !s.SigValidate(false) {
		return nil, errInvalidSig
	}
	return &Signature{s: s}, nil
}

// Marshal returns the compressed serialization of the public key.
func (p *PublicKey) Marshal() []byte {
	return p.p.Compress()
}

// Marshal returns the compressed serialization of the signature.
func (s *Signature) Marshal() []byte {
	return s.s.Compress()
}

// Verify a bls signature given a public key and a 32 byte signing root.
func (s *Signature) Verify(pub *PublicKey, msg []byte) bool {
	return s.s.Verify(false, pub.p, false, msg, dst)
}

// VerifySignature verifies a single signature using public key and message,
// all in serialized form.
func VerifySignature(sig, msg, pubKey []byte) (bool, error) {
	pk, err := PublicKeyFromBytes(pubKey)
	if err != nil {
		return false, err
	}
	s, err := SignatureFromBytes(sig)
	if err != nil {
		return false, err
	}
	return s.Verify(pk, msg), nil
}
