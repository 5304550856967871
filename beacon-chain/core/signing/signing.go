// Package signing computes ssz signing roots and signature domains.
package signing

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
)

// ErrSigFailedToVerify returns when a signature of a block object(ie attestation, slashing, exit... etc)
// failed to verify.
var ErrSigFailedToVerify = errors.New("signature did not verify")

// ComputeForkDataRoot computes the hash tree root of the ssz ForkData
// container for the given fork version and genesis validators root.
func ComputeForkDataRoot(version [fieldparams.VersionLength]byte, genesisValidatorsRoot [32]byte) [32]byte {
	var padded [32]byte
	copy(padded[:], version[:])
	return hashPair(padded, genesisValidatorsRoot)
}

// ComputeDomain returns the signature domain for the given domain type, fork
// version and genesis validators root.
func ComputeDomain(domainType [4]byte, version [fieldparams.VersionLength]byte, genesisValidatorsRoot [32]byte) [32]byte {
	forkDataRoot := ComputeForkDataRoot(version, genesisValidatorsRoot)
	var domain [32]byte
	copy(domain[:4], domainType[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain
}

// ComputeSigningRoot computes the root of the ssz SigningData container over
// an object root and a domain. This is the message ultimately signed by
// validators.
func ComputeSigningRoot(objectRoot, domain [32]byte) [32]byte {
	return hashPair(objectRoot, domain)
}

func hashPair(a, b [32]byte) [32]byte {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return sha256.Sum256(buf[:])
}
