package kzg

import (
	goethkzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/pkg/errors"
)

// ErrTrustedSetupNotInitialized is returned by proof operations invoked
// before Start has loaded the ceremony parameters.
var ErrTrustedSetupNotInitialized = errors.New("trusted setup is not initialized")

var kzgContext *goethkzg.Context

// Start loads the mainnet ceremony trusted setup. It must be called once at
// node startup, before any proof verification or cell computation.
func Start() error {
	ctx, err := goethkzg.NewContext4096Secure()
	if err != nil {
		return errors.Wrap(err, "could not initialize KZG context from embedded trusted setup")
	}
	kzgContext = ctx
	return nil
}

// IsInitialized reports whether Start has successfully loaded the trusted
// setup.
func IsInitialized() bool {
	return kzgContext != nil
}

func loadedContext() (*goethkzg.Context, error) {
	if kzgContext == nil {
		return nil, ErrTrustedSetupNotInitialized
	}
	return kzgContext, nil
}
