package interfaces

import "context"

// Signer produces detached signatures with a PEM private key file
type Signer interface {
	// Sign returns the SHA-1 signature of data made with the key at keyPath
	Sign(ctx context.Context, keyPath string, data []byte) ([]byte, error)

	// PublicKeyDER returns the DER-encoded public half of the key at keyPath
	PublicKeyDER(ctx context.Context, keyPath string) ([]byte, error)
}

// Verifier checks detached signatures against a DER-encoded public key
type Verifier interface {
	// Verify returns an error unless sig is a valid SHA-1 signature of data
	Verify(publicKeyDER, data, sig []byte) error
}
