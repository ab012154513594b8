package keysign

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // the CRX v2 format is defined over SHA-1
	"crypto/x509"
	"errors"
	"io"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/domain/interfaces"
)

var (
	// ErrNotRSA is returned for keys other than RSA, which CRX v2 cannot carry
	ErrNotRSA = errors.New("private key is not an RSA key")
	// ErrBadSignature is returned by Verify when the signature does not match
	ErrBadSignature = errors.New("signature verification failed")
)

type signer struct {
	rand io.Reader
}

// NewSigner creates an in-process Signer. It produces the same bytes as the
// openssl signer for RSA keys and needs no external binary.
func NewSigner() interfaces.Signer {
	return &signer{rand: rand.Reader}
}

// Sign returns the RSASSA-PKCS1-v1_5 SHA-1 signature of data
func (s *signer) Sign(ctx context.Context, keyPath string, data []byte) ([]byte, error) {
	key, err := LoadRSAKey(keyPath)
	if err != nil {
		return nil, err
	}

	digest := sha1.Sum(data) //nolint:gosec
	sig, err := rsa.SignPKCS1v15(s.rand, key, crypto.SHA1, digest[:])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign data", goerr.V("key", keyPath))
	}
	return sig, nil
}

// PublicKeyDER returns the PKIX (SubjectPublicKeyInfo) DER form of the public key
func (s *signer) PublicKeyDER(ctx context.Context, keyPath string) ([]byte, error) {
	key, err := LoadRSAKey(keyPath)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal public key", goerr.V("key", keyPath))
	}
	return der, nil
}

// LoadRSAKey reads a PEM encoded RSA private key (PKCS#1 or PKCS#8)
func LoadRSAKey(keyPath string) (*rsa.PrivateKey, error) {
	pemData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read private key", goerr.V("key", keyPath))
	}

	key, err := jwk.ParseKey(pemData, jwk.WithPEM(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse private key", goerr.V("key", keyPath))
	}

	var rawKey interface{}
	if err := key.Raw(&rawKey); err != nil {
		return nil, goerr.Wrap(err, "failed to export private key", goerr.V("key", keyPath))
	}

	rsaKey, ok := rawKey.(*rsa.PrivateKey)
	if !ok {
		return nil, goerr.Wrap(ErrNotRSA, "unsupported key type",
			goerr.V("key", keyPath),
			goerr.V("kty", key.KeyType().String()),
		)
	}
	return rsaKey, nil
}

type verifier struct{}

// NewVerifier creates a Verifier for RSA SHA-1 signatures
func NewVerifier() interfaces.Verifier {
	return verifier{}
}

func (verifier) Verify(publicKeyDER, data, sig []byte) error {
	return Verify(publicKeyDER, data, sig)
}

// Verify checks an RSA SHA-1 signature against a DER-encoded public key
func Verify(publicKeyDER, data, sig []byte) error {
	pub, err := x509.ParsePKIXPublicKey(publicKeyDER)
	if err != nil {
		return goerr.Wrap(err, "failed to parse public key")
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return goerr.Wrap(ErrNotRSA, "unsupported public key type")
	}

	digest := sha1.Sum(data) //nolint:gosec
	if err := rsa.VerifyPKCS1v15(rsaPub, crypto.SHA1, digest[:], sig); err != nil {
		return goerr.Wrap(ErrBadSignature, err.Error())
	}
	return nil
}
