package openssl

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/domain/interfaces"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
)

// DefaultPath is the binary looked up in PATH when none is configured
const DefaultPath = "openssl"

type signer struct {
	path string
}

// Option is a functional option for the openssl signer
type Option func(*signer)

// WithPath sets the openssl binary
func WithPath(path string) Option {
	return func(s *signer) {
		if path != "" {
			s.path = path
		}
	}
}

// NewSigner creates a Signer that shells out to the openssl command line tool
func NewSigner(opts ...Option) interfaces.Signer {
	s := &signer{path: DefaultPath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign runs `openssl sha1 -sign <key> -binary` with data on stdin
func (s *signer) Sign(ctx context.Context, keyPath string, data []byte) ([]byte, error) {
	out, err := s.run(ctx, data, "sha1", "-sign", keyPath, "-binary")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign data", goerr.V("key", keyPath))
	}
	if len(out) == 0 {
		return nil, goerr.New("openssl produced an empty signature", goerr.V("key", keyPath))
	}
	return out, nil
}

// PublicKeyDER runs `openssl rsa -pubout -outform DER -in <key>`
func (s *signer) PublicKeyDER(ctx context.Context, keyPath string) ([]byte, error) {
	out, err := s.run(ctx, nil, "rsa", "-pubout", "-outform", "DER", "-in", keyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to export public key", goerr.V("key", keyPath))
	}
	return out, nil
}

func (s *signer) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	logger := logging.From(ctx)

	cmd := exec.CommandContext(ctx, s.path, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running openssl", "path", s.path, "args", args)

	if err := cmd.Run(); err != nil {
		return nil, goerr.Wrap(err, "openssl command failed",
			goerr.V("path", s.path),
			goerr.V("args", strings.Join(args, " ")),
			goerr.V("stderr", strings.TrimSpace(stderr.String())),
		)
	}

	return stdout.Bytes(), nil
}
