package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/domain/interfaces"
	"github.com/m-mizutani/moontools/pkg/domain/model"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
)

type packagerUseCase struct {
	signer   interfaces.Signer
	verifier interfaces.Verifier
}

// NewPackager creates a new instance of PackagerUseCase
func NewPackager(signer interfaces.Signer, verifier interfaces.Verifier) interfaces.PackagerUseCase {
	return &packagerUseCase{
		signer:   signer,
		verifier: verifier,
	}
}

// Pack signs the raw bytes of inputPath and writes a CRX v2 container to
// outputPath. The output only appears once it is complete.
func (uc *packagerUseCase) Pack(ctx context.Context, keyPath, inputPath, outputPath string) (*model.CRXHeader, error) {
	logger := logging.From(ctx)

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input archive", goerr.V("input", inputPath))
	}

	sig, err := uc.signer.Sign(ctx, keyPath, payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign input archive", goerr.V("input", inputPath))
	}

	der, err := uc.signer.PublicKeyDER(ctx, keyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get public key")
	}

	pkg := &model.CRXPackage{
		PublicKey: der,
		Signature: sig,
		Payload:   payload,
	}
	header, err := pkg.Header()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build package header")
	}

	if err := writeAtomic(outputPath, pkg); err != nil {
		return nil, err
	}

	logger.Info("Wrote extension package",
		"output", outputPath,
		"public_key_bytes", header.PublicKeyLen,
		"signature_bytes", header.SignatureLen,
		"payload_bytes", len(payload),
	)

	return &header, nil
}

// Verify parses the package at path and checks its signature against the
// embedded public key
func (uc *packagerUseCase) Verify(ctx context.Context, path string) (*model.CRXHeader, error) {
	logger := logging.From(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read package", goerr.V("path", path))
	}

	pkg, err := model.ParseCRX(data)
	if err != nil {
		return nil, goerr.Wrap(err, "malformed package", goerr.V("path", path))
	}

	if err := uc.verifier.Verify(pkg.PublicKey, pkg.Payload, pkg.Signature); err != nil {
		return nil, goerr.Wrap(err, "package signature is invalid", goerr.V("path", path))
	}

	header, err := pkg.Header()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build package header")
	}

	logger.Debug("Verified extension package",
		"path", path,
		"payload_bytes", len(pkg.Payload),
	)

	return &header, nil
}

func writeAtomic(outputPath string, pkg *model.CRXPackage) error {
	dir := filepath.Dir(outputPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary output", goerr.V("dir", dir))
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := pkg.WriteTo(tmp); err != nil {
		return goerr.Wrap(err, "failed to write package", goerr.V("output", outputPath))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to flush package", goerr.V("output", outputPath))
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return goerr.Wrap(err, "failed to set package permissions", goerr.V("output", outputPath))
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		return goerr.Wrap(err, "failed to move package into place", goerr.V("output", outputPath))
	}

	committed = true
	return nil
}
