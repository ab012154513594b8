package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/moontools/pkg/domain/model"
)

// PackagerUseCase builds and checks signed extension packages
type PackagerUseCase interface {
	// Pack signs inputPath with keyPath and writes the package to outputPath
	Pack(ctx context.Context, keyPath, inputPath, outputPath string) (*model.CRXHeader, error)

	// Verify checks the structure and signature of the package at path
	Verify(ctx context.Context, path string) (*model.CRXHeader, error)
}

// DRTListUseCase converts DRT manifests
type DRTListUseCase interface {
	// Convert reads the manifest at path and writes the converted list to w
	Convert(ctx context.Context, path string, w io.Writer) ([]*model.TestRecord, error)
}

// MastersUseCase archives rendered test output as master images
type MastersUseCase interface {
	// Archive moves candidates from the xaml directory into the masters directory
	Archive(ctx context.Context, mode model.ArchiveMode) (*model.ArchiveReport, error)
}
