package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/domain/interfaces"
	"github.com/m-mizutani/moontools/pkg/domain/model"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
)

type mastersUseCase struct {
	xamlDir    string
	mastersDir string
}

// NewMasters creates a new instance of MastersUseCase
func NewMasters(xamlDir, mastersDir string) interfaces.MastersUseCase {
	return &mastersUseCase{
		xamlDir:    xamlDir,
		mastersDir: mastersDir,
	}
}

// ErrNoArchiveMode is returned when neither missing nor regen mode is selected
var ErrNoArchiveMode = errors.New("one of missing or regen mode is required")

// Archive moves every *.xaml.png / *.xaml.tif from the xaml directory into the
// masters directory under its master name
func (uc *mastersUseCase) Archive(ctx context.Context, mode model.ArchiveMode) (*model.ArchiveReport, error) {
	logger := logging.From(ctx)

	if !mode.Valid() {
		return nil, goerr.Wrap(ErrNoArchiveMode, "invalid archive mode")
	}

	candidates, err := uc.listCandidates()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(uc.mastersDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create masters directory", goerr.V("dir", uc.mastersDir))
	}

	report := &model.ArchiveReport{}
	for _, c := range candidates {
		src := filepath.Join(uc.xamlDir, c.Source)
		dst := filepath.Join(uc.mastersDir, c.Master)

		exists, err := fileExists(dst)
		if err != nil {
			return report, err
		}

		switch {
		case exists && !mode.Regen:
			logger.Debug("Master already exists, skipping", "test", c.TestName, "master", dst)
			report.Skipped = append(report.Skipped, c.TestName)
			continue

		case exists:
			if err := replaceFile(ctx, src, dst); err != nil {
				return report, goerr.Wrap(err, "failed to regenerate master", goerr.V("test", c.TestName))
			}

		default:
			if err := moveFile(src, dst); err != nil {
				return report, goerr.Wrap(err, "failed to archive master", goerr.V("test", c.TestName))
			}
		}

		logger.Info("Archived master image", "test", c.TestName, "master", dst)
		report.Archived = append(report.Archived, c.TestName)
	}

	return report, nil
}

func (uc *mastersUseCase) listCandidates() ([]model.MasterCandidate, error) {
	entries, err := os.ReadDir(uc.xamlDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list xaml directory", goerr.V("dir", uc.xamlDir))
	}

	var candidates []model.MasterCandidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if c, ok := model.ParseMasterCandidate(e.Name()); ok {
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Source < candidates[j].Source
	})
	return candidates, nil
}

// replaceFile swaps src in for dst. The old dst is parked under a unique name
// until the move succeeds, and is put back if it does not, so a failure never
// leaves the masters directory without either image.
func replaceFile(ctx context.Context, src, dst string) error {
	logger := logging.From(ctx)

	staged := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+"."+uuid.NewString()+".old")
	if err := os.Rename(dst, staged); err != nil {
		return goerr.Wrap(err, "failed to stage existing master", goerr.V("master", dst))
	}

	if err := moveFile(src, dst); err != nil {
		if restoreErr := os.Rename(staged, dst); restoreErr != nil {
			logger.Error("Failed to restore staged master",
				"master", dst,
				"staged", staged,
				"error", restoreErr,
			)
		}
		return err
	}

	if err := os.Remove(staged); err != nil {
		logger.Warn("Failed to remove staged master", "staged", staged, "error", err)
	}
	return nil
}

// renameFile performs the rename step of moveFile
var renameFile = os.Rename

func moveFile(src, dst string) error {
	err := renameFile(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return goerr.Wrap(err, "failed to move file", goerr.V("src", src), goerr.V("dst", dst))
	}

	// xaml and masters directories on different filesystems
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return goerr.Wrap(err, "failed to remove source after copy", goerr.V("src", src))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open source", goerr.V("src", src))
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination", goerr.V("dst", dst))
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return goerr.Wrap(err, "failed to copy file content", goerr.V("dst", dst))
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return goerr.Wrap(err, "failed to flush destination", goerr.V("dst", dst))
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
	}
}
