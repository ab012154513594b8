package usecase

import "testing"

// SetRenameFile replaces the rename step of file moves for the duration of t
func SetRenameFile(t *testing.T, fn func(src, dst string) error) {
	t.Helper()
	orig := renameFile
	renameFile = fn
	t.Cleanup(func() { renameFile = orig })
}
