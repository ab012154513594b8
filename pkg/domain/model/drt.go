package model

import (
	"path"
	"strings"
)

const (
	DefaultOwner   = "moonlight"
	DefaultFeature = "unknown"
	// FeatureAnimation selects .tif masters, every other feature uses .png
	FeatureAnimation = "Animation"
	// DRTMastersDir is where masters live, relative to the xaml directory
	DRTMastersDir = "../harness/masters"
)

// TestRecord is one entry of a DRT (Developer Regression Test) manifest
type TestRecord struct {
	ID           string
	InputFile    string
	MasterFile10 string // as found in the source manifest
	MasterFile11 string // optional, passed through unchanged
	Owner        string
	Feature      string
}

// NewTestRecord builds a record from raw manifest attributes, applying the
// owner/feature defaults. Empty attributes count as absent.
func NewTestRecord(id, inputFile, master10, master11, owner, feature string) *TestRecord {
	r := &TestRecord{
		ID:           id,
		InputFile:    inputFile,
		MasterFile10: master10,
		MasterFile11: master11,
		Owner:        DefaultOwner,
		Feature:      DefaultFeature,
	}

	if owner != "" {
		r.Owner = owner
	}

	switch {
	case feature != "":
		r.Feature = feature
	case strings.Contains(strings.ToLower(inputFile), "animation"):
		r.Feature = FeatureAnimation
	}

	return r
}

// IsAnimation reports whether the record's masters are multi-frame .tif files
func (r *TestRecord) IsAnimation() bool {
	return r.Feature == FeatureAnimation
}

// DerivedMaster returns the canonical master path, relative to the xaml
// directory. The name comes from masterFile10, or inputFile when that is
// absent, cut at its first dot. It is empty when the record names neither
// file.
func (r *TestRecord) DerivedMaster() string {
	src := r.MasterFile10
	if src == "" {
		src = r.InputFile
	}
	if strings.TrimSpace(src) == "" {
		return ""
	}

	// manifests are authored on Windows as often as not
	base := path.Base(strings.ReplaceAll(src, `\`, "/"))
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "/" {
		return ""
	}

	ext := ".png"
	if r.IsAnimation() {
		ext = ".tif"
	}

	return DRTMastersDir + "/" + base + ext
}
