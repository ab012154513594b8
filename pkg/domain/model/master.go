package model

import "strings"

// MasterCandidate is a rendered test output waiting to become a master image
type MasterCandidate struct {
	TestName string // file name with the .xaml.<ext> suffix removed
	Source   string // file name inside the xaml directory
	Master   string // file name inside the masters directory
}

var masterSuffixes = []struct {
	suffix string
	ext    string
}{
	{".xaml.png", ".png"},
	{".xaml.tif", ".tif"},
}

// ParseMasterCandidate maps foo.xaml.png to fooMaster.png and foo.xaml.tif to
// fooMaster.tif. Any other name is not a candidate.
func ParseMasterCandidate(name string) (MasterCandidate, bool) {
	for _, s := range masterSuffixes {
		if !strings.HasSuffix(name, s.suffix) {
			continue
		}
		stem := strings.TrimSuffix(name, s.suffix)
		if stem == "" {
			return MasterCandidate{}, false
		}
		return MasterCandidate{
			TestName: stem,
			Source:   name,
			Master:   stem + "Master" + s.ext,
		}, true
	}
	return MasterCandidate{}, false
}

// ArchiveMode selects how existing masters are treated
type ArchiveMode struct {
	Missing bool // archive only when no master exists yet
	Regen   bool // replace existing masters
}

// Valid reports whether at least one mode is selected
func (m ArchiveMode) Valid() bool {
	return m.Missing || m.Regen
}

// ArchiveReport summarizes one archiver run
type ArchiveReport struct {
	Archived []string // test names newly written to the masters directory
	Skipped  []string // test names whose master already existed
}
