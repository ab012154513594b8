package typetable

import (
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/debugger"
	"github.com/pelletier/go-toml/v2"
)

// dump is the on-disk form of a type table:
//
//	[[type]]
//	id = 15
//	name = "DependencyObject"
//	parent = 200
type dump struct {
	Types []entry `toml:"type"`
}

type entry struct {
	ID     uint32 `toml:"id"`
	Name   string `toml:"name"`
	Parent uint32 `toml:"parent"`
}

// Decode reads a TOML type table dump
func Decode(r io.Reader) (*debugger.MapTypeTable, error) {
	var d dump
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode type table")
	}

	records := make([]debugger.TypeRecord, 0, len(d.Types))
	for i, e := range d.Types {
		if e.Name == "" {
			return nil, goerr.New("type entry has no name", goerr.V("index", i), goerr.V("id", e.ID))
		}
		records = append(records, debugger.TypeRecord{
			ID:     debugger.TypeID(e.ID),
			Name:   e.Name,
			Parent: debugger.TypeID(e.Parent),
		})
	}

	table, err := debugger.NewMapTypeTable(records)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid type table")
	}

	for _, r := range records {
		if r.Parent == 0 {
			continue
		}
		if _, ok := table.Lookup(r.Parent); !ok {
			return nil, goerr.New("parent type is not defined",
				goerr.V("id", r.ID),
				goerr.V("name", r.Name),
				goerr.V("parent", r.Parent))
		}
	}

	return table, nil
}

// Load reads the type table dump at path
func Load(path string) (*debugger.MapTypeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open type table", goerr.V("path", path))
	}
	defer f.Close()

	table, err := Decode(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load type table", goerr.V("path", path))
	}
	return table, nil
}
