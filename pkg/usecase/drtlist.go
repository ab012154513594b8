package usecase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/domain/interfaces"
	"github.com/m-mizutani/moontools/pkg/domain/model"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
)

// manifestNode is any element of a DRT manifest. Tests are the element
// children of the root, whatever their tag.
type manifestNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr     `xml:",any,attr"`
	Children []manifestNode `xml:",any"`
}

func (n *manifestNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

type drtListUseCase struct {
	missingOnly bool
}

// DRTListOption is a functional option for the DRT list converter
type DRTListOption func(*drtListUseCase)

// WithMissingOnly restricts the output to tests whose derived master image
// does not exist yet
func WithMissingOnly(missing bool) DRTListOption {
	return func(uc *drtListUseCase) {
		uc.missingOnly = missing
	}
}

// NewDRTList creates a new instance of DRTListUseCase
func NewDRTList(opts ...DRTListOption) interfaces.DRTListUseCase {
	uc := &drtListUseCase{}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Convert parses the manifest at path and writes the converted list to w.
// It returns the records that were written.
func (uc *drtListUseCase) Convert(ctx context.Context, path string, w io.Writer) ([]*model.TestRecord, error) {
	logger := logging.From(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open manifest", goerr.V("path", path))
	}
	defer f.Close()

	records, err := ParseManifest(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse manifest", goerr.V("path", path))
	}

	if uc.missingOnly {
		records, err = filterMissing(filepath.Dir(path), records)
		if err != nil {
			return nil, err
		}
	}

	if err := WriteDRTList(w, records); err != nil {
		return nil, goerr.Wrap(err, "failed to write converted list")
	}

	logger.Debug("Converted DRT manifest",
		"path", path,
		"records", len(records),
		"missing_only", uc.missingOnly,
	)

	return records, nil
}

// ParseManifest reads a DRT manifest. Any XML error fails the whole parse.
func ParseManifest(r io.Reader) ([]*model.TestRecord, error) {
	dec := xml.NewDecoder(r)

	var root manifestNode
	if err := dec.Decode(&root); err != nil {
		return nil, goerr.Wrap(err, "malformed manifest XML")
	}
	if err := checkTrailing(dec); err != nil {
		return nil, err
	}

	records := make([]*model.TestRecord, 0, len(root.Children))
	for i := range root.Children {
		n := &root.Children[i]
		records = append(records, model.NewTestRecord(
			n.attr("id"),
			n.attr("inputFile"),
			n.attr("masterFile10"),
			n.attr("masterFile11"),
			n.attr("owner"),
			n.attr("featureName"),
		))
	}
	return records, nil
}

// checkTrailing consumes the rest of the document. Only whitespace, comments
// and processing instructions may follow the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "malformed manifest XML")
		}

		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return goerr.New("malformed manifest XML: text after root element")
			}
		default:
			return goerr.New("malformed manifest XML: content after root element",
				goerr.V("token", fmt.Sprintf("%T", tok)))
		}
	}
}

// WriteDRTList emits records between literal <DRTList> markers, one attribute
// line per record. The lines carry no element tags, so the result is not
// well-formed XML; the harness that consumes it splices them into its own
// template.
func WriteDRTList(w io.Writer, records []*model.TestRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("<DRTList>\n"); err != nil {
		return err
	}

	for _, r := range records {
		attrs := [][2]string{
			{"id", r.ID},
			{"inputFile", r.InputFile},
		}
		if master := r.DerivedMaster(); master != "" {
			attrs = append(attrs, [2]string{"masterFile10", master})
		}
		if r.MasterFile11 != "" {
			attrs = append(attrs, [2]string{"masterFile11", r.MasterFile11})
		}
		attrs = append(attrs,
			[2]string{"owner", r.Owner},
			[2]string{"featureName", r.Feature},
		)

		bw.WriteString("\t")
		for i, kv := range attrs {
			if i > 0 {
				bw.WriteString(" ")
			}
			bw.WriteString(kv[0])
			bw.WriteString(`="`)
			if err := xml.EscapeText(bw, []byte(kv[1])); err != nil {
				return err
			}
			bw.WriteString(`"`)
		}
		bw.WriteString("\n")
	}

	if _, err := bw.WriteString("</DRTList>\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func filterMissing(baseDir string, records []*model.TestRecord) ([]*model.TestRecord, error) {
	var missing []*model.TestRecord
	for _, r := range records {
		if r.DerivedMaster() == "" {
			// nothing to look for
			missing = append(missing, r)
			continue
		}
		master := filepath.Join(baseDir, filepath.FromSlash(r.DerivedMaster()))
		_, err := os.Stat(master)
		switch {
		case err == nil:
			continue
		case errors.Is(err, os.ErrNotExist):
			missing = append(missing, r)
		default:
			return nil, goerr.Wrap(err, "failed to check master image", goerr.V("master", master))
		}
	}
	return missing, nil
}
