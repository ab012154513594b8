package model

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// CRXMagic is the 4-byte ASCII tag opening every package
	CRXMagic = "Cr24"
	// CRXVersion is the only container version written and accepted
	CRXVersion uint32 = 2
	// CRXHeaderLen is the size of the fixed header in bytes
	CRXHeaderLen = 16
)

var (
	ErrCRXShortHeader = errors.New("crx: short header")
	ErrCRXBadMagic    = errors.New("crx: bad magic number")
	ErrCRXBadVersion  = errors.New("crx: unsupported version")
	ErrCRXTruncated   = errors.New("crx: truncated key or signature block")
	ErrCRXTooLarge    = errors.New("crx: block exceeds 32-bit length")
)

// CRXHeader is the fixed-size header of a signed extension package
type CRXHeader struct {
	Magic        [4]byte
	Version      uint32
	PublicKeyLen uint32
	SignatureLen uint32
}

// CRXPackage is a complete extension package. Payload is the zip archive,
// carried verbatim.
type CRXPackage struct {
	PublicKey []byte // DER-encoded SubjectPublicKeyInfo
	Signature []byte
	Payload   []byte
}

// Header returns the header describing p
func (p *CRXPackage) Header() (CRXHeader, error) {
	if len(p.PublicKey) > math.MaxUint32 || len(p.Signature) > math.MaxUint32 {
		return CRXHeader{}, ErrCRXTooLarge
	}

	var h CRXHeader
	copy(h.Magic[:], CRXMagic)
	h.Version = CRXVersion
	h.PublicKeyLen = uint32(len(p.PublicKey))
	h.SignatureLen = uint32(len(p.Signature))
	return h, nil
}

// EncodeCRXHeader serializes h in little-endian order
func EncodeCRXHeader(h CRXHeader) []byte {
	buf := make([]byte, CRXHeaderLen)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.PublicKeyLen)
	binary.LittleEndian.PutUint32(buf[12:16], h.SignatureLen)
	return buf
}

// DecodeCRXHeader parses and validates a fixed header
func DecodeCRXHeader(b []byte) (CRXHeader, error) {
	if len(b) < CRXHeaderLen {
		return CRXHeader{}, ErrCRXShortHeader
	}

	var h CRXHeader
	copy(h.Magic[:], b[0:4])
	h.Version = binary.LittleEndian.Uint32(b[4:8])
	h.PublicKeyLen = binary.LittleEndian.Uint32(b[8:12])
	h.SignatureLen = binary.LittleEndian.Uint32(b[12:16])

	if string(h.Magic[:]) != CRXMagic {
		return CRXHeader{}, fmt.Errorf("%w: %q", ErrCRXBadMagic, string(h.Magic[:]))
	}
	if h.Version != CRXVersion {
		return CRXHeader{}, fmt.Errorf("%w: %d", ErrCRXBadVersion, h.Version)
	}
	return h, nil
}

// WriteTo writes header, key, signature and payload with no padding
func (p *CRXPackage) WriteTo(w io.Writer) (int64, error) {
	h, err := p.Header()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, block := range [][]byte{EncodeCRXHeader(h), p.PublicKey, p.Signature, p.Payload} {
		n, err := w.Write(block)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Bytes returns the serialized package
func (p *CRXPackage) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCRX splits a serialized package into its blocks. The returned slices
// alias data.
func ParseCRX(data []byte) (*CRXPackage, error) {
	h, err := DecodeCRXHeader(data)
	if err != nil {
		return nil, err
	}

	rest := data[CRXHeaderLen:]
	need := uint64(h.PublicKeyLen) + uint64(h.SignatureLen)
	if uint64(len(rest)) < need {
		return nil, ErrCRXTruncated
	}

	keyEnd := int(h.PublicKeyLen)
	sigEnd := keyEnd + int(h.SignatureLen)
	return &CRXPackage{
		PublicKey: rest[:keyEnd],
		Signature: rest[keyEnd:sigEnd],
		Payload:   rest[sigEnd:],
	}, nil
}
