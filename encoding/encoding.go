// Package encoding reads and writes the on-disk artifacts of the proof
// system: proving keys, verifying keys and proofs.
//
// Every artifact starts with a small CBOR header carrying the format version,
// the curve, the artifact kind and the fingerprint of the constraint system
// it belongs to, followed by the raw body. The header is checked before the
// body is decoded, so an artifact generated for another circuit, curve or
// format is refused up front.
package encoding

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/fxamacker/cbor/v2"

	hashproof "github.com/consensys/hashproof"
	"github.com/consensys/hashproof/logger"
)

// Artifact kinds.
const (
	KindProvingKey   = "groth16.pk"
	KindVerifyingKey = "groth16.vk"
	KindProof        = "groth16.proof"
)

var (
	// ErrParameterMismatch is returned when an artifact is well-formed but
	// does not belong here: wrong kind, wrong curve or wrong constraint
	// system fingerprint.
	ErrParameterMismatch = errors.New("encoding: artifact mismatch")

	// ErrMalformedArtifact is returned when an artifact cannot be decoded at
	// all: truncated file, corrupted header, invalid point encoding.
	ErrMalformedArtifact = errors.New("encoding: malformed artifact")
)

// headers are a handful of short fields; anything bigger is garbage
const maxHeaderBytes = 1 << 12

// Header identifies an artifact on disk.
type Header struct {
	Version     string   `cbor:"version"`
	Curve       string   `cbor:"curve"`
	Kind        string   `cbor:"kind"`
	Fingerprint [32]byte `cbor:"fingerprint"`
}

func newHeader(kind string, fingerprint [32]byte) Header {
	return Header{
		Version:     hashproof.Version.String(),
		Curve:       ecc.BN254.String(),
		Kind:        kind,
		Fingerprint: fingerprint,
	}
}

func (h *Header) verify(kind string) error {
	if h.Kind != kind {
		return fmt.Errorf("%w: artifact is a %q, expected a %q", ErrParameterMismatch, h.Kind, kind)
	}
	if h.Curve != ecc.BN254.String() {
		return fmt.Errorf("%w: artifact curve is %q, expected %q", ErrParameterMismatch, h.Curve, ecc.BN254.String())
	}
	objectVersion, err := semver.Parse(h.Version)
	if err != nil {
		return fmt.Errorf("%w: parsing artifact version: %v", ErrMalformedArtifact, err)
	}
	if hashproof.Version.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().
			Str("binary", hashproof.Version.String()).
			Str("artifact", objectVersion.String()).
			Msg("format version mismatch, no compatibility guarantees")
	}
	return nil
}

// Write writes the artifact header followed by the body to w.
func Write(w io.Writer, kind string, fingerprint [32]byte, body io.WriterTo) (int64, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return 0, err
	}
	hdr, err := em.Marshal(newHeader(kind, fingerprint))
	if err != nil {
		return 0, err
	}

	var n int64
	if err := binary.Write(w, binary.BigEndian, uint32(len(hdr))); err != nil {
		return n, err
	}
	n += 4
	written, err := w.Write(hdr)
	n += int64(written)
	if err != nil {
		return n, err
	}
	m, err := body.WriteTo(w)
	n += m
	return n, err
}

// Read checks the artifact header against the expected kind and curve, then
// decodes the body. Header mismatches surface as ErrParameterMismatch,
// anything structurally unreadable as ErrMalformedArtifact.
func Read(r io.Reader, kind string, body io.ReaderFrom) (*Header, error) {
	var hdrLen uint32
	if err := binary.Read(r, binary.BigEndian, &hdrLen); err != nil {
		return nil, fmt.Errorf("%w: reading header length: %v", ErrMalformedArtifact, err)
	}
	if hdrLen == 0 || hdrLen > maxHeaderBytes {
		return nil, fmt.Errorf("%w: implausible header length %d", ErrMalformedArtifact, hdrLen)
	}
	buf := make([]byte, hdrLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedArtifact, err)
	}

	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	var h Header
	if err := dm.Unmarshal(buf, &h); err != nil {
		return nil, fmt.Errorf("%w: decoding header: %v", ErrMalformedArtifact, err)
	}
	if err := h.verify(kind); err != nil {
		return nil, err
	}

	if _, err := body.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: decoding %s body: %v", ErrMalformedArtifact, kind, err)
	}
	return &h, nil
}

// WriteFile writes the artifact to path atomically: the bytes are staged in a
// temporary file in the same directory and renamed into place once synced, so
// a crash cannot leave a truncated artifact behind.
func WriteFile(path string, kind string, fingerprint [32]byte, body io.WriterTo) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	_, err = Write(f, kind, fingerprint, body)
	if err == nil {
		err = f.Chmod(0o644)
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ReadFile opens the artifact at path and decodes it through Read.
func ReadFile(path string, kind string, body io.ReaderFrom) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f), kind, body)
}
