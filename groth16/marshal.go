package groth16

import (
	"encoding/binary"
	"fmt"
	"io"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
)

// WriteTo writes the proof to w, points in compressed form.
func (proof *Proof) WriteTo(w io.Writer) (int64, error) {
	return proof.writeTo(w, false)
}

// WriteRawTo writes the proof to w, points in uncompressed form.
func (proof *Proof) WriteRawTo(w io.Writer) (int64, error) {
	return proof.writeTo(w, true)
}

func (proof *Proof) writeTo(w io.Writer, raw bool) (int64, error) {
	var enc *curve.Encoder
	if raw {
		enc = curve.NewEncoder(w, curve.RawEncoding())
	} else {
		enc = curve.NewEncoder(w)
	}
	toEncode := []interface{}{
		&proof.Ar,
		&proof.Bs,
		&proof.Krs,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

// ReadFrom reads the proof from r. The points are checked to be on the curve
// and in the correct subgroups.
func (proof *Proof) ReadFrom(r io.Reader) (int64, error) {
	return proof.readFrom(r)
}

// UnsafeReadFrom reads the proof from r, skipping the subgroup checks.
func (proof *Proof) UnsafeReadFrom(r io.Reader) (int64, error) {
	return proof.readFrom(r, curve.NoSubgroupChecks())
}

func (proof *Proof) readFrom(r io.Reader, decOptions ...func(*curve.Decoder)) (int64, error) {
	dec := curve.NewDecoder(r, decOptions...)
	toDecode := []interface{}{
		&proof.Ar,
		&proof.Bs,
		&proof.Krs,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	return dec.BytesRead(), nil
}

// WriteTo writes the verifying key to w: the fingerprint, the public wire
// names, then the points in compressed form.
func (vk *VerifyingKey) WriteTo(w io.Writer) (int64, error) {
	return vk.writeTo(w, false)
}

// WriteRawTo writes the verifying key to w, points in uncompressed form.
func (vk *VerifyingKey) WriteRawTo(w io.Writer) (int64, error) {
	return vk.writeTo(w, true)
}

func (vk *VerifyingKey) writeTo(w io.Writer, raw bool) (int64, error) {
	written, err := w.Write(vk.Fingerprint[:])
	n := int64(written)
	if err != nil {
		return n, err
	}
	m, err := writeStrings(w, vk.PublicNames)
	n += m
	if err != nil {
		return n, err
	}

	var enc *curve.Encoder
	if raw {
		enc = curve.NewEncoder(w, curve.RawEncoding())
	} else {
		enc = curve.NewEncoder(w)
	}
	toEncode := []interface{}{
		&vk.G1.Alpha,
		&vk.G2.Beta,
		&vk.G2.Gamma,
		&vk.G2.Delta,
		vk.G1.K,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return n + enc.BytesWritten(), err
		}
	}
	return n + enc.BytesWritten(), nil
}

// ReadFrom reads the verifying key from r and recomputes the cached pairing
// and negated points.
func (vk *VerifyingKey) ReadFrom(r io.Reader) (int64, error) {
	return vk.readFrom(r)
}

// UnsafeReadFrom reads the verifying key from r, skipping the subgroup checks.
func (vk *VerifyingKey) UnsafeReadFrom(r io.Reader) (int64, error) {
	return vk.readFrom(r, curve.NoSubgroupChecks())
}

func (vk *VerifyingKey) readFrom(r io.Reader, decOptions ...func(*curve.Decoder)) (int64, error) {
	read, err := io.ReadFull(r, vk.Fingerprint[:])
	n := int64(read)
	if err != nil {
		return n, err
	}
	names, m, err := readStrings(r)
	n += m
	if err != nil {
		return n, err
	}
	vk.PublicNames = names

	dec := curve.NewDecoder(r, decOptions...)
	toDecode := []interface{}{
		&vk.G1.Alpha,
		&vk.G2.Beta,
		&vk.G2.Gamma,
		&vk.G2.Delta,
		&vk.G1.K,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return n + dec.BytesRead(), err
		}
	}
	if err := vk.Precompute(); err != nil {
		return n + dec.BytesRead(), err
	}
	return n + dec.BytesRead(), nil
}

// WriteTo writes the proving key to w: the fingerprint, the evaluation
// domain, then the points in compressed form.
func (pk *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	return pk.writeTo(w, false)
}

// WriteRawTo writes the proving key to w, points in uncompressed form.
func (pk *ProvingKey) WriteRawTo(w io.Writer) (int64, error) {
	return pk.writeTo(w, true)
}

func (pk *ProvingKey) writeTo(w io.Writer, raw bool) (int64, error) {
	written, err := w.Write(pk.Fingerprint[:])
	n := int64(written)
	if err != nil {
		return n, err
	}
	m, err := pk.Domain.WriteTo(w)
	n += m
	if err != nil {
		return n, err
	}

	var enc *curve.Encoder
	if raw {
		enc = curve.NewEncoder(w, curve.RawEncoding())
	} else {
		enc = curve.NewEncoder(w)
	}
	toEncode := []interface{}{
		&pk.G1.Alpha,
		&pk.G1.Beta,
		&pk.G1.Delta,
		pk.G1.A,
		pk.G1.B,
		pk.G1.Z,
		pk.G1.K,
		&pk.G2.Beta,
		&pk.G2.Delta,
		pk.G2.B,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return n + enc.BytesWritten(), err
		}
	}
	return n + enc.BytesWritten(), nil
}

// ReadFrom reads the proving key from r. The points are checked to be on the
// curve and in the correct subgroups.
func (pk *ProvingKey) ReadFrom(r io.Reader) (int64, error) {
	return pk.readFrom(r)
}

// UnsafeReadFrom reads the proving key from r, skipping the subgroup checks.
func (pk *ProvingKey) UnsafeReadFrom(r io.Reader) (int64, error) {
	return pk.readFrom(r, curve.NoSubgroupChecks())
}

func (pk *ProvingKey) readFrom(r io.Reader, decOptions ...func(*curve.Decoder)) (int64, error) {
	read, err := io.ReadFull(r, pk.Fingerprint[:])
	n := int64(read)
	if err != nil {
		return n, err
	}
	m, err := pk.Domain.ReadFrom(r)
	n += m
	if err != nil {
		return n, err
	}

	dec := curve.NewDecoder(r, decOptions...)
	toDecode := []interface{}{
		&pk.G1.Alpha,
		&pk.G1.Beta,
		&pk.G1.Delta,
		&pk.G1.A,
		&pk.G1.B,
		&pk.G1.Z,
		&pk.G1.K,
		&pk.G2.Beta,
		&pk.G2.Delta,
		&pk.G2.B,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return n + dec.BytesRead(), err
		}
	}
	return n + dec.BytesRead(), nil
}

// writeStrings writes a length-prefixed list of short strings (at most 255
// bytes each).
func writeStrings(w io.Writer, names []string) (int64, error) {
	var n int64
	if err := binary.Write(w, binary.BigEndian, uint32(len(names))); err != nil {
		return n, err
	}
	n += 4
	for _, name := range names {
		if len(name) > 255 {
			return n, fmt.Errorf("wire name too long: %d > 255", len(name))
		}
		if _, err := w.Write([]byte{uint8(len(name))}); err != nil {
			return n, err
		}
		n++
		written, err := w.Write([]byte(name))
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func readStrings(r io.Reader) ([]string, int64, error) {
	var n int64
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, n, err
	}
	n += 4
	if count > 1<<16 {
		return nil, n, fmt.Errorf("implausible name count %d", count)
	}
	names := make([]string, count)
	var length [1]byte
	for i := range names {
		if _, err := io.ReadFull(r, length[:]); err != nil {
			return nil, n, err
		}
		n++
		buf := make([]byte, length[0])
		read, err := io.ReadFull(r, buf)
		n += int64(read)
		if err != nil {
			return nil, n, err
		}
		names[i] = string(buf)
	}
	return names, n, nil
}
