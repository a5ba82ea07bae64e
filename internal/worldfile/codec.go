package worldfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrBadMagic means the input does not start with the .lmw magic.
var ErrBadMagic = errors.New("worldfile: not a world snapshot")

// ErrSchema means the snapshot was written with a schema version this
// build does not read.
var ErrSchema = errors.New("worldfile: unsupported snapshot schema")

// Encode frames and writes one snapshot: the magic followed by the msgpack
// document. The snapshot's Schema field is stamped to the current version.
func Encode(w io.Writer, s *Snapshot) error {
	s.Schema = SchemaVersion
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(s)
}

// Decode reads one snapshot, checking the magic and schema version.
func Decode(r io.Reader) (*Snapshot, error) {
	var magic [len(Magic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(magic[:]) != Magic {
		return nil, ErrBadMagic
	}
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("worldfile: decode snapshot: %w", err)
	}
	if s.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSchema, s.Schema, SchemaVersion)
	}
	return &s, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes the snapshot to path atomically: the bytes land in a
// temp file first and are renamed over the target.
func WriteFile(path string, s *Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*.lmw")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Digest is a SHA-256 over a snapshot's encoded bytes. Program-level cache
// keys combine the digests of every snapshot in the program.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// ContentDigest hashes the snapshot exactly as Encode would write it.
func ContentDigest(s *Snapshot) (Digest, error) {
	h := sha256.New()
	if err := Encode(h, s); err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// CombineDigests folds several digests into one stable key.
func CombineDigests(parts ...Digest) Digest {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p[:])
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
