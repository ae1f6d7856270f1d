package diagram

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key is a content-addressed identifier for one rendered asset.
// It doubles as the on-disk filename stem, so it only contains
// filesystem-safe characters.
type Key struct {
	Dialect Dialect
	Scheme  Scheme
	Hash    string
}

// DeriveKey computes the asset key for a (source, dialect, scheme) triple.
// It is a pure function: identical triples always yield the identical key,
// and distinct triples collide only with cryptographic improbability.
// The source is hashed verbatim, without any normalization.
func DeriveKey(source string, dialect Dialect, scheme Scheme) Key {
	h := sha256.New()
	// Length-prefix each field so field boundaries cannot be confused.
	fmt.Fprintf(h, "%d:%s", len(dialect), dialect)
	fmt.Fprintf(h, "%d:%s", len(scheme), scheme)
	fmt.Fprintf(h, "%d:%s", len(source), source)
	return Key{
		Dialect: dialect,
		Scheme:  scheme,
		Hash:    hex.EncodeToString(h.Sum(nil)),
	}
}

// Stem returns the filename stem: "<dialect>_<hash>_<scheme>".
func (k Key) Stem() string {
	return fmt.Sprintf("%s_%s_%s", k.Dialect, k.Hash, k.Scheme)
}

// Filename returns the SVG filename for the key.
func (k Key) Filename() string {
	return k.Stem() + ".svg"
}

// String returns the stem, which uniquely identifies the asset.
func (k Key) String() string {
	return k.Stem()
}
