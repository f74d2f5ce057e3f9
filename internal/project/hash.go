package project

import (
	"crypto/sha256"
	"strconv"
	"strings"
)

// Digest is a fixed 256-bit hash, compatible with source.File.Hash.
type Digest [32]byte

// Combine hashes content followed by deps in the given order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Fingerprint hashes every setting that changes repair output, so cached
// results are dropped when the config changes.
func (c Config) Fingerprint() Digest {
	var b strings.Builder
	b.WriteString(strings.Join(c.Tokens.Suite, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(c.Tokens.Test, ","))
	b.WriteByte('|')
	b.WriteString(c.Tokens.Close)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(c.Indent.Unit))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(c.Indent.TabWidth))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(c.Repair.Misnested))
	for _, p := range c.Rename {
		b.WriteByte('|')
		b.WriteString(p.From)
		b.WriteString("->")
		b.WriteString(p.To)
	}
	return Digest(sha256.Sum256([]byte(b.String())))
}
