package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"strings"

	"gxpc/internal/schema"
	"gxpc/internal/servicedir"
	"gxpc/internal/tree"
)

// Digest is a SHA-256 value.
type Digest [32]byte

// Combine: H(content || dep1 || dep2 ...). deps must be in a deterministic order.
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

func contentDigest(data []byte) Digest {
	return sha256.Sum256(data)
}

func writeField(w io.Writer, s string) {
	_, _ = w.Write(binary.AppendUvarint(nil, uint64(len(s))))
	_, _ = io.WriteString(w, s)
}

// registryDigest covers everything about the schemas a cached result may
// depend on: names, content types and element tables.
func registryDigest(reg *schema.Registry) Digest {
	h := sha256.New()
	for _, s := range reg.Schemas() {
		writeField(h, s.Name)
		writeField(h, s.ContentType)
		writeField(h, strings.Join(s.Allowed, ","))
		for _, tag := range s.ElementTags() {
			ev, _ := s.Element(tag)
			writeField(h, tag)
			writeField(h, ev.InnerContentType)
			writeField(h, strings.Join(ev.AttrNames(), ","))
		}
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// signatureDigest hashes what a caller can observe of c. A nil callable has
// the zero digest.
func signatureDigest(c *tree.Callable) Digest {
	if c == nil {
		return Digest{}
	}
	h := sha256.New()
	writeField(h, c.Kind.String())
	writeField(h, c.Name.String())
	writeField(h, c.Schema.String())
	for _, p := range c.Params {
		writeField(h, p.Name)
		writeField(h, strings.Join(p.Aliases, ","))
		writeField(h, p.Type.String())
		if p.Type != nil {
			writeField(h, p.Type.Native)
		}
		flags := []byte{0, 0, 0, 0}
		if p.HasDefault() {
			flags[0] = 1
		}
		if p.HasConstructor() {
			flags[1] = 1
		}
		if p.ConsumesContent {
			flags[2] = 1
		}
		if p.Regex != nil {
			flags[3] = 1
			writeField(h, p.Regex.String())
		}
		_, _ = h.Write(flags)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// dependencyDigest hashes the current signatures behind names, in order.
func dependencyDigest(dir servicedir.Directory, names []tree.TemplateName) Digest {
	deps := make([]Digest, 0, 3*len(names))
	for _, n := range names {
		if !n.IsQualified() {
			deps = append(deps, Digest{}, Digest{}, Digest{})
			continue
		}
		c, _ := dir.Callable(n)
		in, _ := dir.InstanceCallable(n)
		im, _ := dir.Implementable(n)
		deps = append(deps, signatureDigest(c), signatureDigest(in), signatureDigest(im))
	}
	return Combine(Digest{}, deps...)
}
