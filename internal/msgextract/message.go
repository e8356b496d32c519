package msgextract

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Placeholder is a named stand-in that translators move around but never
// translate.
type Placeholder struct {
	// Name is the presentation, e.g. USER_NAME.
	Name string
	// Original is the text the placeholder stands for, in %N form for
	// dynamic parts.
	Original string
	Example  string
}

// Fragment is either literal text or a placeholder.
type Fragment struct {
	Text        string
	Placeholder *Placeholder
}

// Message is one translatable unit extracted from a template.
type Message struct {
	ID          uint64
	ContentType string
	Meaning     string
	Description string
	Hidden      bool
	// Sources are "path: Lline, Ccol" entries with 0-based columns.
	Sources   []string
	Fragments []Fragment
}

// Presentation is the text translators see: literal text with placeholder
// names in place.
func (m *Message) Presentation() string {
	var sb strings.Builder
	for _, f := range m.Fragments {
		if f.Placeholder != nil {
			sb.WriteString(f.Placeholder.Name)
		} else {
			sb.WriteString(f.Text)
		}
	}
	return sb.String()
}

// Original is the runtime format pattern: text with '%' doubled and
// placeholders replaced by what they stand for.
func (m *Message) Original() string {
	var sb strings.Builder
	for _, f := range m.Fragments {
		if f.Placeholder != nil {
			sb.WriteString(f.Placeholder.Original)
		} else {
			sb.WriteString(strings.ReplaceAll(f.Text, "%", "%%"))
		}
	}
	return sb.String()
}

// Placeholders lists the message's placeholders in order of appearance.
func (m *Message) Placeholders() []*Placeholder {
	var out []*Placeholder
	for _, f := range m.Fragments {
		if f.Placeholder != nil {
			out = append(out, f.Placeholder)
		}
	}
	return out
}

var validPlaceholder = regexp.MustCompile(`^[A-Z0-9_]+$`)

// InvalidMessageError explains why a message could not be built.
type InvalidMessageError struct {
	Reason string
}

func (e *InvalidMessageError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &InvalidMessageError{Reason: fmt.Sprintf(format, args...)}
}

// builder accumulates the fragments of one message.
type builder struct {
	msg Message
}

func (b *builder) appendText(text string) {
	if text == "" {
		return
	}
	if n := len(b.msg.Fragments); n > 0 && b.msg.Fragments[n-1].Placeholder == nil {
		b.msg.Fragments[n-1].Text += text
		return
	}
	b.msg.Fragments = append(b.msg.Fragments, Fragment{Text: text})
}

func (b *builder) appendPlaceholder(original, name, example string) error {
	switch {
	case name == "":
		return invalid("Invalid placeholder specification: presentation required")
	case example == "":
		return invalid("Invalid placeholder specification: example required")
	case !validPlaceholder.MatchString(name):
		return invalid("Invalid placeholder specification: only caps, digits, and underscores allowed in presentation")
	}
	for _, p := range b.msg.Placeholders() {
		if p.Name == name && (p.Original != original || p.Example != example) {
			return invalid("Conflicting declarations of %s within message", name)
		}
	}
	b.msg.Fragments = append(b.msg.Fragments, Fragment{
		Placeholder: &Placeholder{Name: name, Original: original, Example: example},
	})
	return nil
}

// build validates the message and computes its id.
func (b *builder) build() (*Message, error) {
	m := b.msg
	presentation := m.Presentation()
	if strings.TrimSpace(presentation) == "" {
		return nil, invalid("Message has no text")
	}
	if err := checkOverlap(&m); err != nil {
		return nil, err
	}
	m.ID = messageID(presentation, m.Meaning, m.ContentType)
	return &m, nil
}

// checkOverlap rejects placeholder names that also occur in the text, where
// a translator could not tell them apart.
func checkOverlap(m *Message) error {
	type span struct{ start, end int }
	var spans []span
	starts := make(map[int]int) // offset -> name length
	pos := 0
	for _, f := range m.Fragments {
		if f.Placeholder != nil {
			spans = append(spans, span{pos, pos + len(f.Placeholder.Name)})
			starts[pos] = len(f.Placeholder.Name)
			pos += len(f.Placeholder.Name)
		} else {
			pos += len(f.Text)
		}
	}
	inside := func(at, n int) bool {
		for _, s := range spans {
			if at > s.start && at+n <= s.end {
				return true
			}
		}
		return false
	}

	presentation := m.Presentation()
	for _, p := range m.Placeholders() {
		name := p.Name
		for at := strings.Index(presentation, name); at >= 0; {
			other, isStart := starts[at]
			if (!isStart && !inside(at, len(name))) || (isStart && other < len(name)) {
				return invalid("Placeholder name (%s) duplicated in message content.", name)
			}
			next := strings.Index(presentation[at+1:], name)
			if next < 0 {
				break
			}
			at += next + 1
		}
	}
	return nil
}

// fingerprint hashes the NFC form of s, so canonically equivalent texts get
// the same id.
func fingerprint(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(norm.NFC.String(s)))
	return h.Sum64()
}

// messageID folds the meaning and content type into the presentation
// fingerprint; the top bit is cleared so ids print as non-negative numbers.
func messageID(presentation, meaning, contentType string) uint64 {
	fp := fingerprint(presentation)
	if meaning != "" {
		fp = fingerprint(meaning) + bits.RotateLeft64(fp, 1)
	}
	if contentType != "" {
		fp = fingerprint(contentType) + bits.RotateLeft64(fp, 1)
	}
	return fp &^ (1 << 63)
}
