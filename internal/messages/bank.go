package messages

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/preciousyou/precious-backend/pkg/enums"
)

const namePlaceholder = "{{name}}"

// Bank picks catalog entries for a user's tone. The random source is
// injectable so selection can be pinned in tests.
type Bank struct {
	entries []Message

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBank returns a Bank over the built-in catalog.
func NewBank() *Bank {
	return NewBankWithSource(Catalog, rand.NewSource(time.Now().UnixNano()))
}

// NewBankWithSource builds a Bank over the given entries and random source.
func NewBankWithSource(entries []Message, src rand.Source) *Bank {
	return &Bank{
		entries: entries,
		rng:     rand.New(src),
	}
}

// Pick returns a uniformly random message whose tone matches the requested
// tone or is neutral. Unrecognized tones resolve to the female default, the
// same rule the user record uses. When nothing matches it falls back to the
// first catalog entry so callers always get a message.
func (b *Bank) Pick(tone enums.Tone) Message {
	if !tone.IsValid() {
		tone = enums.ToneFemale
	}

	eligible := make([]Message, 0, len(b.entries))
	for _, m := range b.entries {
		if m.Tone == tone || m.Tone == enums.ToneNeutral {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return b.entries[0]
	}

	b.mu.Lock()
	idx := b.rng.Intn(len(eligible))
	b.mu.Unlock()
	return eligible[idx]
}

// Personalize substitutes every {{name}} placeholder with the user's display
// name. Messages without the placeholder pass through unchanged.
func Personalize(text string, name string) string {
	return strings.ReplaceAll(text, namePlaceholder, name)
}
