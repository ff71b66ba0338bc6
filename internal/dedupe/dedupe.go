// Package dedupe provides content fingerprinting and the bounded,
// persisted seen-set used to make re-extraction idempotent. Two separate
// index files exist (learnings and prompt/PRD capture); they are never
// merged and each is capped independently.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/ninho-ai/ninho/internal/storage"
)

// DefaultMaxHashes is the index capacity when none is configured.
const DefaultMaxHashes = 1000

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Fingerprint returns a stable 16-hex-character digest of the text after
// trimming, lowercasing, and collapsing internal whitespace. The same
// normalized text always yields the same fingerprint.
func Fingerprint(text string) string {
	normalized := whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// Index is a persisted bounded set of fingerprints. Inserts evict the
// oldest entries once the cap is exceeded and rewrite the file each time
// (hook invocations are short-lived and single-threaded).
type Index struct {
	path   string
	max    int
	loaded bool
	state  indexState
}

type indexState struct {
	Hashes []string `json:"hashes"`
}

// NewIndex creates an index backed by the given file. max <= 0 uses
// DefaultMaxHashes.
func NewIndex(path string, max int) *Index {
	if max <= 0 {
		max = DefaultMaxHashes
	}
	return &Index{path: path, max: max}
}

func (idx *Index) load() {
	if idx.loaded {
		return
	}
	idx.loaded = true
	storage.ReadJSON(idx.path, &idx.state)
}

// Seen reports whether the text's fingerprint is already in the index.
func (idx *Index) Seen(text string) bool {
	idx.load()
	fp := Fingerprint(text)
	for _, h := range idx.state.Hashes {
		if h == fp {
			return true
		}
	}
	return false
}

// MarkSeen inserts the text's fingerprint, trimming oldest-first at the
// cap, and persists the index. Inserting an already-seen text is a no-op.
func (idx *Index) MarkSeen(text string) error {
	if idx.Seen(text) {
		return nil
	}
	idx.state.Hashes = append(idx.state.Hashes, Fingerprint(text))
	if len(idx.state.Hashes) > idx.max {
		idx.state.Hashes = idx.state.Hashes[len(idx.state.Hashes)-idx.max:]
	}
	return storage.WriteJSON(idx.path, &idx.state)
}

// Len returns the number of stored fingerprints.
func (idx *Index) Len() int {
	idx.load()
	return len(idx.state.Hashes)
}
