package build

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// SourceExt is the extension stripped from artifact base names.
const SourceExt = ".zig"

// hashLength is the number of hex digits kept from the identity hash.
const hashLength = 8

// CleanIdentifier strips a trailing query (`?init`) and fragment (`#x`).
func CleanIdentifier(id string) string {
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		return id[:i]
	}
	return id
}

// Hash returns a short hex sha256 of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// ArtifactName derives `<basename>.<hash>.wasm` for a source module.
//
// The hash covers the query-stripped identifier, not the file contents:
// editing a source file keeps its artifact name, and every variant of the
// same module (`?init`, `?compile`) shares one artifact. Freshness is left
// to the host's own file-change invalidation.
func ArtifactName(source, identifier string) string {
	base := strings.TrimSuffix(filepath.Base(source), SourceExt)
	return base + "." + Hash(CleanIdentifier(identifier)) + ".wasm"
}
