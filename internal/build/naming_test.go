package build

import (
	"regexp"
	"testing"
)

var artifactPattern = regexp.MustCompile(`^math\.[0-9a-f]{8}\.wasm$`)

func TestArtifactNameShape(t *testing.T) {
	name := ArtifactName("/src/math.zig", "/src/math.zig?init")
	if !artifactPattern.MatchString(name) {
		t.Errorf("ArtifactName() = %s, want math.<8 hex>.wasm", name)
	}
}

func TestArtifactNameVariantInsensitive(t *testing.T) {
	initName := ArtifactName("/src/math.zig", "/src/math.zig?init")
	compileName := ArtifactName("/src/math.zig", "/src/math.zig?compile")
	bare := ArtifactName("/src/math.zig", "/src/math.zig")

	if initName != compileName || initName != bare {
		t.Errorf("variants should share an artifact: %s, %s, %s", initName, compileName, bare)
	}
}

func TestArtifactNameDistinctPaths(t *testing.T) {
	a := ArtifactName("/a/math.zig", "/a/math.zig?init")
	b := ArtifactName("/b/math.zig", "/b/math.zig?init")
	if a == b {
		t.Errorf("different sources should not collide: %s", a)
	}
}

func TestArtifactNameDeterministic(t *testing.T) {
	first := ArtifactName("/src/math.zig", "/src/math.zig?init")
	for i := 0; i < 3; i++ {
		if got := ArtifactName("/src/math.zig", "/src/math.zig?init"); got != first {
			t.Fatalf("ArtifactName() changed between calls: %s vs %s", first, got)
		}
	}
}

func TestCleanIdentifier(t *testing.T) {
	tests := map[string]string{
		"/src/math.zig?init":      "/src/math.zig",
		"/src/math.zig?compile":   "/src/math.zig",
		"/src/math.zig#frag":      "/src/math.zig",
		"/src/math.zig?init#frag": "/src/math.zig",
		"/src/math.zig":           "/src/math.zig",
	}
	for in, want := range tests {
		if got := CleanIdentifier(in); got != want {
			t.Errorf("CleanIdentifier(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestHash(t *testing.T) {
	// sha256("abc") = ba7816bf...
	if got := Hash("abc"); got != "ba7816bf" {
		t.Errorf("Hash(abc) = %s, want ba7816bf", got)
	}
}
