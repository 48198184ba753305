package pathextract

import "testing"

func TestNormalizeRelativePathPassesThrough(t *testing.T) {
	got, ok := Normalize("src/main.go", "/repo/proj", "/repo")
	if !ok || got != "src/main.go" {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestNormalizeAbsolutePathUnderProjectDir(t *testing.T) {
	got, ok := Normalize("/repo/proj/src/main.go", "/repo/proj", "/repo")
	if !ok || got != "src/main.go" {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestNormalizeFallsBackToProjectRoot(t *testing.T) {
	got, ok := Normalize("/repo/other/main.go", "/repo/proj", "/repo")
	if !ok || got != "other/main.go" {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestNormalizeDiscardsPathOutsideBothPrefixes(t *testing.T) {
	_, ok := Normalize("/elsewhere/main.go", "/repo/proj", "/repo")
	if ok {
		t.Error("expected path outside both prefixes to be discarded")
	}
}

func TestNormalizeEmptyPath(t *testing.T) {
	_, ok := Normalize("", "/repo/proj", "/repo")
	if ok {
		t.Error("expected empty path to be rejected")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, ok := Normalize("/repo/proj/src/main.go", "/repo/proj", "/repo")
	if !ok {
		t.Fatal("first normalize failed")
	}
	second, ok := Normalize(first, "/repo/proj", "/repo")
	if !ok || second != first {
		t.Errorf("normalize not idempotent: first=%q second=%q", first, second)
	}
}

func TestFromToolSummaryReadExtractsFilePath(t *testing.T) {
	refs := FromToolSummary(`Read(file_path="/repo/proj/a.go")`, "/repo/proj", "/repo")
	if len(refs) != 1 || refs[0].Path != "a.go" || refs[0].Tool != "Read" {
		t.Errorf("got %+v", refs)
	}
}

func TestFromToolSummaryBashScansCommandTokens(t *testing.T) {
	refs := FromToolSummary(`Bash(command="go test ./internal/storage/db.go")`, "/repo/proj", "/repo")
	found := false
	for _, r := range refs {
		if r.Path == "./internal/storage/db.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Bash command scanning to surface the .go path, got %+v", refs)
	}
}

func TestFromToolSummaryIgnoresNonPathTools(t *testing.T) {
	refs := FromToolSummary(`WebFetch(url="https://example.com")`, "/repo/proj", "/repo")
	if len(refs) != 0 {
		t.Errorf("expected no refs for WebFetch, got %+v", refs)
	}
}

func TestScanTokensRecognizesKnownExtensions(t *testing.T) {
	got := ScanTokens("cat README.md && go build ./cmd/mementor")
	want := []string{"README.md", "./cmd/mementor"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMentionsExtractsAndNormalizesDeduped(t *testing.T) {
	text := "see @/repo/proj/a.go and also @/repo/proj/a.go, plus @/repo/proj/b.go"
	refs := Mentions(text, "/repo/proj", "/repo")
	if len(refs) != 2 {
		t.Fatalf("expected deduped mentions, got %+v", refs)
	}
	if refs[0].Path != "a.go" || refs[1].Path != "b.go" {
		t.Errorf("expected alphabetical order, got %+v", refs)
	}
	for _, r := range refs {
		if r.Tool != Mention {
			t.Errorf("expected Tool = Mention, got %q", r.Tool)
		}
	}
}

func TestMentionsStripsTrailingPunctuation(t *testing.T) {
	refs := Mentions("check @/repo/proj/a.go!", "/repo/proj", "/repo")
	if len(refs) != 1 || refs[0].Path != "a.go" {
		t.Errorf("got %+v", refs)
	}
}
