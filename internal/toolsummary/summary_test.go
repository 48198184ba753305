package toolsummary

import (
	"strings"
	"testing"
)

func TestSummarizeKnownToolRendersWhitelistedFields(t *testing.T) {
	got := Summarize("Read", []byte(`{"file_path":"internal/storage/db.go"}`))
	want := `Read(file_path="internal/storage/db.go")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSummarizeOmitsMissingFields(t *testing.T) {
	got := Summarize("Grep", []byte(`{"pattern":"foo"}`))
	want := `Grep(pattern="foo")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSummarizeSkippedToolReturnsEmpty(t *testing.T) {
	if got := Summarize("TodoWrite", []byte(`{"todos":[]}`)); got != "" {
		t.Errorf("expected skipped tool to summarize to empty string, got %q", got)
	}
}

func TestSummarizeUnknownToolReturnsBareName(t *testing.T) {
	if got := Summarize("SomeFutureTool", []byte(`{}`)); got != "SomeFutureTool" {
		t.Errorf("got %q, want bare name", got)
	}
}

func TestSummarizeEscapesQuotes(t *testing.T) {
	got := Summarize("Bash", []byte(`{"command":"echo \"hi\""}`))
	if !strings.Contains(got, `\"hi\"`) {
		t.Errorf("expected escaped quotes in %q", got)
	}
}

func TestTruncateGraphemesOnASCII(t *testing.T) {
	s := strings.Repeat("a", 100)
	got := TruncateGraphemes(s, 80)
	if got != strings.Repeat("a", 80)+"..." {
		t.Errorf("expected 80 chars plus ellipsis, got len %d", len(got))
	}
}

func TestTruncateGraphemesOnMultiByteClusters(t *testing.T) {
	// Each of these is one grapheme cluster despite being multi-byte.
	s := strings.Repeat("\xe3\x81\x82", 90) // "あ" repeated
	got := TruncateGraphemes(s, 80)
	if CountGraphemes(strings.TrimSuffix(got, "...")) != 80 {
		t.Errorf("expected exactly 80 grapheme clusters before the ellipsis, got %d", CountGraphemes(got))
	}
}

func TestSummarizeTruncatesLongFieldValue(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := Summarize("Bash", []byte(`{"command":"`+long+`"}`))
	if !strings.Contains(got, "...") {
		t.Errorf("expected truncation ellipsis in long field value, got %q", got[:50])
	}
}

func TestParseRoundTripsSummarize(t *testing.T) {
	rendered := Summarize("Grep", []byte(`{"pattern":"foo","path":"bar"}`))
	name, fields := Parse(rendered)
	if name != "Grep" {
		t.Errorf("name = %q", name)
	}
	if fields["pattern"] != "foo" || fields["path"] != "bar" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestParseHandlesEscapedCommaInValue(t *testing.T) {
	rendered := Summarize("Bash", []byte(`{"command":"echo a, b"}`))
	_, fields := Parse(rendered)
	if fields["command"] != "echo a, b" {
		t.Errorf("command = %q, want comma preserved", fields["command"])
	}
}

func TestParseBareNameNoParens(t *testing.T) {
	name, fields := Parse("SomeFutureTool")
	if name != "SomeFutureTool" || fields != nil {
		t.Errorf("got name=%q fields=%v", name, fields)
	}
}

func TestParseEmptyFieldList(t *testing.T) {
	name, fields := Parse("Skill()")
	if name != "Skill" {
		t.Errorf("name = %q", name)
	}
	if len(fields) != 0 {
		t.Errorf("expected no fields, got %+v", fields)
	}
}
