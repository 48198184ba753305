package turn

import (
	"strings"
	"testing"

	"github.com/fenv-org/mementor/internal/transcript"
)

func msg(line int, role, text string) transcript.Message {
	return transcript.Message{LineIndex: line, Role: role, Text: text}
}

func TestGroupPairsAdjacentUserAssistant(t *testing.T) {
	messages := []transcript.Message{
		msg(0, "user", "hello"),
		msg(1, "assistant", "hi there"),
		msg(2, "user", "thanks"),
		msg(3, "assistant", "welcome"),
	}
	turns := Group(messages)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].StartLine != 0 || turns[0].EndLine != 1 {
		t.Errorf("turn 0 lines = %d..%d", turns[0].StartLine, turns[0].EndLine)
	}
}

func TestGroupLastPairMarkedProvisional(t *testing.T) {
	messages := []transcript.Message{
		msg(0, "user", "hello"),
		msg(1, "assistant", "hi there"),
		msg(2, "user", "thanks"),
		msg(3, "assistant", "welcome"),
	}
	turns := Group(messages)
	if turns[0].Provisional {
		t.Error("first turn should not be provisional: it has trailing forward context")
	}
	if !turns[1].Provisional {
		t.Error("last turn should be provisional: no forward context yet")
	}
}

func TestGroupNonLastPairGetsTrailingForwardContext(t *testing.T) {
	messages := []transcript.Message{
		msg(0, "user", "hello"),
		msg(1, "assistant", "hi there"),
		msg(2, "user", "the next question"),
		msg(3, "assistant", "an answer"),
	}
	turns := Group(messages)
	if !strings.Contains(turns[0].FullText, "the next question") {
		t.Errorf("expected first turn's full text to carry the next user message, got %q", turns[0].FullText)
	}
}

func TestGroupSingleUnterminatedPairIsProvisionalWithNoForwardContext(t *testing.T) {
	messages := []transcript.Message{
		msg(0, "user", "hello"),
		msg(1, "assistant", "hi there"),
	}
	turns := Group(messages)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if !turns[0].Provisional {
		t.Error("expected the only pair to be provisional")
	}
	if want := "[User] hello\n\n[Assistant] hi there"; turns[0].FullText != want {
		t.Errorf("expected no trailing [User] block, got %q", turns[0].FullText)
	}
}

func TestGroupSkipsNonAdjacentRoles(t *testing.T) {
	messages := []transcript.Message{
		msg(0, "assistant", "stray"),
		msg(1, "user", "hello"),
		msg(2, "assistant", "hi"),
	}
	turns := Group(messages)
	if len(turns) != 1 {
		t.Fatalf("expected the leading assistant message to not start a pair, got %d turns", len(turns))
	}
}

func TestGroupIncludesToolSummariesInFullText(t *testing.T) {
	messages := []transcript.Message{
		msg(0, "user", "read the file"),
		{LineIndex: 1, Role: "assistant", Text: "done", ToolSummaries: []string{`Read(file_path="a.go")`}},
	}
	turns := Group(messages)
	if !strings.Contains(turns[0].FullText, `Read(file_path="a.go")`) {
		t.Errorf("expected tool summary in full text, got %q", turns[0].FullText)
	}
	if len(turns[0].ToolSummaries) != 1 {
		t.Errorf("expected ToolSummaries carried on the Turn, got %v", turns[0].ToolSummaries)
	}
}

func TestGroupCarriesCompactionSummaryFlag(t *testing.T) {
	messages := []transcript.Message{
		{LineIndex: 0, Role: "user", Text: "continued", IsCompactionSummary: true},
		msg(1, "assistant", "ack"),
	}
	turns := Group(messages)
	if !turns[0].IsCompactionSummary {
		t.Error("expected IsCompactionSummary to carry through from the user message")
	}
}
