// Package turn groups a parsed-message sequence into the grouped units
// the rest of the pipeline chunks, embeds, and indexes.
package turn

import (
	"strings"

	"github.com/fenv-org/mementor/internal/transcript"
)

// Turn is one (user, assistant, next-user) grouped span.
type Turn struct {
	StartLine           int
	EndLine             int
	Provisional         bool
	FullText            string
	IsCompactionSummary bool
	// UserText and ToolSummaries are carried alongside FullText so the
	// path extractor does not have to re-parse them back out of the
	// formatted text.
	UserText      string
	ToolSummaries []string
}

type pair struct {
	userIdx, assistantIdx int
}

// Group scans for adjacent user-then-assistant pairs and emits one Turn
// per pair, trailing each with forward context from the next pair's user
// message. The last pair (no following pair) is marked provisional.
func Group(messages []transcript.Message) []Turn {
	var pairs []pair
	for i := 0; i+1 < len(messages); i++ {
		if messages[i].Role == "user" && messages[i+1].Role == "assistant" {
			pairs = append(pairs, pair{userIdx: i, assistantIdx: i + 1})
		}
	}

	turns := make([]Turn, 0, len(pairs))
	for i, p := range pairs {
		user := messages[p.userIdx]
		assistant := messages[p.assistantIdx]

		var b strings.Builder
		b.WriteString("[User] ")
		b.WriteString(user.Text)
		b.WriteString("\n\n[Assistant] ")
		b.WriteString(assistant.Text)

		if len(assistant.ToolSummaries) > 0 {
			b.WriteString("\n\n[Tools] ")
			b.WriteString(strings.Join(assistant.ToolSummaries, " | "))
		}

		provisional := true
		if i+1 < len(pairs) {
			nextUser := messages[pairs[i+1].userIdx]
			b.WriteString("\n\n[User] ")
			b.WriteString(nextUser.Text)
			provisional = false
		}

		turns = append(turns, Turn{
			StartLine:           user.LineIndex,
			EndLine:             assistant.LineIndex,
			Provisional:         provisional,
			FullText:            b.String(),
			IsCompactionSummary: user.IsCompactionSummary,
			UserText:            user.Text,
			ToolSummaries:       assistant.ToolSummaries,
		})
	}

	return turns
}
