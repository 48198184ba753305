// Package chunk splits a Turn's full text into sub-chunks sized to the
// embedder's token budget, honoring markdown block boundaries via
// goldmark's AST parser and carrying inter-chunk overlap through the
// embedder's own tokenizer.
package chunk

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/fenv-org/mementor/internal/embedder"
)

// TargetTokens is the approximate per-chunk token budget.
const TargetTokens = 256

// OverlapTokens is how much of the previous chunk's tail (by token
// count) is prefixed onto the next chunk.
const OverlapTokens = 40

// Split divides fullText into markdown-aware chunks, each approaching
// TargetTokens as measured by tok. A single-chunk turn is returned
// unchanged as chunks[0]. Every chunk after the first is prefixed with
// the previous chunk's last OverlapTokens, decoded back to text.
func Split(fullText string, tok embedder.Tokenizer) []string {
	blocks := splitBlocks(fullText)
	if len(blocks) == 0 {
		return nil
	}

	bodies := groupByTokenBudget(blocks, tok, TargetTokens)
	if len(bodies) == 1 {
		return []string{fullText}
	}

	chunks := make([]string, len(bodies))
	chunks[0] = bodies[0]
	for i := 1; i < len(bodies); i++ {
		overlap := tailText(chunks[i-1], tok, OverlapTokens)
		if overlap == "" {
			chunks[i] = bodies[i]
			continue
		}
		chunks[i] = overlap + "\n\n" + bodies[i]
	}
	return chunks
}

// groupByTokenBudget greedily packs consecutive blocks into chunks whose
// tokenized length approaches target, never splitting a block across
// chunks.
func groupByTokenBudget(blocks []string, tok embedder.Tokenizer, target int) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, block := range blocks {
		candidate := block
		if current.Len() > 0 {
			candidate = current.String() + "\n\n" + block
		}
		if current.Len() > 0 && len(tok.Encode(candidate)) > target {
			flush()
			current.WriteString(block)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	flush()
	return out
}

// tailText re-tokenizes text, takes its last n token ids, and decodes
// them back to text — the overlap mechanism preserving semantic
// continuity across chunk boundaries.
func tailText(text string, tok embedder.Tokenizer, n int) string {
	ids := tok.Encode(text)
	if len(ids) == 0 {
		return ""
	}
	if len(ids) > n {
		ids = ids[len(ids)-n:]
	}
	return tok.Decode(ids)
}

// splitBlocks parses fullText as markdown and returns the source text of
// each top-level block node, in document order.
func splitBlocks(fullText string) []string {
	source := []byte(fullText)
	md := goldmark.New()
	reader := gmtext.NewReader(source)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t := blockText(n, source); strings.TrimSpace(t) != "" {
			blocks = append(blocks, strings.TrimSpace(t))
		}
	}
	return blocks
}

// blockText recovers the raw source text spanned by a block node. Leaf
// blocks expose their span directly via Lines(); container blocks (list,
// blockquote) recurse over their children and concatenate.
func blockText(n ast.Node, source []byte) string {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		var b strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		return b.String()
	}

	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.WriteString(blockText(c, source))
	}
	return b.String()
}
