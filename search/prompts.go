package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/logseer/core"
)

const groundedPromptTemplate = `Answer the question using only the log excerpts below. Base every claim on
the excerpts; if they do not contain the answer, say so instead of guessing.

Log excerpts:
%s

Question: %s`

// buildGroundedPrompt renders the query and its surviving evidence into one
// completion prompt. Excerpts appear in descending score order, each tagged
// with its source file.
func buildGroundedPrompt(query string, citations []core.ScoredChunk) string {
	var sb strings.Builder
	for i, c := range citations {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source: %s]\n%s", c.Chunk.Source, c.Chunk.Text)
	}
	return fmt.Sprintf(groundedPromptTemplate, sb.String(), query)
}
