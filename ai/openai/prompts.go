package openai

import (
	"fmt"
	"strings"
)

const scoringSystemPrompt = `You rate how relevant text passages are to a search query.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting,
or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this shape:

{"scores": [7, 3, 9]}

Rules:
- Rate each passage from 1 (irrelevant) to 10 (directly answers the query).
- Return exactly one integer score per passage, in the order the passages are given.
- Judge relevance to the query only; ignore writing quality and length.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Query: "how do bees make honey"
Passage 1: Bees collect nectar from flowers and convert it to honey in the hive.
Passage 2: The stock market closed higher on Tuesday.
Output:
{"scores": [9, 1]}`

// buildScoringPrompt enumerates the passages under the query for a
// single judging call.
func buildScoringPrompt(query string, passages []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %q\n\n", query)
	for i, p := range passages {
		fmt.Fprintf(&sb, "Passage %d: %s\n\n", i+1, p)
	}
	fmt.Fprintf(&sb, "Rate all %d passages.", len(passages))
	return sb.String()
}
