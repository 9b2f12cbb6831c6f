package ai

import (
	"code-lab/domain"
	"fmt"
	"strings"
)

// GroundingMarker opens every explanation backed by at least one corpus example.
const GroundingMarker = "[DATASET-GROUNDED ANALYSIS]"

const noExamples = "No specific local examples found for this language."

// BuildPrompt assembles the few-shot request sent to the generator.
func BuildPrompt(language domain.Language, code, errorText string, examples []domain.Example) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert programming tutor for %s.\n\n", language)

	b.WriteString("STRICT FORMATTING RULES:\n")
	b.WriteString("1. NEVER use backticks or code blocks in the explanation section.\n")
	b.WriteString("2. The ONLY triple-backtick block allowed is at the very end of your response, and it holds the corrected code.\n")
	if len(examples) > 0 {
		fmt.Fprintf(&b, "3. Start with the tag: %s\n", GroundingMarker)
	} else {
		b.WriteString("3. Do NOT use the dataset-grounded tag.\n")
	}
	b.WriteString("4. No greeting, no pleasantries.\n\n")

	b.WriteString("Reference Examples:\n")
	if len(examples) == 0 {
		b.WriteString(noExamples + "\n")
	}
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Example %d:\nError: %s\nFix:\n%s\n", i+1, ex.ErrorContext, ex.Solution())
	}

	fmt.Fprintf(&b, "\nStudent Code:\n%s\n", code)
	fmt.Fprintf(&b, "\nError Message:\n%s\n", errorText)

	b.WriteString("\nResponse Structure:\n")
	b.WriteString("[Explanation in plain text, at most 2 sentences]\n\n")
	b.WriteString("Corrected Code:\n")
	fmt.Fprintf(&b, "[```%s block here]\n", language)
	return b.String()
}
