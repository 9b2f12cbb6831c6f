package ai

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	fence  = "```"
	bullet = "- "
)

// A greeting runs to the end of its sentence, never past its own line.
var greeting = regexp.MustCompile(`(?i)\A\s*(?:hi|hello|hey|greetings|great question|great start|happy to help|good (?:morning|afternoon|evening)|let's fix|let us fix|thanks|thank you)\b[^.!?\n]*(?:[.!?]+|\n|$)\s*`)

// An affirmation only loses itself, whatever follows is content.
var affirmation = regexp.MustCompile(`(?i)\A\s*(?:sure|certainly|of course|absolutely)(?: thing)?\s*[,.!:]+\s*`)

var numbered = regexp.MustCompile(`(?m)^(\s*)\d+[.)]\s+`)

// Normalize makes a raw generator response safe to display. Exactly one
// fenced block survives, at the end. Prose loses its leading greeting, its
// inline code markers and its numeric list markers. The grounding marker
// is present at the very start iff grounded.
func Normalize(raw string, grounded bool) string {
	prose, block := splitFinalBlock(raw)

	prose = strings.ReplaceAll(prose, GroundingMarker, "")
	prose = strings.ReplaceAll(prose, "`", "")
	prose = stripGreeting(prose)
	prose = numbered.ReplaceAllString(prose, "${1}"+bullet)
	prose = strings.TrimSpace(prose)

	var parts []string
	if grounded {
		parts = append(parts, GroundingMarker)
	}
	if prose != "" {
		parts = append(parts, prose)
	}
	if block != "" {
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n")
}

func stripGreeting(s string) string {
	for {
		if loc := greeting.FindStringIndex(s); loc != nil {
			s = s[loc[1]:]
			continue
		}
		if loc := affirmation.FindStringIndex(s); loc != nil {
			s = capitalize(s[loc[1]:])
			continue
		}
		return s
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// splitFinalBlock separates the last fenced block from everything before it.
// Earlier blocks are unwrapped into prose. An unterminated final block is closed.
func splitFinalBlock(raw string) (string, string) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	type span struct{ open, close int }
	var blocks []span
	open := -1
	for i, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), fence) {
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		blocks = append(blocks, span{open, i})
		open = -1
	}
	if open >= 0 {
		blocks = append(blocks, span{open, len(lines)})
	}
	if len(blocks) == 0 {
		return raw, ""
	}

	last := blocks[len(blocks)-1]
	body := lines[last.open+1 : min(last.close, len(lines))]
	block := strings.TrimSpace(lines[last.open]) + "\n" + strings.Join(body, "\n")
	block = strings.TrimRight(block, "\n") + "\n" + fence

	fences := make(map[int]struct{}, 2*len(blocks))
	for _, b := range blocks[:len(blocks)-1] {
		fences[b.open] = struct{}{}
		fences[b.close] = struct{}{}
	}
	prose := make([]string, 0, last.open)
	for i, l := range lines[:last.open] {
		if _, ok := fences[i]; ok {
			continue
		}
		prose = append(prose, l)
	}
	// Text after the closing fence still belongs to the explanation.
	if last.close+1 < len(lines) {
		prose = append(prose, lines[last.close+1:]...)
	}
	return strings.Join(prose, "\n"), block
}
