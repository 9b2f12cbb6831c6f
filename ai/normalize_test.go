package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsGreetingAndRewritesLists(t *testing.T) {
	req := require.New(t)
	raw := "Hello there! Let me help.\n1. Check the divisor.\n2. Guard the division.\n```python\nprint(1)\n```"

	got := Normalize(raw, false)

	req.Equal("Let me help.\n- Check the divisor.\n- Guard the division.\n\n```python\nprint(1)\n```", got)
}

func TestNormalize_GreetingIsCaseInsensitive(t *testing.T) {
	cases := []string{
		"HI! The loop never ends.",
		"great start. The loop never ends.",
		"Hey there? The loop never ends.",
		"Hello. Hi! The loop never ends.",
	}
	for _, raw := range cases {
		require.Equal(t, "The loop never ends.", Normalize(raw, false), raw)
	}
}

func TestNormalize_GreetingStopsAtItsOwnLine(t *testing.T) {
	req := require.New(t)

	// Given a greeting line without punctuation before the diagnosis
	got := Normalize("Hi there\n\nYour code divides by zero. Guard the divisor.\n```python\nprint(1)\n```", false)
	req.Equal("Your code divides by zero. Guard the divisor.\n\n```python\nprint(1)\n```", got)

	got = Normalize("Hi\n\nThe problem is the missing colon.", false)
	req.Equal("The problem is the missing colon.", got)
}

func TestNormalize_AffirmationKeepsItsSentence(t *testing.T) {
	cases := map[string]string{
		"Sure, here is what happened. The loop never ends.":                    "Here is what happened. The loop never ends.",
		"Certainly, the loop never terminates because i is never incremented.": "The loop never terminates because i is never incremented.",
		"Of course! The index starts at 1.":                                    "The index starts at 1.",
		"Absolutely nothing is printed because main returns early.":            "Absolutely nothing is printed because main returns early.",
	}
	for raw, want := range cases {
		require.Equal(t, want, Normalize(raw, false), raw)
	}
}

func TestNormalize_KeepsWordsThatOnlyStartLikeAGreeting(t *testing.T) {
	require.Equal(t, "History shows the index is off by one.",
		Normalize("History shows the index is off by one.", false))
}

func TestNormalize_OnlyTheFinalBlockSurvives(t *testing.T) {
	req := require.New(t)
	raw := "The name `cnt` is undefined.\n```\ncnt = 1\n```\nUse `count` instead.\n```python\ncount = 1\nprint(count)\n```"

	got := Normalize(raw, false)

	req.Equal(2, strings.Count(got, "```"))
	req.True(strings.HasSuffix(got, "```python\ncount = 1\nprint(count)\n```"))
	prose := strings.TrimSuffix(got, "```python\ncount = 1\nprint(count)\n```")
	req.NotContains(prose, "`")
	req.Contains(prose, "The name cnt is undefined.")
	req.Contains(prose, "Use count instead.")
}

func TestNormalize_ClosesUnterminatedBlock(t *testing.T) {
	got := Normalize("Missing paren.\n```python\nprint(1)", false)
	require.Equal(t, "Missing paren.\n\n```python\nprint(1)\n```", got)
}

func TestNormalize_GroundingMarker(t *testing.T) {
	req := require.New(t)

	// Given a grounded diagnosis whose response forgot the marker
	got := Normalize("Hello! Division by zero.", true)
	req.Equal(GroundingMarker+"\n\nDivision by zero.", got)

	// Given an ungrounded diagnosis whose response invented the marker
	got = Normalize(GroundingMarker+"\nDivision by zero.", false)
	req.Equal("Division by zero.", got)

	// Given a grounded response carrying the marker before a greeting
	got = Normalize(GroundingMarker+" Hi! Division by zero.", true)
	req.Equal(GroundingMarker+"\n\nDivision by zero.", got)
	req.Equal(1, strings.Count(got, GroundingMarker))
}

func TestNormalize_ListMarkersInsideBlockUntouched(t *testing.T) {
	got := Normalize("Fix it.\n```python\nx = [\n1. ,\n]\n```", false)
	require.Contains(t, got, "\n1. ,\n")
}

func TestNormalize_PlainTextUnchanged(t *testing.T) {
	require.Equal(t, "Indentation is off.", Normalize("  Indentation is off.  ", false))
}
