package hybrid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSnippet_ShortTextReturnedWhole(t *testing.T) {
	view := ResourceView{Title: "short title"}

	snippet := buildSnippet("title", view)

	assert.Equal(t, "short title", snippet)
}

func TestBuildSnippet_CentersOnFirstQueryTermMatch(t *testing.T) {
	body := strings.Repeat("filler ", 100) + "needle" + strings.Repeat(" filler", 100)
	view := ResourceView{Body: body}

	snippet := buildSnippet("needle", view)

	assert.Contains(t, snippet, "needle")
	assert.LessOrEqual(t, len([]rune(snippet)), maxSnippetLen+2) // +2 for ellipses
}

func TestBuildSnippet_NoMatchFallsBackToLeadingText(t *testing.T) {
	body := strings.Repeat("x", 500)
	view := ResourceView{Body: body}

	snippet := buildSnippet("absent", view)

	assert.True(t, strings.HasPrefix(snippet, "xxxx"))
}

func TestTruncateRunes_AddsEllipsisWhenTruncated(t *testing.T) {
	out := truncateRunes("hello world", 5)
	assert.Equal(t, "hello…", out)
}
