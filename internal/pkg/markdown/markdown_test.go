package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderTrimsLeadingWhitespace(t *testing.T) {
	var b Builder
	b.NewLine("first").NewLine("second")
	assert.Equal(t, "first\nsecond", b.String())
}

func TestTable(t *testing.T) {
	var b Builder
	b.NewLine("title").Table(2, []string{"a|b", "c", "d"})
	assert.Equal(t, "title\n\n|a\\|b|c|\n| :--- | :--- |\n|d||\n", b.String())
}

func TestTableEmpty(t *testing.T) {
	var b Builder
	b.NewLine("only").Table(2, nil)
	assert.Equal(t, "only", b.String())
}

func TestInline(t *testing.T) {
	assert.Equal(t, `[fix \[WIP\]](https://x)`, Link("https://x", "fix [WIP]"))
	assert.Equal(t, "![alt](https://img =x25)", Image("alt", "https://img =x25"))
	assert.Equal(t, "**b**", Bold("b"))
	assert.Equal(t, "[![logo](https://img)](https://x)", ImageLink("https://x", "logo", "https://img"))
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "my--repo__name_x", badgeEscaper.Replace("my-repo_name x"))
	assert.Equal(t, "https://img.shields.io/badge/repository-my--repo-white", Badge("repository", "my-repo", "white"))
	assert.Equal(t, "https://img.shields.io/badge/build-a%2Fb-ff0000", Badge("build", "a/b", "ff0000"))
}
