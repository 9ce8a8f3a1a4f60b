package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowserCommands(t *testing.T) {
	t.Parallel()

	url := ServerURL(20262)
	assert.Equal(t, "http://localhost:20262", url)

	assert.Equal(t, [][]string{{"open", url}}, browserCommands("darwin", url))

	win := browserCommands("windows", url)
	assert.Equal(t, "rundll32", win[0][0])
	assert.Equal(t, []string{"explorer", url}, win[1])

	linux := browserCommands("linux", url)
	assert.Equal(t, []string{"xdg-open", url}, linux[0])
	assert.Len(t, linux, 5)
}
