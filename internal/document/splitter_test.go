package document

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, Split("", 1000, 200))
		assert.Nil(t, Split("   \n  ", 1000, 200))
	})

	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := Split("hello world", 1000, 200)
		require.Len(t, chunks, 1)
		assert.Equal(t, "hello world", chunks[0])
	})

	t.Run("words merge up to the size limit", func(t *testing.T) {
		chunks := Split("aaaa bbbb cccc", 10, 4)
		require.Len(t, chunks, 2)
		assert.Equal(t, "aaaa bbbb", chunks[0])
		assert.Equal(t, "bbbb cccc", chunks[1])
	})

	t.Run("paragraph boundaries are preferred", func(t *testing.T) {
		text := "first paragraph here\n\nsecond paragraph here"
		chunks := Split(text, 25, 0)
		require.Len(t, chunks, 2)
		assert.Equal(t, "first paragraph here", chunks[0])
		assert.Equal(t, "second paragraph here", chunks[1])
	})

	t.Run("unbroken run falls back to sliding window", func(t *testing.T) {
		text := strings.Repeat("0123456789", 2) + "01234" // 25 runes, no separators
		chunks := Split(text, 10, 3)
		require.Len(t, chunks, 4)
		assert.Equal(t, "0123456789", chunks[0])
		// Each window starts 7 runes after the previous one.
		assert.Equal(t, text[7:17], chunks[1])
		assert.Equal(t, text[14:24], chunks[2])
		assert.Equal(t, text[21:], chunks[3])
	})

	t.Run("no chunk exceeds the size limit", func(t *testing.T) {
		text := strings.Repeat("the quick brown fox jumps over the lazy dog\n\n", 50) +
			strings.Repeat("x", 2500)
		for _, chunk := range Split(text, 1000, 200) {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 1000)
			assert.NotEmpty(t, strings.TrimSpace(chunk))
		}
	})

	t.Run("invalid overlap is ignored", func(t *testing.T) {
		chunks := Split(strings.Repeat("a", 25), 10, 10)
		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
		}
	})
}
