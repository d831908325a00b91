package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLineBreaks(t *testing.T) {
	text, err := WithLineBreaks(`Первая строка<br>Вторая <a href="/x">строка</a><br/>Третья<br />`)
	require.NoError(t, err)
	assert.Equal(t, "Первая строка\nВторая строка\nТретья\n", text)
}

func TestWithLineBreaksDropsScripts(t *testing.T) {
	text, err := WithLineBreaks(`<span>Слова</span><script>var x = 1;</script>`)
	require.NoError(t, err)
	assert.Equal(t, "Слова", text)
}

func TestCompact(t *testing.T) {
	text, err := Compact("<div>\n  <p> раз </p>\n<p>два</p>  </div>")
	require.NoError(t, err)
	assert.Equal(t, "раздва", text)
}

func TestLines(t *testing.T) {
	text, err := Lines("<div>\n  <p> раз </p>\n<p>два<br>три</p><!-- comment --><style>p{}</style></div>")
	require.NoError(t, err)
	assert.Equal(t, "раз\nдва\nтри", text)
}

func TestLinesEmpty(t *testing.T) {
	text, err := Lines("   ")
	require.NoError(t, err)
	assert.Empty(t, text)
}
