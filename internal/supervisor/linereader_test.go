package supervisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedLine struct {
	kind    string
	payload string
}

func TestStreamLines_ShortLinesPassThroughUnmodified(t *testing.T) {
	r := strings.NewReader("first\nsecond\nthird")
	var got []capturedLine
	streamLines(r, 1024, "stdout", func(kind, payload string) {
		got = append(got, capturedLine{kind, payload})
	})

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].payload)
	assert.Equal(t, "second", got[1].payload)
	assert.Equal(t, "third", got[2].payload)
	for _, l := range got {
		assert.Equal(t, "stdout", l.kind)
	}
}

func TestStreamLines_OverlongLineIsTruncatedWithWarningAndStreamContinues(t *testing.T) {
	overlong := strings.Repeat("x", 10*readerBufferBytes)
	r := strings.NewReader(overlong + "\n" + "next line survives\n")

	var got []capturedLine
	streamLines(r, 128, "stdout", func(kind, payload string) {
		got = append(got, capturedLine{kind, payload})
	})

	require.Len(t, got, 3, "truncated line, its warning, and the following line must all be delivered")
	assert.Equal(t, "stdout", got[0].kind)
	assert.Len(t, got[0].payload, 128)
	assert.Equal(t, strings.Repeat("x", 128), got[0].payload)

	assert.Equal(t, "warning", got[1].kind)

	assert.Equal(t, "stdout", got[2].kind)
	assert.Equal(t, "next line survives", got[2].payload)
}

func TestStreamLines_FinalLineWithoutTrailingNewlineIsEmitted(t *testing.T) {
	r := strings.NewReader("no newline at the end")
	var got []capturedLine
	streamLines(r, 1024, "stdout", func(kind, payload string) {
		got = append(got, capturedLine{kind, payload})
	})

	require.Len(t, got, 1)
	assert.Equal(t, "no newline at the end", got[0].payload)
}
