package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stderr)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Warning)
	logger.Infof("hidden %d", 1)
	logger.Warningf("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "[test]")

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("details")
	assert.Contains(t, buf.String(), "details")
}

func TestSetSink_KeepsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLevel(Error)
	defer SetLevel(Notice)
	SetSink(&buf)
	defer SetSink(os.Stderr)

	New("test").Noticef("should be filtered")
	assert.Empty(t, buf.String())
}

func TestVerbosity(t *testing.T) {
	assert.Equal(t, Notice, Verbosity(false, false))
	assert.Equal(t, Info, Verbosity(true, false))
	assert.Equal(t, Debug, Verbosity(true, true))
	assert.Equal(t, Debug, Verbosity(false, true))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, Warning, level)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
