package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewWithConfig(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(&buf, "srv", log.InfoLevel, false, false, log.LogfmtFormatter)
	l.Debug("hidden")
	l.Info("shown", "n", 3)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "n=3")
	assert.Contains(t, out, "srv")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	assert.Equal(t, log.FatalLevel, l.GetLevel())
}
