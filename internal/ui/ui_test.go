package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Out, color.NoColor
	Out = &buf
	color.NoColor = true
	t.Cleanup(func() {
		Out = prevOut
		color.NoColor = prevNoColor
	})
	return &buf
}

func TestMessages(t *testing.T) {
	buf := capture(t)

	Info("starting %d containers", 2)
	Success("done")
	Fail("boom: %v", "x")
	Warn("careful")
	DimMsg("quiet")

	assert.Equal(t, strings.Join([]string{
		"  → starting 2 containers",
		"  ✔ done",
		"  ✘ boom: x",
		"  ○ careful",
		"  quiet",
		"",
	}, "\n"), buf.String())
}

func TestHeader(t *testing.T) {
	buf := capture(t)

	Header("checkout")
	assert.True(t, strings.HasPrefix(buf.String(), "  ┌ testbed · checkout ─"))

	buf.Reset()
	Header(strings.Repeat("x", 80))
	assert.Contains(t, buf.String(), "─\n")
}

func TestBinding(t *testing.T) {
	buf := capture(t)

	Binding("db", "5432/tcp", "0.0.0.0:5433")
	assert.Equal(t, "    db         5432/tcp → 0.0.0.0:5433\n", buf.String())
}

func TestAskYesNo(t *testing.T) {
	capture(t)
	prevIn := In
	t.Cleanup(func() { In = prevIn })

	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"\n", true, true},
		{"\n", false, false},
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"maybe\n", true, false},
	}

	for _, tt := range tests {
		In = strings.NewReader(tt.input)
		assert.Equal(t, tt.want, AskYesNo("remove?", tt.defaultYes), "input %q", tt.input)
	}
}
