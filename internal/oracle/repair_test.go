package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/vistest/internal/fault"
)

func TestRepairValidJSONPassesThrough(t *testing.T) {
	out, err := Repair(`{"x": 10, "y": 20, "w": 5, "h": 5}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 10, "y": 20, "w": 5, "h": 5}`, out)
}

func TestRepairStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"x\": 1, \"y\": 2, \"w\": 3, \"h\": 4}\n```"
	out, err := Repair(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1, "y": 2, "w": 3, "h": 4}`, out)

	raw = "```\n{\"x\": 1}\n```"
	out, err = Repair(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1}`, out)
}

func TestRepairTrimsSurroundingProse(t *testing.T) {
	raw := `Here is the bounding box you asked for: {"x": 100, "y": 200, "w": 50, "h": 20} Let me know if you need anything else.`
	out, err := Repair(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 100, "y": 200, "w": 50, "h": 20}`, out)
}

func TestRepairFixesNearJSON(t *testing.T) {
	// Trailing comma, a classic model slip.
	out, err := Repair(`{"x": 1, "y": 2,}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1, "y": 2}`, out)

	// Single quotes.
	out, err = Repair(`{'x': 1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1}`, out)
}

func TestDecodeObjectRejectsProse(t *testing.T) {
	// Prose either fails repair outright or repairs into a bare string;
	// neither is an acceptable object answer.
	_, err := decodeObject("I could not find the element you described.")
	require.Error(t, err)
	assert.Equal(t, fault.Oracle, fault.ClassOf(err))
}

func TestDecodeObject(t *testing.T) {
	obj, err := decodeObject("```json\n{\"x\": 7}\n```")
	require.NoError(t, err)
	assert.Equal(t, float64(7), obj["x"])

	_, err = decodeObject(`[1, 2, 3]`)
	require.Error(t, err, "arrays are not oracle answers")
	assert.Equal(t, fault.Oracle, fault.ClassOf(err))
}
