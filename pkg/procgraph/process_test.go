package procgraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFahrenheitToCelsius builds the (f - 32) / 1.8 process used across
// these tests.
func buildFahrenheitToCelsius() (*Process, *Parameter) {
	f := NewParameter("f").
		WithDescription("Degrees Fahrenheit").
		WithSchema(map[string]any{"type": "number"})

	g := New()
	g.AddNode("subtract", Args{"x": f, "y": 32}).Divide(1.8)

	return &Process{
		ID:         "fahrenheit_to_celsius",
		Summary:    "Convert Fahrenheit to Celsius",
		Parameters: []*Parameter{f},
		Graph:      g,
	}, f
}

// TestProcess_MarshalJSON tests the stored-process wire form.
func TestProcess_MarshalJSON(t *testing.T) {
	p, _ := buildFahrenheitToCelsius()

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "fahrenheit_to_celsius", got["id"])
	assert.Equal(t, "Convert Fahrenheit to Celsius", got["summary"])

	params, ok := got["parameters"].([]any)
	require.True(t, ok)
	require.Len(t, params, 1)
	param := params[0].(map[string]any)
	assert.Equal(t, "f", param["name"])
	assert.Equal(t, "Degrees Fahrenheit", param["description"])
	assert.Equal(t, map[string]any{"type": "number"}, param["schema"])
	assert.NotContains(t, param, "optional")

	pg, ok := got["process_graph"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, pg, "subtract1")
	require.Contains(t, pg, "divide1")

	div := pg["divide1"].(map[string]any)
	assert.Equal(t, true, div["result"])
}

// TestProcess_MarshalJSON_OptionalParameter tests that a default marks
// the parameter optional and carries the default.
func TestProcess_MarshalJSON_OptionalParameter(t *testing.T) {
	scale := NewParameter("scale").WithDefault(1.0)
	g := New()
	g.AddNode("multiply", Args{"x": NewParameter("data"), "y": scale})

	raw, err := json.Marshal(&Process{
		ID:         "scale_cube",
		Parameters: []*Parameter{scale},
		Graph:      g,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	param := got["parameters"].([]any)[0].(map[string]any)
	assert.Equal(t, true, param["optional"])
	assert.Equal(t, 1.0, param["default"])
}

// TestProcess_MarshalJSON_FlattenError tests that a broken graph fails
// marshalling instead of emitting partial output.
func TestProcess_MarshalJSON_FlattenError(t *testing.T) {
	_, err := json.Marshal(&Process{ID: "broken", Graph: New()})
	assert.Error(t, err)
}

// TestProcess_Invoke tests parameter binding through the wrapper.
func TestProcess_Invoke(t *testing.T) {
	p, _ := buildFahrenheitToCelsius()

	bound, err := p.Invoke(map[string]any{"f": 70})
	require.NoError(t, err)

	flat := mustFlatten(t, bound)
	assert.Equal(t, 70, flat["subtract1"].Arguments["x"])
}

// TestProcess_Invoke_Missing tests the unresolved-parameter failure.
func TestProcess_Invoke_Missing(t *testing.T) {
	p, _ := buildFahrenheitToCelsius()

	_, err := p.Invoke(nil)
	var unresolved *UnresolvedParameterError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "f", unresolved.Name)
}
