package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndList(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register(Tool{Name: "zeta"}, func(map[string]interface{}) (*Result, error) {
		return success(nil), nil
	}))
	require.NoError(t, r.Register(Tool{Name: "alpha"}, func(map[string]interface{}) (*Result, error) {
		return success(nil), nil
	}))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)

	_, ok := r.Get("alpha")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry(nil)

	err := r.Register(Tool{}, func(map[string]interface{}) (*Result, error) { return nil, nil })
	assert.Error(t, err)

	err = r.Register(Tool{Name: "x"}, nil)
	assert.Error(t, err)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(nil)

	result := r.Execute("nope", nil)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, *result.Error, "Unknown tool")
}

func TestExecuteHandlerError(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Tool{Name: "boom"}, func(map[string]interface{}) (*Result, error) {
		return nil, errors.New("engine on fire")
	}))

	result := r.Execute("boom", nil)
	assert.False(t, result.Success)
	assert.Contains(t, *result.Error, "engine on fire")
}

func TestExecuteHandlerPanic(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Tool{Name: "crash"}, func(map[string]interface{}) (*Result, error) {
		panic("nil dereference")
	}))

	result := r.Execute("crash", nil)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, *result.Error, "failed unexpectedly")
}

func TestExecutePassesParams(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Tool{Name: "echo"}, func(params map[string]interface{}) (*Result, error) {
		return success(map[string]interface{}{"got": params["key"]}), nil
	}))

	result := r.Execute("echo", map[string]interface{}{"key": "value"})
	require.True(t, result.Success)
	assert.Equal(t, "value", result.Data["got"])
}

func TestInputSchema(t *testing.T) {
	tool := Tool{
		Name: "press_button",
		Parameters: []Parameter{
			{Name: "button", Type: "string", Description: "which button", Required: true},
			{Name: "duration", Type: "integer", Description: "frames", Required: false},
		},
	}

	schema := tool.InputSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"button"}, schema["required"])

	props := schema["properties"].(map[string]interface{})
	require.Contains(t, props, "button")
	require.Contains(t, props, "duration")
	assert.Equal(t, "string", props["button"].(map[string]interface{})["type"])
}
