package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, "validate", transitivePath)
	require.NoError(t, err)
	assert.Equal(t, "✓ "+transitivePath+" is valid\n", out)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	out, err := execute(t, "validate", "testdata/invalid.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")

	assert.Contains(t, out, "✗ testdata/invalid.cue is invalid")
	assert.Contains(t, out, `E301: Project: relation "s" has arity 1 but 2 values were given`)
	assert.Contains(t, out, `E301: Fact: relation "r" has arity 2 but 1 values were given`)
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/invalid.cue")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Errors, 2)
}

func TestValidate_SyntaxErrorHasPosition(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/syntax.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "E006", resp.Data.Errors[0].Code)
	assert.Positive(t, resp.Data.Errors[0].Line)
}

func TestValidate_MissingFile(t *testing.T) {
	out, err := execute(t, "validate", "testdata/missing.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
