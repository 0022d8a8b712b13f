package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ramc/internal/lvm"
)

func TestCompile_Text(t *testing.T) {
	out, err := execute(t, "compile", transitivePath)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled "+transitivePath+": 4 relation(s)")
	assert.Contains(t, out, "0 edge/2 btree orders=")
	assert.Contains(t, out, "3 new/2 btree")
	assert.NotContains(t, out, "Wrote canonical program")
}

func TestCompile_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", transitivePath)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   CompileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.ProgramID, 64)
	assert.Equal(t, 2, resp.Data.IODirectives)
	require.Len(t, resp.Data.Relations, 4)
	assert.Equal(t, "delta", resp.Data.Relations[2].Name)
	assert.Empty(t, resp.Data.Subroutines)
	assert.Positive(t, resp.Data.Instructions)
	assert.Greater(t, resp.Data.MainWords, resp.Data.Instructions)
}

func TestCompile_OutputFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "program.json")

	out, err := execute(t, "compile", transitivePath, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical program to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	prog, err := lvm.UnmarshalProgram(data)
	require.NoError(t, err)
	assert.Equal(t, 4, prog.Relations.Len())
}

func TestCompile_ParallelFlag(t *testing.T) {
	_, err := execute(t, "compile", transitivePath, "--parallel", "threads")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown parallel strategy")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		exitCode int
		code     string
	}{
		{"missing file", "testdata/missing.cue", ExitCommandError, "E005"},
		{"syntax error", "testdata/syntax.cue", ExitFailure, "E006"},
		{"invalid program", "testdata/invalid.cue", ExitFailure, ErrCodeInvalidProgram},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "compile", tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestCompile_WriteFailure(t *testing.T) {
	output := filepath.Join(t.TempDir(), "no-such-dir", "program.json")

	out, err := execute(t, "compile", transitivePath, "-o", output)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]: writing output file")
}
