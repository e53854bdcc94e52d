package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/fot_agents/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPath, "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAgentsCommand(t *testing.T) {
	out, err := execute(t, "", "agents")
	require.NoError(t, err)
	assert.Contains(t, out, "harmonic_resonance_engine")
	assert.Contains(t, out, "calculate_truth_field, measure_resonance")
	assert.Contains(t, out, "start_lesson, grade_submission")
}

func TestInvokeCommand(t *testing.T) {
	out, err := execute(t, "", "invoke", "student", `{"op":"update_mastery","concept":"photosynthesis","delta":0.1}`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `{"success":true,"new_mastery":0.1,`), out)
}

func TestInvokeCommand_Stdin(t *testing.T) {
	out, err := execute(t, `{"op":"get_child_progress"}`, "invoke", "parent", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"message":"missing child id"`)
}

func TestInvokeCommand_UnknownAgent(t *testing.T) {
	_, err := execute(t, "", "invoke", "janitor", `{}`)
	assert.Error(t, err)
}

func TestRunWasmCommand_MissingModule(t *testing.T) {
	_, err := execute(t, "", "run-wasm", t.TempDir()+"/absent.wasm", `{}`)
	assert.Error(t, err)
}
