package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/fot_agents/internal/agents"
	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/entry"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

func openBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := OpenBackend(BackendOptions{Graph: GraphOptions{InMemory: true}}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func inProcess(t *testing.T, name string, backend capability.Host) *InProcess {
	t.Helper()
	a, err := agents.New(name, agents.Deps{Client: capability.NewClient(backend)})
	require.NoError(t, err)
	return NewInProcess(entry.New(a, nil))
}

func invoke(t *testing.T, p *InProcess, body string) *wire.Response {
	t.Helper()
	out, err := p.Invoke(context.Background(), []byte(body))
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(out)
	require.NoError(t, err)
	return resp
}

func TestInProcess_StudentWritesGraph(t *testing.T) {
	backend := openBackend(t)
	student := inProcess(t, agents.Student, backend)

	resp := invoke(t, student, `{"op":"update_mastery","concept":"photosynthesis","delta":0.1,"context":"lab"}`)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, 0, student.Outstanding())

	out, err := backend.Graph.Query(context.Background(), []byte(`{"operation":"q","concept":"photosynthesis"}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"operation":"update_mastery"`)

	snap, err := backend.Metrics.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap[`fot_resonance_score{agent="student_agent"}`])
}

func TestInProcess_TeacherThenParent(t *testing.T) {
	backend := openBackend(t)

	resp := invoke(t, inProcess(t, agents.Teacher, backend),
		`{"op":"create_lesson","concept":"photosynthesis","class_id":"5B","content":"Chlorophyll"}`)
	require.True(t, resp.Success, resp.Message)
	require.NotEmpty(t, resp.LessonID)

	out, err := backend.Graph.Query(context.Background(), []byte(`{"operation":"q","lesson_id":"`+resp.LessonID+`"}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"class_id":"5B"`)

	resp = invoke(t, inProcess(t, agents.Parent, backend), `{"op":"get_child_progress","child_id":"kid-1"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, "kid-1", resp.ChildID)
}

func TestInProcess_ResonanceEmitsEvent(t *testing.T) {
	backend := openBackend(t)
	resp := invoke(t, inProcess(t, agents.ResonanceEngine, backend),
		`{"op":"calculate_truth_field","agent_id":"oracle","claim":"Leaves are green","context":"botany"}`)
	require.True(t, resp.Success)

	events := backend.Events.Recent()
	require.Len(t, events, 1)
	assert.Equal(t, "oracle", events[0].AgentID)
	assert.Equal(t, resp.TruthFieldStrength, events[0].Frequency)
}

func TestInProcess_TopicVirtues(t *testing.T) {
	backend := openBackend(t)
	topic := inProcess(t, agents.Topic, backend)

	resp := invoke(t, topic, `{"op":"grade_submission","student_id":"s1","lesson_data":{"concept":"c","difficulty":3,"time_spent":400}}`)
	require.True(t, resp.Success)

	snap, err := backend.Metrics.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0.15, snap[`fot_virtue_level{virtue="patience"}`])
	assert.Equal(t, 0.1, snap[`fot_virtue_level{virtue="honesty"}`])
}
