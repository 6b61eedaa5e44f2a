package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskResultUnmarshalBareString(t *testing.T) {
	var task TaskResult
	require.NoError(t, json.Unmarshal([]byte(`"requirements-analyst"`), &task))

	assert.Equal(t, "requirements-analyst", task.Name)
	assert.False(t, task.Detailed)
	assert.Empty(t, task.Status)
}

func TestTaskResultUnmarshalObject(t *testing.T) {
	data := []byte(`{"name":"rapid-builder","status":"completed","file_count":3}`)

	var task TaskResult
	require.NoError(t, json.Unmarshal(data, &task))

	assert.Equal(t, "rapid-builder", task.Name)
	assert.Equal(t, "completed", task.Status)
	assert.Equal(t, 3, task.FileCount)
	assert.True(t, task.Detailed)
}

func TestTaskResultMarshalDetailed(t *testing.T) {
	task := DetailedTask("rapid-builder", "partial", 1)

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var back TaskResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, task.Name, back.Name)
	assert.Equal(t, task.Status, back.Status)
	assert.Equal(t, task.FileCount, back.FileCount)
	assert.True(t, back.Detailed)
}

func TestArtifactUnmarshalWrapped(t *testing.T) {
	data := []byte(`{"value":{"style":"layered"},"shared_by":"project-architect"}`)

	var a Artifact
	require.NoError(t, json.Unmarshal(data, &a))

	assert.Equal(t, map[string]any{"style": "layered"}, a.Value)
	assert.Equal(t, "project-architect", a.SharedBy)
}

func TestArtifactUnmarshalRawValue(t *testing.T) {
	var a Artifact
	require.NoError(t, json.Unmarshal([]byte(`"plain string artifact"`), &a))
	assert.Equal(t, "plain string artifact", a.Value)
	assert.Empty(t, a.SharedBy)

	var b Artifact
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &b))
	assert.Equal(t, []any{"a", "b"}, b.Value)
}
