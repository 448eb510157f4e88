package biz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request bodies are decoded by gin with encoding/json.
func TestRecordSpec_AbsentVersusNull(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		metadata  Optional[map[string]any]
		responses bool
	}{
		{
			name:     "absent",
			body:     `{"fields": {"text": "a"}}`,
			metadata: Optional[map[string]any]{},
		},
		{
			name:     "null",
			body:     `{"fields": {"text": "a"}, "metadata": null}`,
			metadata: Null[map[string]any](),
		},
		{
			name:      "present",
			body:      `{"fields": {"text": "a"}, "metadata": {"lang": "en"}, "responses": []}`,
			metadata:  Some(map[string]any{"lang": "en"}),
			responses: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec RecordSpec
			require.NoError(t, json.Unmarshal([]byte(tt.body), &spec))

			assert.Equal(t, tt.metadata, spec.Metadata)
			assert.True(t, spec.Fields.Present())
			assert.Equal(t, tt.responses, spec.Responses.Set)
			assert.False(t, spec.Suggestions.Set)
		})
	}
}

func TestRecordSpec_Decode(t *testing.T) {
	body := `{
		"id": "0b5c8f3e-7d8a-4b59-9a43-6f1f1c0d9a11",
		"external_id": "ext",
		"vectors": {"embedding": [0.5, 1]},
		"responses": [{"user_id": "5f6b1c8e-2b9f-4d1f-8b8e-3c7a9e2d4f10", "status": "submitted", "values": {"sentiment": {"value": "positive"}}}],
		"suggestions": [{"question_id": "7a1e4c2b-9d3f-4e8a-b5c6-1f2d3e4a5b6c", "value": ["a", "b"], "score": [0.1, 0.2], "agent": "model-v1"}]
	}`

	var spec RecordSpec
	require.NoError(t, json.Unmarshal([]byte(body), &spec))

	require.NotNil(t, spec.ID)
	assert.Equal(t, "0b5c8f3e-7d8a-4b59-9a43-6f1f1c0d9a11", spec.ID.String())
	assert.False(t, spec.Fields.Set)
	assert.Equal(t, Some("ext"), spec.ExternalID)
	assert.Equal(t, []float64{0.5, 1}, spec.Vectors["embedding"])

	require.Len(t, spec.Responses.Value, 1)
	assert.Equal(t, "positive", spec.Responses.Value[0].Values["sentiment"].Value)

	require.Len(t, spec.Suggestions.Value, 1)
	s := spec.Suggestions.Value[0]
	assert.Equal(t, []any{"a", "b"}, s.Value)
	assert.Equal(t, []any{0.1, 0.2}, s.Score)
	assert.Equal(t, "model-v1", *s.Agent)
	assert.Nil(t, s.Type)
}

func TestOptional_Marshal(t *testing.T) {
	data, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
		C Optional[string] `json:"c"`
	}{A: Some("x"), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null,"c":null}`, string(data))
}
