package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T, raw string) *jsonschema.Schema {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	compiler := jsonschema.NewCompiler()
	require.NoError(t, compiler.AddResource("test.json", doc))
	schema, err := compiler.Compile("test.json")
	require.NoError(t, err)
	return schema
}

func chatServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		EmbeddingModel: "test-embedding",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
	})
}

func chatReply(content string) []byte {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return raw
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Write(chatReply("  a question\n")) //nolint:errcheck
	})

	text, err := client.Generate(context.Background(), "ask me something")
	require.NoError(t, err)
	assert.Equal(t, "a question", text)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestGenerateRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(chatReply("recovered")) //nolint:errcheck
	})

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")

	var genErr *GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestGenerateStructuredStripsFences(t *testing.T) {
	schema := compileSchema(t, `{"type":"object","required":["verdict"]}`)
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("```json\n{\"verdict\": true}\n```")) //nolint:errcheck
	})

	doc, err := client.GenerateStructured(context.Background(), "prompt", schema)
	require.NoError(t, err)
	assert.Equal(t, true, doc["verdict"])
}

func TestGenerateStructuredReasksOnMalformedOutput(t *testing.T) {
	schema := compileSchema(t, `{"type":"object","required":["verdict"]}`)

	var calls atomic.Int32
	var secondPrompt string
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck

		if calls.Add(1) == 1 {
			w.Write(chatReply("sure! here is the JSON you asked for")) //nolint:errcheck
			return
		}
		secondPrompt = req.Messages[0].Content
		w.Write(chatReply(`{"verdict": false}`)) //nolint:errcheck
	})

	doc, err := client.GenerateStructured(context.Background(), "prompt", schema)
	require.NoError(t, err)
	assert.Equal(t, false, doc["verdict"])
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, secondPrompt, "raw JSON object only")
}

func TestGenerateStructuredFailsAfterSecondMalformedOutput(t *testing.T) {
	schema := compileSchema(t, `{"type":"object","required":["verdict"]}`)
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("not json, ever")) //nolint:errcheck
	})

	_, err := client.GenerateStructured(context.Background(), "prompt", schema)
	require.Error(t, err)
	var genErr *GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestGenerateStructuredRejectsSchemaViolation(t *testing.T) {
	schema := compileSchema(t, `{"type":"object","required":["verdict"]}`)
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(`{"other": 1}`)) //nolint:errcheck
	})

	_, err := client.GenerateStructured(context.Background(), "prompt", schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestEmbed(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		raw, _ := json.Marshal(map[string]any{
			"data": []map[string]any{{"embedding": []float64{0.1, 0.2, 0.3}}},
		})
		w.Write(raw) //nolint:errcheck
	})

	vec, err := client.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestEmbedEmptyData(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`)) //nolint:errcheck
	})

	_, err := client.Embed(context.Background(), "some text")
	require.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}

func TestMockEmbedderSimilarity(t *testing.T) {
	m := &MockEmbedder{}
	a, err := m.Embed(context.Background(), "binary search trees")
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), "binary search trees")
	require.NoError(t, err)
	assert.Equal(t, a, b, "embeddings are deterministic")

	c, err := m.Embed(context.Background(), "completely unrelated cooking recipe")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
