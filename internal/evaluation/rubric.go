package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/banterlab/vetta/internal/gateway"
)

// rubricSchemaJSON constrains the model's rubric response: a 1–5 rating per
// dimension plus free-text feedback.
const rubricSchemaJSON = `{
  "type": "object",
  "properties": {
    "dimensions": {
      "type": "object",
      "additionalProperties": {
        "type": "number",
        "minimum": 1,
        "maximum": 5
      },
      "minProperties": 1
    },
    "feedback": {
      "type": "string"
    }
  },
  "required": ["dimensions", "feedback"]
}`

// criticSchemaJSON constrains the critic's consistency verdict.
const criticSchemaJSON = `{
  "type": "object",
  "properties": {
    "consistent": {
      "type": "boolean"
    },
    "reason": {
      "type": "string"
    }
  },
  "required": ["consistent"]
}`

var rubricSchema *jsonschema.Schema
var criticSchema *jsonschema.Schema

func init() {
	rubricSchema = mustCompileSchema(rubricSchemaJSON, "rubric.schema.json")
	criticSchema = mustCompileSchema(criticSchemaJSON, "critic.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// rubricResponse is the decoded model rubric output, ratings still on the
// 1–5 scale.
type rubricResponse struct {
	Dimensions map[string]float64 `mapstructure:"dimensions"`
	Feedback   string             `mapstructure:"feedback"`
}

type criticVerdict struct {
	Consistent bool   `mapstructure:"consistent"`
	Reason     string `mapstructure:"reason"`
}

// scoreRubric asks the model for a structured per-dimension rating and
// decodes it.
func scoreRubric(ctx context.Context, gen gateway.Generator, question, answer, topic string, dimensions []string) (*rubricResponse, error) {
	prompt := buildRubricPrompt(question, answer, topic, dimensions)

	doc, err := gen.GenerateStructured(ctx, prompt, rubricSchema)
	if err != nil {
		return nil, err
	}

	var resp rubricResponse
	if err := mapstructure.Decode(doc, &resp); err != nil {
		return nil, fmt.Errorf("decoding rubric response: %w", err)
	}

	// Only keep the dimensions we asked for; models occasionally invent
	// extra ones.
	kept := make(map[string]float64, len(dimensions))
	for _, dim := range dimensions {
		if v, ok := resp.Dimensions[dim]; ok {
			kept[dim] = v
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("rubric response contained none of the requested dimensions")
	}
	resp.Dimensions = kept

	return &resp, nil
}

// critique asks a second, independent model call to review the rubric result
// for internal consistency.
func critique(ctx context.Context, gen gateway.Generator, question, answer string, rubric *rubricResponse) (*criticVerdict, error) {
	prompt := buildCriticPrompt(question, answer, rubric)

	doc, err := gen.GenerateStructured(ctx, prompt, criticSchema)
	if err != nil {
		return nil, err
	}

	var verdict criticVerdict
	if err := mapstructure.Decode(doc, &verdict); err != nil {
		return nil, fmt.Errorf("decoding critic verdict: %w", err)
	}
	return &verdict, nil
}

func buildRubricPrompt(question, answer, topic string, dimensions []string) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced technical interviewer scoring a candidate's answer.\n\n")
	sb.WriteString(fmt.Sprintf("Topic: %s\n\n", topic))
	sb.WriteString(fmt.Sprintf("Question:\n%s\n\n", question))
	sb.WriteString(fmt.Sprintf("Answer:\n%s\n\n", answer))
	sb.WriteString("Rate the answer from 1 (poor) to 5 (excellent) on each of these dimensions:\n")
	for _, dim := range dimensions {
		sb.WriteString(fmt.Sprintf("- %s\n", dim))
	}
	sb.WriteString("\nRespond with a JSON object: ")
	sb.WriteString(`{"dimensions": {"<dimension>": <1-5>, ...}, "feedback": "<two or three sentences for the candidate>"}`)
	return sb.String()
}

func buildCriticPrompt(question, answer string, rubric *rubricResponse) string {
	ratings, _ := json.Marshal(rubric.Dimensions) //nolint:errcheck

	var sb strings.Builder
	sb.WriteString("You are reviewing another interviewer's scoring for internal consistency and bias.\n\n")
	sb.WriteString(fmt.Sprintf("Question:\n%s\n\n", question))
	sb.WriteString(fmt.Sprintf("Answer:\n%s\n\n", answer))
	sb.WriteString(fmt.Sprintf("Ratings (1-5): %s\n", ratings))
	sb.WriteString(fmt.Sprintf("Feedback: %s\n\n", rubric.Feedback))
	sb.WriteString("Do the ratings agree with each other and with the feedback text? ")
	sb.WriteString("Flag contradictions (e.g. glowing feedback with low ratings) or scores unsupported by the answer.\n\n")
	sb.WriteString(`Respond with a JSON object: {"consistent": <true|false>, "reason": "<one sentence>"}`)
	return sb.String()
}
