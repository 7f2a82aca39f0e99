package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// tools returns the tool definitions for function calling.
func (a *Agent) tools() []anthropic.ToolUnionParam {
	toolParams := []anthropic.ToolParam{
		{
			Name:        "search_web",
			Description: anthropic.String("Search the web for current information about a topic, event, or query. Returns JSON with title, url, and snippet per result."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"query":       map[string]interface{}{"type": "string", "description": "The search query (required)"},
					"max_results": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 20, "description": "Maximum number of results (default: 5)"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "check_email_needed",
			Description: anthropic.String("Decide whether a notification email should be sent for a topic. Searches the web for recent updates and consults the notification memory so duplicates within the dedup window are never announced twice. Returns the decision as JSON with reasoning."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"topic": map[string]interface{}{"type": "string", "description": "The topic to check for updates (required)"},
				},
				Required: []string{"topic"},
			},
		},
	}

	tools := make([]anthropic.ToolUnionParam, len(toolParams))
	for i := range toolParams {
		tool := toolParams[i]
		tools[i] = anthropic.ToolUnionParam{OfTool: &tool}
	}
	return tools
}

// executeTool dispatches one tool call. Tool input is the JSON the
// model produced; malformed input is rejected before anything runs.
func (a *Agent) executeTool(ctx context.Context, name string, input interface{}) (string, error) {
	raw, err := rawToolInput(input)
	if err != nil {
		return "", err
	}
	switch name {
	case "search_web":
		var params struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}
		if err := json.Unmarshal(raw, &params); err != nil {
			return "", fmt.Errorf("unmarshal tool input: %w", err)
		}
		return a.toolSearchWeb(ctx, params.Query, params.MaxResults)
	case "check_email_needed":
		var params struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(raw, &params); err != nil {
			return "", fmt.Errorf("unmarshal tool input: %w", err)
		}
		return a.toolCheckEmailNeeded(ctx, params.Topic)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// toolSearchWeb runs a web search and returns the results as JSON.
func (a *Agent) toolSearchWeb(ctx context.Context, query string, maxResults int) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	if maxResults <= 0 {
		maxResults = a.maxResults
	}

	results, err := a.search.Search(ctx, query, maxResults)
	if err != nil {
		// Search failures are part of the answer, not a crash.
		return toJSON(map[string]string{"error": fmt.Sprintf("search failed: %v", err)}), nil
	}
	return toJSON(results), nil
}

// toolCheckEmailNeeded searches for recent updates on the topic and runs
// the notification decision against the dedup memory.
func (a *Agent) toolCheckEmailNeeded(ctx context.Context, topic string) (string, error) {
	if topic == "" {
		return toJSON(map[string]interface{}{
			"should_notify": false,
			"reasoning":     "no topic specified for update check",
		}), nil
	}

	query := fmt.Sprintf("latest updates %s today recent changes", topic)
	results, err := a.search.Search(ctx, query, a.maxResults)
	if err != nil {
		return toJSON(map[string]interface{}{
			"should_notify": false,
			"reasoning":     fmt.Sprintf("web search failed: %v", err),
		}), nil
	}

	decision, err := a.recorder.Decide(ctx, topic, results)
	if err != nil {
		// Storage failures must surface: a silent "not sent" risks a
		// missed duplicate check.
		return "", fmt.Errorf("decide notification: %w", err)
	}
	return toJSON(decision), nil
}

// rawToolInput normalizes the SDK's tool input, which may arrive as
// decoded values or raw JSON depending on the SDK version.
func rawToolInput(input interface{}) (json.RawMessage, error) {
	switch v := input.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal tool input: %w", err)
		}
		return data, nil
	}
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"marshal result: %v"}`, err)
	}
	return string(data)
}
