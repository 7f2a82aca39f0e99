// Package agent implements the LLM orchestration layer: a tool-calling
// conversation loop over the Anthropic API with two tools, web search
// and the email-notification decision. Update-style queries bypass the
// model and run the pipeline directly.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"notify_agent/internal/model"
	"notify_agent/internal/notify"
	"notify_agent/internal/search"
)

// maxIterations bounds the tool-use conversation loop.
const maxIterations = 10

// Agent drives queries through the Anthropic API or, for update
// queries, straight through the search/decide pipeline.
type Agent struct {
	client     *anthropic.Client
	model      string
	history    []anthropic.MessageParam
	search     search.Provider
	recorder   *notify.Recorder
	maxResults int
	log        *slog.Logger
}

// New creates an Agent.
func New(apiKey, modelName string, provider search.Provider, recorder *notify.Recorder, maxResults int, log *slog.Logger) *Agent {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Agent{
		client:     &client,
		model:      modelName,
		history:    make([]anthropic.MessageParam, 0),
		search:     provider,
		recorder:   recorder,
		maxResults: maxResults,
		log:        log,
	}
}

// Run answers a query. Update queries take the direct path; everything
// else goes through the model with tools available.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	if IsUpdateQuery(query) {
		return a.handleUpdateQuery(ctx, query)
	}
	return a.converse(ctx, query)
}

// handleUpdateQuery runs the search and decision pipeline directly and
// formats a combined answer. Search failures become part of the answer;
// storage failures propagate as errors.
func (a *Agent) handleUpdateQuery(ctx context.Context, query string) (string, error) {
	topic := ExtractTopic(query)

	results, err := a.search.Search(ctx, topic+" updates", a.maxResults)
	if err != nil {
		a.log.Warn("web search failed", "topic", topic, "error", err)
		return fmt.Sprintf("Search for %q failed: %v\n\nEmail Decision: no need to send email\nReasoning: web search failed, nothing to evaluate", topic, err), nil
	}

	decision, err := a.recorder.Decide(ctx, topic, results)
	if err != nil {
		return "", fmt.Errorf("decide notification: %w", err)
	}

	a.log.Info("update query handled",
		"topic", topic,
		"results", len(results),
		"new", len(decision.NewUpdates),
		"already_sent", len(decision.AlreadySent),
		"should_notify", decision.ShouldNotify)

	return formatUpdateAnswer(topic, results, decision), nil
}

func formatUpdateAnswer(topic string, results []model.Update, d *model.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search Results for %s updates:\n", topic)
	if len(results) == 0 {
		b.WriteString("  (no results)\n")
	}
	for i, r := range results {
		fmt.Fprintf(&b, "  %d. %s\n     %s\n", i+1, r.Title, r.URL)
	}

	status := "No need to send email"
	if d.ShouldNotify {
		status = "Will send email"
	} else if strings.Contains(d.Reasoning, "already sent") {
		status = "Email already sent"
	}

	fmt.Fprintf(&b, "\nEmail Decision: %s\nReasoning: %s\n", status, d.Reasoning)

	if d.Email != nil {
		body := d.Email.Body
		const previewLimit = 2000
		if len(body) > previewLimit {
			body = body[:previewLimit] + "..."
		}
		fmt.Fprintf(&b, "\nEmail Content:\nSubject: %s\n\n---\n%s\n---\n", d.Email.Subject, body)
	}
	return b.String()
}

// converse runs the tool-use conversation loop until the model produces
// a final text answer or the iteration bound is hit.
func (a *Agent) converse(ctx context.Context, userMessage string) (string, error) {
	var fullMessage string
	if len(a.history) == 0 {
		fullMessage = a.systemPrompt() + "\n\n---\n\nUser: " + userMessage
	} else {
		fullMessage = userMessage
	}

	a.history = append(a.history, anthropic.NewUserMessage(
		anthropic.NewTextBlock(fullMessage),
	))

	for iteration := 0; iteration < maxIterations; iteration++ {
		response, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 4096,
			Messages:  a.history,
			Tools:     a.tools(),
		})
		if err != nil {
			return "", fmt.Errorf("api call: %w", err)
		}

		if response.StopReason == "end_turn" {
			var text string
			for _, block := range response.Content {
				if block.Type == "text" {
					text += block.Text
				}
			}
			a.history = append(a.history, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(text),
			))
			return text, nil
		}

		if response.StopReason != "tool_use" {
			return "", fmt.Errorf("unexpected stop reason: %s", response.StopReason)
		}

		a.history = append(a.history, response.ToParam())

		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range response.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok {
				continue
			}
			result, err := a.executeTool(ctx, toolUse.Name, toolUse.Input)
			if err != nil {
				a.log.Error("tool execution failed", "tool", toolUse.Name, "error", err)
				toolResults = append(toolResults, anthropic.NewToolResultBlock(toolUse.ID, fmt.Sprintf("Error: %v", err), true))
			} else {
				a.log.Debug("tool executed", "tool", toolUse.Name)
				toolResults = append(toolResults, anthropic.NewToolResultBlock(toolUse.ID, result, false))
			}
		}

		a.history = append(a.history, anthropic.NewUserMessage(toolResults...))
	}

	return "", fmt.Errorf("conversation exceeded maximum iterations (%d)", maxIterations)
}

// ClearHistory clears the conversation history.
func (a *Agent) ClearHistory() {
	a.history = make([]anthropic.MessageParam, 0)
}
