package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

const providerAnthropic = "anthropic"

type AnthropicGateway struct {
	client           *anthropic.Client
	defaultModel     string
	defaultMaxTokens int64
	usage            usageCounter
}

func NewAnthropicGateway(apiKey, defaultModel string, defaultMaxTokens int64, opts ...option.RequestOption) *AnthropicGateway {
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &AnthropicGateway{
		client:           &client,
		defaultModel:     defaultModel,
		defaultMaxTokens: defaultMaxTokens,
	}
}

func (g *AnthropicGateway) params(system, user string, o callOptions) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
}

func (g *AnthropicGateway) StreamText(ctx context.Context, system, user string, opts ...CallOption) iter.Seq[string] {
	o := buildOptions(g.defaultModel, g.defaultMaxTokens, opts)

	return func(yield func(string) bool) {
		log := logger.WithContext(ctx).WithFields(logrus.Fields{"provider": providerAnthropic, "model": o.model})
		log.Info("Starting streaming model call")

		stream := g.client.Messages.NewStreaming(ctx, g.params(system, user, o))
		defer stream.Close()

		message := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				log.WithError(err).Warn("Failed to accumulate stream event")
			}

			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}
			if !yield(text.Text) {
				log.Info("Stream consumer stopped early")
				g.usage.add(message.Usage.InputTokens, message.Usage.OutputTokens)
				return
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				log.WithError(err).Info("Streaming model call cancelled")
				return
			}
			upstreamErr := classifyAnthropicError(err)
			log.WithError(err).WithField("kind", upstreamErr.Kind.String()).Error("Streaming model call failed")
			yield(upstreamErr.Fragment())
			return
		}

		g.usage.add(message.Usage.InputTokens, message.Usage.OutputTokens)
		log.WithFields(logrus.Fields{
			"input_tokens":  message.Usage.InputTokens,
			"output_tokens": message.Usage.OutputTokens,
		}).Info("Successfully completed streaming model call")
	}
}

func (g *AnthropicGateway) GenerateText(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	o := buildOptions(g.defaultModel, g.defaultMaxTokens, opts)
	log := logger.WithContext(ctx).WithFields(logrus.Fields{"provider": providerAnthropic, "model": o.model})
	log.Info("Starting model call")

	response, err := g.client.Messages.New(ctx, g.params(system, user, o))
	if err != nil {
		upstreamErr := classifyAnthropicError(err)
		log.WithError(err).WithField("kind", upstreamErr.Kind.String()).Error("Failed to call Anthropic API")
		return "", upstreamErr
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	g.usage.add(response.Usage.InputTokens, response.Usage.OutputTokens)
	log.WithFields(logrus.Fields{
		"input_tokens":  response.Usage.InputTokens,
		"output_tokens": response.Usage.OutputTokens,
	}).Info("Successfully completed model call")

	return sb.String(), nil
}

func (g *AnthropicGateway) Usage() models.UsageStats {
	return g.usage.snapshot()
}

// classifyAnthropicError maps SDK errors onto UpstreamError kinds. Status errors are
// classified by code, transport failures are connection errors, and an error event
// received mid-stream is classified by its payload type.
func classifyAnthropicError(err error) *UpstreamError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return &UpstreamError{Kind: KindRateLimit, Provider: providerAnthropic, Err: err}
		}
		return &UpstreamError{Kind: KindAPI, Provider: providerAnthropic, Err: fmt.Errorf("status %d: %w", apiErr.StatusCode, err)}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: KindConnection, Provider: providerAnthropic, Err: err}
	}

	if streamErrorType(err) == "rate_limit_error" {
		return &UpstreamError{Kind: KindRateLimit, Provider: providerAnthropic, Err: err}
	}
	return &UpstreamError{Kind: KindAPI, Provider: providerAnthropic, Err: err}
}

// streamErrorType extracts the error type from the JSON payload the SDK embeds in the
// text of a streamed error event.
func streamErrorType(err error) string {
	msg := err.Error()
	start := strings.Index(msg, "{")
	if start < 0 {
		return ""
	}

	var payload struct {
		Type  string `json:"type"`
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(msg[start:]), &payload) != nil {
		if strings.Contains(msg, "rate_limit_error") {
			return "rate_limit_error"
		}
		return ""
	}
	if payload.Error.Type != "" {
		return payload.Error.Type
	}
	return payload.Type
}
