package llm

import (
	"context"
	"errors"
	"iter"
	"net"
	"net/url"
	"strings"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const providerOpenAI = "openai"

var errStreamStopped = errors.New("stream consumer stopped")

// LangchainGateway talks to any langchaingo model; the server wires it to OpenAI.
type LangchainGateway struct {
	llm              llms.Model
	provider         string
	defaultModel     string
	defaultMaxTokens int64
	usage            usageCounter
}

func NewOpenAIGateway(apiKey, defaultModel string, defaultMaxTokens int64, opts ...openai.Option) (*LangchainGateway, error) {
	llm, err := openai.New(append([]openai.Option{
		openai.WithModel(defaultModel),
		openai.WithToken(apiKey),
	}, opts...)...)
	if err != nil {
		return nil, err
	}

	return NewLangchainGateway(llm, providerOpenAI, defaultModel, defaultMaxTokens), nil
}

func NewLangchainGateway(llm llms.Model, provider, defaultModel string, defaultMaxTokens int64) *LangchainGateway {
	return &LangchainGateway{
		llm:              llm,
		provider:         provider,
		defaultModel:     defaultModel,
		defaultMaxTokens: defaultMaxTokens,
	}
}

func (g *LangchainGateway) messages(system, user string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
}

func (g *LangchainGateway) callOptions(o callOptions) []llms.CallOption {
	return []llms.CallOption{
		llms.WithModel(o.model),
		llms.WithMaxTokens(int(o.maxTokens)),
	}
}

func (g *LangchainGateway) StreamText(ctx context.Context, system, user string, opts ...CallOption) iter.Seq[string] {
	o := buildOptions(g.defaultModel, g.defaultMaxTokens, opts)

	return func(yield func(string) bool) {
		log := logger.WithContext(ctx).WithFields(logrus.Fields{"provider": g.provider, "model": o.model})
		log.Info("Starting streaming model call")

		stopped := false
		callOpts := append(g.callOptions(o), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if stopped {
				return errStreamStopped
			}
			if len(chunk) == 0 {
				return nil
			}
			if !yield(string(chunk)) {
				stopped = true
				return errStreamStopped
			}
			return nil
		}))

		resp, err := g.llm.GenerateContent(ctx, g.messages(system, user), callOpts...)
		if err != nil {
			if stopped || errors.Is(err, errStreamStopped) {
				log.Info("Stream consumer stopped early")
				return
			}
			if ctx.Err() != nil {
				log.WithError(err).Info("Streaming model call cancelled")
				return
			}
			upstreamErr := g.classify(err)
			log.WithError(err).WithField("kind", upstreamErr.Kind.String()).Error("Streaming model call failed")
			yield(upstreamErr.Fragment())
			return
		}

		in, out := tokenUsage(resp)
		g.usage.add(in, out)
		log.WithFields(logrus.Fields{"input_tokens": in, "output_tokens": out}).Info("Successfully completed streaming model call")
	}
}

func (g *LangchainGateway) GenerateText(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	o := buildOptions(g.defaultModel, g.defaultMaxTokens, opts)
	log := logger.WithContext(ctx).WithFields(logrus.Fields{"provider": g.provider, "model": o.model})
	log.Info("Starting model call")

	resp, err := g.llm.GenerateContent(ctx, g.messages(system, user), g.callOptions(o)...)
	if err != nil {
		upstreamErr := g.classify(err)
		log.WithError(err).WithField("kind", upstreamErr.Kind.String()).Error("Failed to generate LLM response")
		return "", upstreamErr
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Kind: KindAPI, Provider: g.provider, Err: errors.New("empty response from model")}
	}

	in, out := tokenUsage(resp)
	g.usage.add(in, out)
	log.WithFields(logrus.Fields{"input_tokens": in, "output_tokens": out}).Info("Successfully completed model call")

	return resp.Choices[0].Content, nil
}

func (g *LangchainGateway) Usage() models.UsageStats {
	return g.usage.snapshot()
}

// classify has only the error text and chain to go on; langchaingo does not
// expose a typed status error for its OpenAI client.
func (g *LangchainGateway) classify(err error) *UpstreamError {
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &UpstreamError{Kind: KindConnection, Provider: g.provider, Err: err}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return &UpstreamError{Kind: KindRateLimit, Provider: g.provider, Err: err}
	}
	return &UpstreamError{Kind: KindAPI, Provider: g.provider, Err: err}
}

func tokenUsage(resp *llms.ContentResponse) (int64, int64) {
	if resp == nil || len(resp.Choices) == 0 {
		return 0, 0
	}
	info := resp.Choices[0].GenerationInfo
	return intFromInfo(info, "PromptTokens"), intFromInfo(info, "CompletionTokens")
}

func intFromInfo(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
