package llm

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/ameshram/learnify/models"
)

// Gateway is the single entry point to the language model provider.
type Gateway interface {
	// StreamText yields response fragments as they arrive. Upstream failures are
	// reported as one final sentinel fragment, never as an error.
	StreamText(ctx context.Context, system, user string, opts ...CallOption) iter.Seq[string]
	GenerateText(ctx context.Context, system, user string, opts ...CallOption) (string, error)
	Usage() models.UsageStats
}

type callOptions struct {
	model     string
	maxTokens int64
}

type CallOption func(*callOptions)

func WithModel(name string) CallOption {
	return func(o *callOptions) {
		o.model = name
	}
}

func WithMaxTokens(n int64) CallOption {
	return func(o *callOptions) {
		o.maxTokens = n
	}
}

func buildOptions(defaultModel string, defaultMaxTokens int64, opts []CallOption) callOptions {
	o := callOptions{model: defaultModel, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTokens <= 0 {
		o.maxTokens = defaultMaxTokens
	}
	return o
}

// usageCounter accumulates token counts for the lifetime of the process.
type usageCounter struct {
	input  atomic.Int64
	output atomic.Int64
}

func (u *usageCounter) add(input, output int64) {
	u.input.Add(input)
	u.output.Add(output)
}

func (u *usageCounter) snapshot() models.UsageStats {
	in, out := u.input.Load(), u.output.Load()
	return models.UsageStats{
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  in + out,
	}
}
