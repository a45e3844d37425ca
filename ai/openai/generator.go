// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/lexcite/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:  client,
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Complete sends the prompt and returns the first choice's text.
func (g *Generator) Complete(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	response, err := g.client.GenerateContent(ctx, buildMessages(prompt, opts), callOptions(opts)...)
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		g.logger.Debug("no choices returned from model")
		return "", ai.ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// CompleteStream streams the response through langchaingo's streaming
// callback. The request runs on its own goroutine and hands fragments over
// an unbuffered channel, so a consumer that stops ranging cancels the
// request instead of letting it run to completion.
func (g *Generator) CompleteStream(ctx context.Context, prompt string, opts ai.GenerateOptions) iter.Seq2[string, error] {
	var consumed atomic.Bool
	return func(yield func(string, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield("", ai.ErrStreamConsumed)
			return
		}

		ctx, cancel := g.withTimeout(ctx)
		defer cancel()

		fragments := make(chan string)
		done := make(chan error, 1)

		stream := llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			select {
			case fragments <- string(chunk):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		go func() {
			defer close(fragments)
			_, err := g.client.GenerateContent(ctx, buildMessages(prompt, opts), append(callOptions(opts), stream)...)
			done <- err
		}()

		count := 0
		for fragment := range fragments {
			count++
			if !yield(fragment, nil) {
				g.logger.Debug("stream abandoned by consumer", "fragments", count)
				return
			}
		}

		if err := <-done; err != nil {
			g.logger.Error("streaming generation failed", "fragments", count, "err", err)
			yield("", err)
			return
		}
		g.logger.Debug("stream complete", "fragments", count)
	}
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func buildMessages(prompt string, opts ai.GenerateOptions) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(opts.SystemPrompts)+1)
	for _, system := range opts.SystemPrompts {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})
	return content
}

func callOptions(opts ai.GenerateOptions) []llms.CallOption {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	return callOpts
}
