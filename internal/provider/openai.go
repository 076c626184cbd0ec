package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/indusense/testgen/internal/models"
)

// OpenAIOptions configures the network backend.
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration // per attempt
	Retry       Policy
	HTTPClient  *http.Client
	// RequestsPerMinute caps outbound calls, retries included. Zero disables it.
	RequestsPerMinute int
}

// OpenAI calls the chat completions API with bounded retries.
type OpenAI struct {
	client  *openai.Client
	opts    OpenAIOptions
	retrier *Retrier
	limiter *rate.Limiter
	logger  logrus.FieldLogger
}

// NewOpenAI creates the network backend.
func NewOpenAI(opts OpenAIOptions, logger logrus.FieldLogger) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingCredential
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	p := &OpenAI{
		client:  openai.NewClientWithConfig(cfg),
		opts:    opts,
		retrier: NewRetrier(opts.Retry, IsTransient),
		logger:  logger.WithField("provider", NameOpenAI),
	}
	if opts.RequestsPerMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	p.retrier.OnRetry = func(attempt int, err error, delay time.Duration) {
		p.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		}).Warn("Transient backend error, retrying")
	}
	return p, nil
}

// Name returns "openai".
func (p *OpenAI) Name() string {
	return NameOpenAI
}

// Model returns the configured model.
func (p *OpenAI) Model() string {
	return p.opts.Model
}

// Generate sends the prompt as a single user message.
func (p *OpenAI) Generate(ctx context.Context, prompt string) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model: p.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.opts.MaxTokens,
		Temperature: p.opts.Temperature,
	}

	resp, outcome, err := Do(ctx, p.retrier, func(ctx context.Context, attempt int) (*Response, error) {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()

		p.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"model":   p.opts.Model,
		}).Debug("Calling chat completions")

		out, err := p.client.CreateChatCompletion(attemptCtx, req)
		if err != nil {
			return nil, err
		}
		return toResponse(out, p.opts.Model)
	})
	if err != nil {
		return nil, &GenerationError{
			Provider:  NameOpenAI,
			Attempts:  outcome.Attempts,
			Transient: outcome.Transient,
			Err:       err,
		}
	}
	return resp, nil
}

func toResponse(out openai.ChatCompletionResponse, requestedModel string) (*Response, error) {
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	choice := out.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	model := out.Model
	if model == "" {
		model = requestedModel
	}
	return &Response{
		Content: choice.Message.Content,
		Tokens: models.Tokens{
			Input:  out.Usage.PromptTokens,
			Output: out.Usage.CompletionTokens,
		},
		Model:        model,
		FinishReason: string(choice.FinishReason),
	}, nil
}

var statusInMessage = regexp.MustCompile(`status code: (\d{3})`)

// IsTransient reports whether a backend error is worth retrying: timeouts,
// network failures and HTTP 408, 409, 429 or 5xx.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	if m := statusInMessage.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return transientStatus(code)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func transientStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
