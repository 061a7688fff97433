package relay

import (
	"codegen-relay/pkg/codefence"
	"codegen-relay/pkg/provider"
	"codegen-relay/pkg/types"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidRequest is returned when the caller omits the prompt.
	ErrInvalidRequest = errors.New("no prompt provided")
	// ErrMissingCredential is returned when the variant's credential is not configured.
	ErrMissingCredential = errors.New("upstream credential is missing")
)

// ProviderCreator builds the upstream client for one call.
type ProviderCreator func(endpoint, apiKey string, client *http.Client) provider.Provider

var OpenAIProviderFactory ProviderCreator = func(endpoint, apiKey string, client *http.Client) provider.Provider {
	return provider.NewOpenAIProvider(endpoint, apiKey, client)
}

// Outcome tags a Result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeUpstreamError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUpstreamError:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one generation. Code is set on success, Upstream
// when the provider answered with something unusable.
type Result struct {
	Outcome  Outcome
	Code     string
	Upstream *provider.UpstreamError
	Usage    types.OpenAIUsage
	Duration time.Duration
}

// Relay forwards prompts for a single Variant.
type Relay struct {
	variant     Variant
	credentials CredentialSource
	client      *http.Client
	newProvider ProviderCreator
}

type Option func(*Relay)

// WithHTTPClient sets the client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) { r.client = c }
}

// WithProviderFactory replaces the upstream client constructor.
func WithProviderFactory(f ProviderCreator) Option {
	return func(r *Relay) { r.newProvider = f }
}

func New(variant Variant, credentials CredentialSource, opts ...Option) *Relay {
	r := &Relay{
		variant:     variant,
		credentials: credentials,
		client:      &http.Client{Timeout: 60 * time.Second},
		newProvider: OpenAIProviderFactory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Variant() Variant { return r.variant }

// BuildPayload assembles the upstream request: system instruction first, user
// prompt second.
func (r *Relay) BuildPayload(prompt string) types.OpenAIRequest {
	return types.OpenAIRequest{
		Messages: []types.OpenAIMessage{
			{Role: types.RoleSystem, Content: r.variant.SystemPrompt},
			{Role: types.RoleUser, Content: prompt},
		},
		MaxTokens: r.variant.maxTokens(),
		Model:     r.variant.Model,
	}
}

// Generate performs exactly one upstream call for prompt. Validation and
// configuration failures come back as errors; an unusable upstream reply is a
// Result tagged OutcomeUpstreamError. Transport failures are returned as errors.
func (r *Relay) Generate(ctx context.Context, prompt string) (Result, error) {
	if prompt == "" {
		return Result{}, ErrInvalidRequest
	}
	apiKey, ok := r.credentials.Lookup(r.variant.CredentialEnv)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s is not set", ErrMissingCredential, r.variant.CredentialEnv)
	}

	prov := r.newProvider(r.variant.Endpoint, apiKey, r.client)

	start := time.Now()
	resp, err := prov.Send(ctx, r.BuildPayload(prompt))
	elapsed := time.Since(start)
	if err != nil {
		var upErr *provider.UpstreamError
		if errors.As(err, &upErr) {
			return Result{Outcome: OutcomeUpstreamError, Upstream: upErr, Duration: elapsed}, nil
		}
		return Result{Duration: elapsed}, err
	}

	content, ok := resp.FirstContent()
	if !ok {
		upErr := &provider.UpstreamError{StatusCode: http.StatusOK, Malformed: true}
		return Result{Outcome: OutcomeUpstreamError, Upstream: upErr, Duration: elapsed}, nil
	}

	return Result{
		Outcome:  OutcomeSuccess,
		Code:     codefence.Strip(content),
		Usage:    resp.Usage,
		Duration: elapsed,
	}, nil
}
