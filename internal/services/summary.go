package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
)

// SummaryErrorMarker prefixes every user-facing summary failure message.
const SummaryErrorMarker = "❌ Summary unavailable"

type SummaryErrorKind string

const (
	SummaryErrEmptyInput         SummaryErrorKind = "empty_input"
	SummaryErrMissingCredentials SummaryErrorKind = "missing_credentials"
	SummaryErrTransport          SummaryErrorKind = "transport"
	SummaryErrTimeout            SummaryErrorKind = "timeout"
	SummaryErrHTTPStatus         SummaryErrorKind = "http_status"
	SummaryErrMalformedResponse  SummaryErrorKind = "malformed_response"
)

type SummaryError struct {
	Kind       SummaryErrorKind
	StatusCode int
	Err        error
}

func (e *SummaryError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}

// UserMessage is safe to show to end users; it never includes response bodies.
func (e *SummaryError) UserMessage() string {
	switch e.Kind {
	case SummaryErrEmptyInput:
		return SummaryErrorMarker + ": no resume text to summarize."
	case SummaryErrMissingCredentials:
		return SummaryErrorMarker + ": API credentials are not configured."
	case SummaryErrTimeout:
		return SummaryErrorMarker + ": the summary service timed out."
	case SummaryErrHTTPStatus:
		if e.StatusCode > 0 {
			return fmt.Sprintf("%s: API error (HTTP %d).", SummaryErrorMarker, e.StatusCode)
		}
		return SummaryErrorMarker + ": API error."
	case SummaryErrMalformedResponse:
		return SummaryErrorMarker + ": malformed response from the summary service."
	default:
		return SummaryErrorMarker + ": could not reach the summary service."
	}
}

// SummaryResult carries either a cleaned summary or a classified failure.
type SummaryResult struct {
	Text string
	Err  *SummaryError
}

// Display returns the text to render in place of the summary.
func (r SummaryResult) Display() string {
	if r.Err != nil {
		return r.Err.UserMessage()
	}
	return r.Text
}

type SummaryGenerator interface {
	Summarize(ctx context.Context, resumeText string) SummaryResult
}

type SummaryConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxChars    int
	Referer     string
	Title       string
}

type summaryGenerator struct {
	client        *openai.Client
	cfg           SummaryConfig
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewSummaryGenerator(cfg SummaryConfig, logger *zap.Logger) SummaryGenerator {
	logger = applog.OrNop(logger)

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}

	return &summaryGenerator{
		client:        openai.NewClientWithConfig(clientCfg),
		cfg:           cfg,
		promptBuilder: NewPromptBuilder(cfg.MaxChars),
		logger:        logger.With(zap.String("model", cfg.Model)),
	}
}

func (g *summaryGenerator) Summarize(ctx context.Context, resumeText string) SummaryResult {
	start := time.Now()
	result := g.summarize(ctx, resumeText)
	duration := time.Since(start)

	outcome := "success"
	if result.Err != nil {
		outcome = string(result.Err.Kind)
		g.logger.Warn("Summary generation failed",
			zap.String("kind", outcome),
			zap.Int("status", result.Err.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(result.Err.Err),
		)
	} else {
		g.logger.Debug("Summary generated", zap.Duration("duration", duration))
	}

	metrics.SummaryRequestsTotal.WithLabelValues(outcome).Inc()
	if result.Err == nil || (result.Err.Kind != SummaryErrEmptyInput && result.Err.Kind != SummaryErrMissingCredentials) {
		metrics.SummaryRequestDuration.Observe(duration.Seconds())
	}

	return result
}

func (g *summaryGenerator) summarize(ctx context.Context, resumeText string) SummaryResult {
	if isBlank(resumeText) {
		return SummaryResult{Err: &SummaryError{Kind: SummaryErrEmptyInput}}
	}
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return SummaryResult{Err: &SummaryError{Kind: SummaryErrMissingCredentials}}
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SummarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: g.promptBuilder.BuildSummaryPrompt(resumeText)},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return SummaryResult{Err: classifySummaryError(ctx, err)}
	}

	if len(resp.Choices) == 0 {
		return SummaryResult{Err: &SummaryError{Kind: SummaryErrMalformedResponse, Err: errors.New("response has no choices")}}
	}

	text := CleanSummary(resp.Choices[0].Message.Content)
	if text == "" {
		return SummaryResult{Err: &SummaryError{Kind: SummaryErrMalformedResponse, Err: errors.New("response has empty content")}}
	}

	return SummaryResult{Text: text}
}

func classifySummaryError(ctx context.Context, err error) *SummaryError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &SummaryError{Kind: SummaryErrHTTPStatus, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &SummaryError{Kind: SummaryErrHTTPStatus, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &SummaryError{Kind: SummaryErrTimeout, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &SummaryError{Kind: SummaryErrMalformedResponse, Err: err}
	}

	return &SummaryError{Kind: SummaryErrTransport, Err: err}
}

var (
	bulletStar      = regexp.MustCompile(`(?m)^([ \t]*)[*•][ \t]+`)
	headingHashes   = regexp.MustCompile(`(?m)^[ \t]*#+[ \t]*`)
	underscoreBold  = regexp.MustCompile(`__+`)
	underscoreEmph  = regexp.MustCompile(`(^|[^\w])_([^_\n]+)_([^\w]|$)`)
	blankLineRuns   = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
	trailingSpacing = regexp.MustCompile(`(?m)[ \t]+$`)
)

// CleanSummary strips markdown emphasis from model output and collapses runs
// of blank lines into single line breaks.
func CleanSummary(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = bulletStar.ReplaceAllString(s, "${1}- ")
	s = headingHashes.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	s = underscoreBold.ReplaceAllString(s, "")
	// Adjacent matches share a boundary character, so repeat until stable
	for {
		next := underscoreEmph.ReplaceAllString(s, "${1}${2}${3}")
		if next == s {
			break
		}
		s = next
	}
	s = trailingSpacing.ReplaceAllString(s, "")
	s = blankLineRuns.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
