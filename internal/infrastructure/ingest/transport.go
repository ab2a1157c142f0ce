package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"streampool/internal/core/ports"
	"streampool/pkg/circuitbreaker"
	apperrors "streampool/pkg/errors"
	"streampool/pkg/signing"
)

const (
	headerAccessKey = "wsc-access-key"
	headerAPIKey    = "wsc-api-key"
	headerTimestamp = "wsc-timestamp"
	headerSignature = "wsc-signature"
)

// maxDiagnosticBody bounds how much of a failed response body is kept for
// diagnostics.
const maxDiagnosticBody = 512

// Options configures the transport underneath the ingest client.
type Options struct {
	BaseURL    string
	APIVersion string
	AccessKey  string
	// RESTKey is accepted either plain or obfuscated with the pkg/signing
	// "obf:" marker; unmarked keys are used verbatim.
	RESTKey  string
	HMACAuth bool
	Timeout  time.Duration

	// Limiter throttles outgoing calls to stay inside the remote API's
	// rate limits. Nil disables throttling.
	Limiter *rate.Limiter
	// Breaker fails calls fast when the remote service is down. Nil
	// disables the breaker.
	Breaker *circuitbreaker.CircuitBreaker
}

// transport performs signed HTTP calls against the ingest REST API and
// translates responses into the categorized error taxonomy. It is the only
// place that touches credentials or raw HTTP.
type transport struct {
	baseURL    string
	apiVersion string
	accessKey  string
	restKey    string
	hmacAuth   bool

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.SugaredLogger
	sink       ports.DiagnosticsSink

	// now is swappable for tests.
	now func() time.Time
}

func newTransport(opts Options, sink ports.DiagnosticsSink, logger *zap.SugaredLogger) *transport {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &transport{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiVersion: opts.APIVersion,
		accessKey:  opts.AccessKey,
		restKey:    signing.Deobfuscate(opts.RESTKey),
		hmacAuth:   opts.HMACAuth,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    opts.Limiter,
		breaker:    opts.Breaker,
		logger:     logger,
		sink:       sink,
		now:        time.Now,
	}
}

// do executes one signed request against the given api path ("live_streams",
// "live_streams/{id}/state", ...) and returns the decoded JSON body. Every
// failure is a categorized *errors.AppError.
func (t *transport) do(ctx context.Context, method, api string, body interface{}) (map[string]interface{}, error) {
	if t.breaker != nil {
		if err := t.breaker.Allow(); err != nil {
			return nil, apperrors.NewTransportFailureError(err)
		}
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewTransportFailureError(err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.ErrCodeUnknownResponse, "failed to encode request body", http.StatusInternalServerError)
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := t.baseURL + t.apiVersion + api
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, apperrors.NewTransportFailureError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	t.setAuthHeaders(req, t.apiVersion+api)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if t.breaker != nil {
			t.breaker.RecordFailure()
		}
		t.record("%s %s -> transport failure: %v", method, api, err)
		return nil, apperrors.NewTransportFailureError(err)
	}
	defer resp.Body.Close()

	if t.breaker != nil {
		t.breaker.RecordSuccess()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportFailureError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, t.classifyFailure(method, api, resp.StatusCode, raw)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.record("%s %s -> unparseable body: %v", method, api, err)
		return nil, apperrors.WrapError(err, apperrors.ErrCodeUnknownResponse, "failed to decode response body", http.StatusBadGateway)
	}

	t.logger.Debugw("api request succeeded", "method", method, "api", api, "status", resp.StatusCode)
	return result, nil
}

// classifyFailure maps a non-success response onto the error taxonomy:
// 401 unauthorized, 422 unprocessable entity, everything else unknown.
// Unauthorized and unknown responses additionally trigger an async
// diagnostics flush so operators see them without asking.
func (t *transport) classifyFailure(method, api string, status int, raw []byte) *apperrors.AppError {
	snippet := string(raw)
	if len(snippet) > maxDiagnosticBody {
		snippet = snippet[:maxDiagnosticBody]
	}

	switch status {
	case http.StatusUnauthorized:
		t.record("%s %s -> (Code 401) unauthorized, server returned: %q", method, api, snippet)
		t.flushAsync()
		return apperrors.NewUnauthorizedError("unauthorized by remote service").
			WithContext("body", snippet)
	case http.StatusUnprocessableEntity:
		t.record("%s %s -> (Code 422) unprocessable entity, server returned: %q", method, api, snippet)
		return apperrors.NewUnprocessableEntityError("remote service rejected the request body").
			WithContext("body", snippet)
	default:
		t.record("%s %s -> unknown response with code %d, server returned: %q", method, api, status, snippet)
		t.flushAsync()
		return apperrors.NewUnknownResponseError(status, fmt.Sprintf("unexpected response code %d", status)).
			WithContext("body", snippet)
	}
}

func (t *transport) setAuthHeaders(req *http.Request, signedPath string) {
	req.Header.Set(headerAccessKey, t.accessKey)
	if t.hmacAuth {
		millis := t.now().UnixMilli()
		req.Header.Set(headerTimestamp, fmt.Sprintf("%d", millis))
		req.Header.Set(headerSignature, signing.RequestSignature(signedPath, t.restKey, millis))
		return
	}
	req.Header.Set(headerAPIKey, t.restKey)
}

// record logs a diagnostic line and keeps it for a later remote flush.
func (t *transport) record(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	t.logger.Errorw("api request failed", "detail", line)
	if t.sink != nil {
		t.sink.Record(line)
	}
}

func (t *transport) flushAsync() {
	if t.sink != nil {
		t.sink.FlushAsync()
	}
}
