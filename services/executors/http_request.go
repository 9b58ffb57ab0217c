package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"workflowengine/pkg/enginerr"
	"workflowengine/pkg/statuspub"
	"workflowengine/services/executor"
)

// defaultHTTPTimeout bounds a single outbound request. spec.md §5
// leaves this unconfigured in v1 and asks for "a transport-appropriate
// default (e.g. 30s)".
const defaultHTTPTimeout = 30 * time.Second

var bodyBearingMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// httpRequestConfig is the tagged-variant decode target for
// HTTP_REQUEST's data field (spec.md §4.E, §9 "dynamic node data").
type httpRequestConfig struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
	Body     string `json:"body"`
}

// httpResponse is the exact shape spec.md §3 requires under context
// key "httpResponse".
type httpResponse struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	Data       any    `json:"data"`
}

// HTTPRequest issues one outbound HTTP call and captures the response
// under context key "httpResponse". Grounded on the teacher's
// weather.OpenMeteoClient (api/pkg/clients/weather/client.go):
// context-aware request construction over a reusable *http.Client,
// generalized from one fixed endpoint to the configurable endpoint,
// method, and body the spec requires.
type HTTPRequest struct {
	Client *http.Client
}

// NewHTTPRequest returns an HTTPRequest executor using client, or a
// default client with defaultHTTPTimeout if client is nil.
func NewHTTPRequest(client *http.Client) *HTTPRequest {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPRequest{Client: client}
}

func (h *HTTPRequest) Execute(ctx context.Context, p executor.Params) (executor.Context, error) {
	p.Emit(ctx, statuspub.StatusLoading, "")

	var cfg httpRequestConfig
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &cfg); err != nil {
			err := enginerr.ConfigWrap(err, "HTTP Request node: invalid data")
			p.Emit(ctx, statuspub.StatusError, err.Error())
			return nil, err
		}
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	if strings.TrimSpace(cfg.Endpoint) == "" {
		err := enginerr.Config("HTTP Request node: No endpoint configured")
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}
	if !allowedMethods[method] {
		err := enginerr.Config("HTTP Request node: unsupported method %q", cfg.Method)
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	result, err := p.Step.Run(ctx, p.NodeID+":http-request", func(ctx context.Context) (any, error) {
		resp, err := h.do(ctx, method, cfg)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		p.Emit(ctx, statuspub.StatusError, err.Error())
		return nil, err
	}

	out := p.Context.With(map[string]any{"httpResponse": result})
	p.Emit(ctx, statuspub.StatusSuccess, "")
	return out, nil
}

// do performs the request and classifies failures: network/DNS errors
// and status >= 400 are retriable (returned as enginerr.Transient);
// only config problems caught before do() runs are non-retriable.
func (h *HTTPRequest) do(ctx context.Context, method string, cfg httpRequestConfig) (*httpResponse, error) {
	var reqBody io.Reader
	if bodyBearingMethods[method] && cfg.Body != "" {
		reqBody = bytes.NewReader([]byte(cfg.Body))
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint, reqBody)
	if err != nil {
		return nil, enginerr.TransientWrap(err, "HTTP Request node: failed to build request")
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, enginerr.TransientWrap(err, "HTTP Request node: request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, enginerr.TransientWrap(err, "HTTP Request node: failed to read response")
	}

	out := &httpResponse{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	if out.StatusText == "" {
		out.StatusText = resp.Status
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "application/json") {
		var decoded any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &decoded); err != nil {
				return nil, enginerr.TransientWrap(err, "HTTP Request node: failed to parse JSON response")
			}
		}
		out.Data = decoded
	} else {
		out.Data = string(raw)
	}

	if resp.StatusCode >= 400 {
		return out, enginerr.Transient("HTTP Request node: endpoint returned %d %s", resp.StatusCode, out.StatusText)
	}

	return out, nil
}
