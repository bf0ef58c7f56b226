package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPEngine talks to a ChemBFN inference server.
type HTTPEngine struct {
	host       string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPEngine creates an engine for host. perMinute > 0 limits request rate.
func NewHTTPEngine(host, apiKey string, perMinute int) *HTTPEngine {
	if host == "" {
		host = "http://localhost:8765"
	}
	e := &HTTPEngine{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
	if perMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return e
}

func (e *HTTPEngine) Name() string {
	return "http"
}

func (e *HTTPEngine) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", e.host+"/health", nil)
	if err != nil {
		return err
	}
	e.authorize(req)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to inference server at %s: %w", e.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference server returned status %d", resp.StatusCode)
	}

	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (e *HTTPEngine) Generate(ctx context.Context, req *Request) (*Response, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.host+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	e.authorize(httpReq)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			return nil, fmt.Errorf("inference server error (status %d): %s", resp.StatusCode, eb.Error)
		}
		return nil, fmt.Errorf("inference server error (status %d): %s", resp.StatusCode, string(raw))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Chemfig != nil && len(out.Chemfig) != len(out.Sequences) {
		return nil, fmt.Errorf("server returned %d chemfig codes for %d sequences", len(out.Chemfig), len(out.Sequences))
	}

	return &out, nil
}

func (e *HTTPEngine) authorize(req *http.Request) {
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
}
