package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chembfn/internal/config"
)

func TestHTTPEngineGenerate(t *testing.T) {
	received := make(chan Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/generate":
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			var in Request
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			received <- in
			_ = json.NewEncoder(w).Encode(Response{
				Sequences: []string{"CCO", "c1ccccc1"},
				Chemfig:   []string{`\chemfig{-[:30]-[:-30]OH}`, `\chemfig{*6(=-=-=-)}`},
				Device:    "cuda",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL+"/", "secret", 0)
	ctx := context.Background()
	require.NoError(t, e.Ping(ctx))

	resp, err := e.Generate(ctx, &Request{
		Model:           "qm9",
		BatchSize:       2,
		Method:          "BFN",
		Objectives:      [][]float64{{1, 0}},
		ObjectiveOwners: []int{0},
		Loras:           []string{"/m/lora/logp"},
		LoraScalings:    []float64{0.5},
		SAR:             []bool{false},
		Chemfig:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CCO", "c1ccccc1"}, resp.Sequences)
	assert.Len(t, resp.Chemfig, 2)
	assert.Equal(t, "cuda", resp.Device)

	got := <-received
	assert.Equal(t, "qm9", got.Model)
	assert.Equal(t, [][]float64{{1, 0}}, got.Objectives)
	assert.Equal(t, []float64{0.5}, got.LoraScalings)
}

func TestHTTPEngineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"objective size 3 does not match label size 2"}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, "", 0)
	err := e.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = e.Generate(context.Background(), &Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "objective size 3")
}

func TestHTTPEngineMismatchedChemfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sequences":["C","CC"],"chemfig":["x"]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL, "", 0).Generate(context.Background(), &Request{})
	assert.ErrorContains(t, err, "1 chemfig codes for 2 sequences")
}

func TestHTTPEngineRateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"sequences":[]}`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, "", 1)
	_, err := e.Generate(context.Background(), &Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = e.Generate(ctx, &Request{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// fakeBridge writes a shell script standing in for the Python bridge.
func fakeBridge(t *testing.T, body string) *BridgeEngine {
	t.Helper()
	script := filepath.Join(t.TempDir(), bridgeScriptName)
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))

	b, err := NewBridgeEngine("sh", script, "")
	if err != nil {
		t.Skipf("sh not available: %v", err)
	}
	return b
}

func TestBridgeEngineGenerate(t *testing.T) {
	b := fakeBridge(t, `cat > /dev/null
echo '{"success":true,"sequences":["CCN"],"device":"cpu"}'
`)
	resp, err := b.Generate(context.Background(), &Request{Model: "base.pt", BatchSize: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"CCN"}, resp.Sequences)
	assert.Equal(t, "base.pt", resp.Model)
	assert.Equal(t, "cpu", resp.Device)
}

func TestBridgeEngineReportsScriptError(t *testing.T) {
	b := fakeBridge(t, `cat > /dev/null
echo '{"success":false,"error":"vocabulary file not found"}'
exit 1
`)
	_, err := b.Generate(context.Background(), &Request{})
	assert.EqualError(t, err, "vocabulary file not found")
}

func TestBridgeEnginePing(t *testing.T) {
	b := fakeBridge(t, `if [ "$1" = "--ping" ]; then echo '{"success":true}'; else exit 2; fi
`)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestBridgeEngineMissingScript(t *testing.T) {
	_, err := NewBridgeEngine("sh", filepath.Join(t.TempDir(), "nope.py"), "")
	assert.Error(t, err)
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(&config.Config{Engine: "http", Host: "http://gpu:8765"})
	require.NoError(t, err)
	assert.Equal(t, "http", e.Name())

	_, err = NewEngine(&config.Config{Engine: "http"})
	assert.Error(t, err)

	_, err = NewEngine(&config.Config{Engine: "torch"})
	assert.EqualError(t, err, "unknown engine: torch")
}
