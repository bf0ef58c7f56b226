package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/engine"
	"github.com/sant0-9/chembfn/internal/history"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/pipeline"
)

// setup points the globals at a temp workspace.
func setup(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	ws := t.TempDir()

	cfg = config.DefaultConfig()
	cfg.ModelDir = ws
	cfg.HistoryPath = filepath.Join(ws, "history.db")
	cfg.ExportDir = filepath.Join(ws, "results")
	configFile = filepath.Join(ws, "config.yaml")
	t.Cleanup(func() {
		configFile = ""
		parseSAR, parseExclude, parseVocab, parseTransform = "", "", "", ""
		modelsJSON = false
		genJob = pipeline.Job{}
		genExport = false
	})
	return ws
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := fn(cmd, args)
	return out.String(), err
}

func writeModel(t *testing.T, ws, rel, content string) {
	t.Helper()
	path := filepath.Join(modeldir.Path(ws), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestInitCmd(t *testing.T) {
	ws := setup(t)

	out, err := run(t, runInit)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.DirExists(t, filepath.Join(modeldir.Path(ws), modeldir.LoraDir))
	assert.FileExists(t, configFile)

	// Running it again leaves the tree alone
	out, err = run(t, runInit)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	assert.NotContains(t, out, "Wrote")
}

func TestModelsCmd(t *testing.T) {
	ws := setup(t)

	out, err := run(t, runModels)
	require.NoError(t, err)
	assert.Contains(t, out, "No models")

	writeModel(t, ws, "base_model/zinc.pt", "w")
	writeModel(t, ws, "lora/logp/lora.pt", "w")
	writeModel(t, ws, "lora/logp/config.json", `{"name":"logp","label":["logP"],"padding_length":64}`)
	writeModel(t, ws, "vocab/moses.txt", "C\nO\n")

	out, err = run(t, runModels)
	require.NoError(t, err)
	assert.Contains(t, out, "zinc.pt")
	assert.Contains(t, out, "logP")
	assert.Contains(t, out, "moses")

	modelsJSON = true
	out, err = run(t, runModels)
	require.NoError(t, err)
	var got catalogJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Lora, 1)
	assert.Equal(t, 64, got.Lora[0].PaddingLength)
	assert.Equal(t, "zinc.pt", got.Base[0].Name)
}

func TestParseCmd(t *testing.T) {
	ws := setup(t)
	writeModel(t, ws, "vocab/moses.txt", "<pad>\nC\nO\nN\n")

	parseSAR = "t,f"
	parseVocab = "moses"
	parseExclude = "N"
	parseTransform = "lambda s: s.upper()"

	out, err := run(t, runParse, "<logp:0.5>:[1.5,2];<qed>")
	require.NoError(t, err)

	var got struct {
		Record struct {
			Lora           []string    `json:"lora"`
			Objective      [][]float64 `json:"objective"`
			LoraScaling    []float64   `json:"lora_scaling"`
			ObjectiveOwner []int       `json:"objective_owner"`
		} `json:"record"`
		SAR           []bool   `json:"sar"`
		AllowedTokens []string `json:"allowed_tokens"`
		Transform     string   `json:"transform"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"logp", "qed"}, got.Record.Lora)
	assert.Equal(t, [][]float64{{1.5, 2}}, got.Record.Objective)
	assert.Equal(t, []float64{0.5, 1}, got.Record.LoraScaling)
	assert.Equal(t, []int{0}, got.Record.ObjectiveOwner)
	assert.Equal(t, []bool{true, false}, got.SAR)
	assert.Equal(t, []string{"<pad>", "C", "O"}, got.AllowedTokens)
	assert.Equal(t, "upper", got.Transform)
}

func TestParseCmdRejectsBadNumber(t *testing.T) {
	setup(t)
	_, err := run(t, runParse, "<logp:abc>")
	assert.ErrorContains(t, err, "abc")
}

func TestGenerateAndHistoryCmd(t *testing.T) {
	ws := setup(t)
	writeModel(t, ws, "standalone_model/qm9/model.pt", "w")
	writeModel(t, ws, "standalone_model/qm9/config.json", `{"name":"qm9","label":["homo"],"padding_length":32}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req engine.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.SequenceLength != 32 {
			http.Error(w, `{"error":"wrong length"}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(engine.Response{Sequences: []string{"N[C@@H](C)C(=O)O", "CCO"}})
	}))
	defer srv.Close()

	cfg.Engine = "http"
	cfg.Host = srv.URL
	genJob = pipeline.Job{Model: "qm9", BatchSize: 2, Steps: 10, Method: "BFN", Temperature: 0.5, Transform: "strip_stereo"}
	genExport = true

	out, err := run(t, runGenerate)
	require.NoError(t, err)
	assert.Contains(t, out, "N[CH](C)C(=O)O\t1\nCCO\t2\n")
	assert.Contains(t, out, "wrote "+filepath.Join(ws, "results"))

	out, err = run(t, runHistory)
	require.NoError(t, err)
	assert.Contains(t, out, "qm9")
	assert.Contains(t, out, "BFN")

	store, err := history.NewStore(cfg.HistoryDB())
	require.NoError(t, err)
	entries, err := store.List(context.Background(), 1)
	store.Close()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	out, err = run(t, runHistory, id)
	require.NoError(t, err)
	assert.Equal(t, "N[CH](C)C(=O)O\t1\nCCO\t2\n", out)
}
