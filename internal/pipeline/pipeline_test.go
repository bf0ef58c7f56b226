package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/engine"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/prompt"
)

type stubEngine struct {
	last *engine.Request
	resp *engine.Response
	err  error
}

func (s *stubEngine) Name() string                 { return "stub" }
func (s *stubEngine) Ping(ctx context.Context) error { return nil }
func (s *stubEngine) Generate(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func put(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newLibrary(t *testing.T) *modeldir.Library {
	t.Helper()
	root := t.TempDir()
	md := modeldir.Path(root)
	put(t, filepath.Join(md, modeldir.VocabDir, "moses.txt"), "<pad>\nC\nO\nN\n")
	put(t, filepath.Join(md, modeldir.BaseDir, "base.pt"), "w")
	put(t, filepath.Join(md, modeldir.StandaloneDir, "qm9", "model.pt"), "w")
	put(t, filepath.Join(md, modeldir.StandaloneDir, "qm9", "config.json"), `{"name":"qm9","label":["homo"],"padding_length":32}`)
	put(t, filepath.Join(md, modeldir.LoraDir, "logp", "lora.pt"), "w")
	put(t, filepath.Join(md, modeldir.LoraDir, "logp", "config.json"), `{"name":"logp","label":["logP"],"padding_length":64}`)

	lib := modeldir.NewLibrary(root, nil)
	_, err := lib.Refresh()
	require.NoError(t, err)
	return lib
}

func baseJob() Job {
	job := JobFromDefaults(config.DefaultConfig().Defaults)
	job.Model = "qm9"
	return job
}

func TestRunBuildsRequestAndPostProcesses(t *testing.T) {
	lib := newLibrary(t)
	eng := &stubEngine{resp: &engine.Response{
		Sequences: []string{"C[C@H](O)N", "CC.O"},
		Chemfig:   []string{"a", "b"},
	}}
	p := NewPipeline(eng, lib, nil)

	var stages []Stage
	p.SetProgressCallback(func(pr Progress) { stages = append(stages, pr.Stage) })

	job := baseJob()
	job.Vocab = "moses"
	job.Prompt = "<logp:0.5>:[1.5]"
	job.Exclude = "N,O"
	job.SAR = "t"
	job.Transform = "strip_stereo|largest_fragment"
	job.Chemfig = true

	res, err := p.Run(context.Background(), job)
	require.NoError(t, err)

	req := eng.last
	require.NotNil(t, req)
	assert.Equal(t, res.ID, req.ID)
	assert.Equal(t, "standalone", req.ModelKind)
	assert.Equal(t, 32, req.SequenceLength, "falls back to padding length")
	assert.Equal(t, []string{filepath.Join(modeldir.Path(lib.Root()), modeldir.LoraDir, "logp")}, req.Loras)
	assert.Equal(t, []float64{0.5}, req.LoraScalings)
	assert.Equal(t, [][]float64{{1.5}}, req.Objectives)
	assert.Equal(t, []int{0}, req.ObjectiveOwners)
	assert.Equal(t, []string{"<pad>", "C"}, req.AllowedTokens)
	assert.Equal(t, []bool{true}, req.SAR)
	assert.True(t, req.Chemfig)

	assert.Equal(t, []string{"C[CH](O)N", "CC"}, res.Molecules)
	assert.Equal(t, []string{"C[C@H](O)N", "CC.O"}, res.Raw)
	assert.Equal(t, "strip_stereo|largest_fragment", res.Transform)
	assert.Equal(t, []Stage{StageParsing, StageResolving, StageGenerating, StagePostProcessing, StageDone}, stages)
}

func TestRunUnconditionedKeepsFullVocabulary(t *testing.T) {
	eng := &stubEngine{resp: &engine.Response{Sequences: []string{"CCO"}}}
	p := NewPipeline(eng, newLibrary(t), nil)

	job := baseJob()
	job.Vocab = "moses"
	res, err := p.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Empty(t, eng.last.AllowedTokens)
	assert.Equal(t, []bool{false}, eng.last.SAR)
	assert.Empty(t, eng.last.Loras)
	assert.Equal(t, "identity", res.Transform)
	assert.Equal(t, []string{"CCO"}, res.Molecules)
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Job)
		want   string
	}{
		{"unknown model", func(j *Job) { j.Model = "nope" }, `model "nope" not found`},
		{"base model needs length", func(j *Job) { j.Model = "base.pt" }, "sequence length is required"},
		{"short length", func(j *Job) { j.SequenceLength = 3 }, "too short"},
		{"zero batch", func(j *Job) { j.BatchSize = 0 }, "batch size"},
		{"bad method", func(j *Job) { j.Method = "DDPM" }, `unknown method "DDPM"`},
		{"unknown lora", func(j *Job) { j.Prompt = "<logp>;<qed>" }, `LoRA "qed" not found`},
		{"unknown vocab", func(j *Job) { j.Vocab = "zinc" }, `vocabulary "zinc" not found`},
		{"exclude without vocab", func(j *Job) { j.Exclude = "C" }, "needs a vocabulary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &stubEngine{resp: &engine.Response{}}
			p := NewPipeline(eng, newLibrary(t), nil)

			job := baseJob()
			tt.modify(&job)
			_, err := p.Run(context.Background(), job)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidJob))
			assert.Contains(t, err.Error(), tt.want)
			assert.Nil(t, eng.last, "engine must not be called")
		})
	}
}

func TestRunPropagatesParseError(t *testing.T) {
	eng := &stubEngine{}
	p := NewPipeline(eng, newLibrary(t), nil)

	job := baseJob()
	job.Prompt = "<logp:high>"
	_, err := p.Run(context.Background(), job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, prompt.ErrNumericConversion))
	assert.Nil(t, eng.last)
}

func TestRunWrapsEngineError(t *testing.T) {
	boom := errors.New("CUDA out of memory")
	p := NewPipeline(&stubEngine{err: boom}, newLibrary(t), nil)

	_, err := p.Run(context.Background(), baseJob())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrInvalidJob))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "Generating", StageGenerating.String())
	assert.Equal(t, "Unknown", Stage(42).String())
}
