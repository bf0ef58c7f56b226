package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/engine"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/prompt"
	"github.com/sant0-9/chembfn/internal/transform"
)

// Stage represents a pipeline stage
type Stage int

const (
	StageParsing Stage = iota
	StageResolving
	StageGenerating
	StagePostProcessing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageParsing:
		return "Parsing"
	case StageResolving:
		return "Resolving"
	case StageGenerating:
		return "Generating"
	case StagePostProcessing:
		return "Post-processing"
	case StageDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Stages lists the stages shown in progress displays.
var Stages = []Stage{StageParsing, StageResolving, StageGenerating, StagePostProcessing}

// Progress represents pipeline progress
type Progress struct {
	Stage       Stage
	StageIndex  int
	TotalStages int
	Message     string
}

// Job holds everything the user entered for one run.
type Job struct {
	Model          string
	Vocab          string
	BatchSize      int
	SequenceLength int
	Steps          int
	Method         string
	Temperature    float64
	Prompt         string
	Scaffold       string
	Exclude        string
	SAR            string
	Transform      string
	Chemfig        bool
}

// JobFromDefaults pre-fills a job from configured defaults.
func JobFromDefaults(d config.Defaults) Job {
	return Job{
		BatchSize:      d.BatchSize,
		SequenceLength: d.SequenceLength,
		Steps:          d.Steps,
		Method:         d.Method,
		Temperature:    d.Temperature,
		Transform:      d.Transform,
		Chemfig:        d.Chemfig,
	}
}

// Result contains pipeline output
type Result struct {
	ID        string
	Job       Job
	Record    *prompt.Record
	Raw       []string
	Molecules []string
	Chemfig   []string
	Transform string
	Device    string
	CreatedAt time.Time
	Elapsed   time.Duration
}

// ErrInvalidJob wraps every validation failure found before generation.
var ErrInvalidJob = errors.New("invalid job")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidJob, fmt.Sprintf(format, args...))
}

// Pipeline runs generation jobs
type Pipeline struct {
	engine     engine.Engine
	library    *modeldir.Library
	logger     *zap.Logger
	onProgress func(Progress)
}

// NewPipeline creates a new pipeline
func NewPipeline(eng engine.Engine, lib *modeldir.Library, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		engine:  eng,
		library: lib,
		logger:  logger,
	}
}

// SetProgressCallback sets the progress callback
func (p *Pipeline) SetProgressCallback(fn func(Progress)) {
	p.onProgress = fn
}

func (p *Pipeline) progress(stage Stage, msg string) {
	if p.onProgress != nil {
		p.onProgress(Progress{
			Stage:       stage,
			StageIndex:  int(stage),
			TotalStages: len(Stages),
			Message:     msg,
		})
	}
}

// Run validates the job, calls the engine and post-processes the sequences.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	id := uuid.NewString()
	log := p.logger.With(zap.String("run", id))

	// Stage 1: Parsing
	p.progress(StageParsing, "Parsing prompt...")
	rec, err := prompt.Parse(job.Prompt)
	if err != nil {
		return nil, err
	}
	sar := prompt.ParseSAR(job.SAR)
	tr := transform.Build(job.Transform)

	// Stage 2: Resolving
	p.progress(StageResolving, "Resolving model files...")
	cat := p.library.Snapshot()
	req, err := p.resolve(cat, job, rec)
	if err != nil {
		return nil, err
	}
	req.ID = id
	req.SAR = sar

	// Stage 3: Generation
	p.progress(StageGenerating, fmt.Sprintf("Sampling %d sequences with %s...", job.BatchSize, job.Method))
	log.Info("generation started",
		zap.String("model", job.Model),
		zap.String("method", job.Method),
		zap.Int("batch", job.BatchSize),
		zap.Int("length", req.SequenceLength),
		zap.Strings("loras", rec.Loras),
	)
	resp, err := p.engine.Generate(ctx, req)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	// Stage 4: Post-processing
	p.progress(StagePostProcessing, fmt.Sprintf("Applying %s...", tr.Name()))
	molecules := transform.ApplyAll(tr, resp.Sequences)

	p.progress(StageDone, "Generation complete")
	res := &Result{
		ID:        id,
		Job:       job,
		Record:    rec,
		Raw:       resp.Sequences,
		Molecules: molecules,
		Chemfig:   resp.Chemfig,
		Transform: tr.Name(),
		Device:    resp.Device,
		CreatedAt: start,
		Elapsed:   time.Since(start),
	}
	log.Info("generation finished", zap.Int("molecules", len(molecules)), zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// resolve checks the job against the catalog and builds the engine request.
func (p *Pipeline) resolve(cat *modeldir.Catalog, job Job, rec *prompt.Record) (*engine.Request, error) {
	if job.BatchSize < 1 {
		return nil, invalid("batch size must be at least 1")
	}
	if !config.ValidMethod(job.Method) {
		return nil, invalid("unknown method %q", job.Method)
	}

	model := cat.FindModel(job.Model)
	if model == nil {
		return nil, invalid("model %q not found", job.Model)
	}

	length := job.SequenceLength
	if length == 0 {
		if model.Kind != modeldir.KindStandalone || model.PaddingLength == 0 {
			return nil, invalid("sequence length is required for model %q", job.Model)
		}
		length = model.PaddingLength
	}
	if length < 5 {
		return nil, invalid("sequence length %d is too short", length)
	}

	req := &engine.Request{
		Model:           model.Path,
		ModelKind:       string(model.Kind),
		BatchSize:       job.BatchSize,
		SequenceLength:  length,
		Steps:           job.Steps,
		Method:          job.Method,
		Temperature:     job.Temperature,
		Objectives:      rec.Objectives,
		ObjectiveOwners: rec.ObjectiveOwners,
		LoraScalings:    rec.LoraScalings,
		Loras:           make([]string, len(rec.Loras)),
		Scaffold:        job.Scaffold,
		Chemfig:         job.Chemfig,
		AllowedTokens:   []string{},
	}

	for i, name := range rec.Loras {
		lora := cat.FindLora(name)
		if lora == nil {
			return nil, invalid("LoRA %q not found", name)
		}
		req.Loras[i] = lora.Dir
	}

	if job.Vocab != "" {
		v := cat.FindVocab(job.Vocab)
		if v == nil {
			return nil, invalid("vocabulary %q not found", job.Vocab)
		}
		req.Vocab = v.Path

		if job.Exclude != "" {
			tokens, err := modeldir.LoadVocabulary(v.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to read vocabulary: %w", err)
			}
			req.AllowedTokens = prompt.ParseExclude(job.Exclude, tokens)
		}
	} else if strings.Trim(job.Exclude, " \n,") != "" {
		return nil, invalid("excluding tokens needs a vocabulary")
	}

	return req, nil
}
