package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/pipeline"
	"github.com/sant0-9/chembfn/internal/transform"
)

type field int

const (
	fieldModel field = iota
	fieldVocab
	fieldBatch
	fieldLength
	fieldSteps
	fieldMethod
	fieldTemperature
	fieldPrompt
	fieldScaffold
	fieldExclude
	fieldSAR
	fieldTransform
	fieldChemfig
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldModel:       "Model",
	fieldVocab:       "Vocabulary",
	fieldBatch:       "Batch size",
	fieldLength:      "Length",
	fieldSteps:       "Steps",
	fieldMethod:      "Method",
	fieldTemperature: "Temperature",
	fieldPrompt:      "Prompt",
	fieldScaffold:    "Scaffold",
	fieldExclude:     "Exclude",
	fieldSAR:         "SAR",
	fieldTransform:   "Transform",
	fieldChemfig:     "ChemFig",
}

var fieldPlaceholders = [fieldCount]string{
	fieldModel:       "ctrl+n to pick",
	fieldVocab:       "empty for the default tokeniser",
	fieldBatch:       "1-512",
	fieldLength:      "5-4096, empty uses padding length",
	fieldSteps:       "sampling steps",
	fieldMethod:      "BFN or ODE",
	fieldTemperature: "0-2.5",
	fieldPrompt:      "<lora:scale>:[obj,...];... or [obj,...]",
	fieldScaffold:    "SMILES or SAFE fragment",
	fieldExclude:     "tokens to exclude, comma separated",
	fieldSAR:         "t/f per model, comma separated",
	fieldTransform:   "e.g. strip_stereo|largest_fragment",
	fieldChemfig:     "y/n",
}

// form is the compose view: one text input per job field.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  field
}

func newForm(d config.Defaults) *form {
	f := &form{}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = fieldPlaceholders[i]
		in.CharLimit = 500
		in.Width = 48
		f.inputs[i] = in
	}
	f.load(pipeline.JobFromDefaults(d))
	f.inputs[fieldModel].Focus()
	return f
}

// load fills the inputs from job.
func (f *form) load(job pipeline.Job) {
	set := func(fl field, v string) { f.inputs[fl].SetValue(v) }
	set(fieldModel, job.Model)
	set(fieldVocab, job.Vocab)
	set(fieldBatch, itoa(job.BatchSize))
	set(fieldLength, itoa(job.SequenceLength))
	set(fieldSteps, itoa(job.Steps))
	set(fieldMethod, job.Method)
	set(fieldTemperature, strconv.FormatFloat(job.Temperature, 'g', -1, 64))
	set(fieldPrompt, job.Prompt)
	set(fieldScaffold, job.Scaffold)
	set(fieldExclude, job.Exclude)
	set(fieldSAR, job.SAR)
	set(fieldTransform, job.Transform)
	if job.Chemfig {
		set(fieldChemfig, "y")
	} else {
		set(fieldChemfig, "n")
	}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (f *form) value(fl field) string {
	return strings.TrimSpace(f.inputs[fl].Value())
}

func (f *form) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = field((int(f.focus) + delta + int(fieldCount)) % int(fieldCount))
	f.inputs[f.focus].Focus()
}

// options lists the values ctrl+n cycles through for the focused field.
func (f *form) options(cat *modeldir.Catalog) []string {
	switch f.focus {
	case fieldModel:
		if cat == nil {
			return nil
		}
		return cat.ModelNames()
	case fieldVocab:
		if cat == nil {
			return nil
		}
		return append([]string{""}, cat.VocabNames()...)
	case fieldMethod:
		return config.Methods
	case fieldTransform:
		return transform.Names()
	case fieldChemfig:
		return []string{"y", "n"}
	}
	return nil
}

// cycle steps the focused field through its options.
func (f *form) cycle(cat *modeldir.Catalog, delta int) {
	opts := f.options(cat)
	if len(opts) == 0 {
		return
	}
	cur := f.value(f.focus)
	idx := -1
	for i, o := range opts {
		if o == cur {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = (idx + delta + len(opts)) % len(opts)
	} else if delta < 0 {
		next = len(opts) - 1
	}
	f.inputs[f.focus].SetValue(opts[next])
	f.inputs[f.focus].CursorEnd()
}

// job converts the inputs into a pipeline job. Only the numeric fields are
// checked here; the pipeline validates the rest.
func (f *form) job() (pipeline.Job, error) {
	job := pipeline.Job{
		Model:     f.value(fieldModel),
		Vocab:     f.value(fieldVocab),
		Method:    strings.ToUpper(f.value(fieldMethod)),
		Prompt:    f.value(fieldPrompt),
		Scaffold:  f.value(fieldScaffold),
		Exclude:   f.value(fieldExclude),
		SAR:       f.value(fieldSAR),
		Transform: f.value(fieldTransform),
		Chemfig:   strings.HasPrefix(strings.ToLower(f.value(fieldChemfig)), "y"),
	}
	if job.Model == "" {
		return job, fmt.Errorf("pick a model first")
	}

	var err error
	if job.BatchSize, err = intField(f.value(fieldBatch), fieldBatch, 1); err != nil {
		return job, err
	}
	if job.SequenceLength, err = intField(f.value(fieldLength), fieldLength, 0); err != nil {
		return job, err
	}
	if job.Steps, err = intField(f.value(fieldSteps), fieldSteps, 100); err != nil {
		return job, err
	}

	job.Temperature = 0.5
	if v := f.value(fieldTemperature); v != "" {
		job.Temperature, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return job, fmt.Errorf("temperature must be a number, got %q", v)
		}
	}
	if job.Temperature < 0 || job.Temperature > 2.5 {
		return job, fmt.Errorf("temperature must be between 0 and 2.5")
	}
	if job.BatchSize > 512 {
		return job, fmt.Errorf("batch size must be at most 512")
	}
	if job.SequenceLength > 4096 {
		return job, fmt.Errorf("length must be at most 4096")
	}
	return job, nil
}

func intField(v string, fl field, empty int) (int, error) {
	if v == "" {
		return empty, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", strings.ToLower(fieldLabels[fl]), v)
	}
	return n, nil
}
