package engine

import (
	"context"
)

// Engine is the interface every inference backend implements
type Engine interface {
	// Name returns the engine name
	Name() string

	// Generate samples a batch of sequences
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Ping checks if the engine is reachable
	Ping(ctx context.Context) error
}

// Request is one generation call. Paths point into the model tree.
type Request struct {
	ID             string      `json:"id"`
	Model          string      `json:"model"`
	ModelKind      string      `json:"model_kind"`
	Vocab          string      `json:"vocab,omitempty"`
	BatchSize      int         `json:"batch_size"`
	SequenceLength int         `json:"sequence_length"`
	Steps          int         `json:"steps"`
	Method         string      `json:"method"`
	Temperature    float64     `json:"temperature"`
	Objectives     [][]float64 `json:"objectives"`
	// ObjectiveOwners maps each objective to its index in Loras, -1 if unconditioned.
	ObjectiveOwners []int     `json:"objective_owners"`
	Loras           []string  `json:"loras"`
	LoraScalings    []float64 `json:"lora_scalings"`
	// AllowedTokens empty means the whole vocabulary may be sampled.
	AllowedTokens []string `json:"allowed_tokens"`
	SAR           []bool   `json:"sar"`
	Scaffold      string   `json:"scaffold,omitempty"`
	Chemfig       bool     `json:"chemfig"`
}

// Response carries the sampled sequences.
type Response struct {
	Sequences []string `json:"sequences"`
	// Chemfig is parallel to Sequences when requested.
	Chemfig []string `json:"chemfig,omitempty"`
	Model   string   `json:"model,omitempty"`
	Device  string   `json:"device,omitempty"`
}
