package config

type EngineInfo struct {
	ID          string
	Name        string
	Description string
	NeedsHost   bool
	DefaultHost string
	Methods     []string
}

var Engines = []EngineInfo{
	{
		ID:          "http",
		Name:        "Server",
		Description: "ChemBFN inference server over HTTP",
		NeedsHost:   true,
		DefaultHost: "http://localhost:8765",
		Methods:     []string{"BFN", "ODE"},
	},
	{
		ID:          "bridge",
		Name:        "Local Python",
		Description: "Runs bayesianflow_for_chem through a local Python",
		NeedsHost:   false,
		Methods:     []string{"BFN", "ODE"},
	},
}

func GetEngine(id string) *EngineInfo {
	for _, e := range Engines {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

// Methods lists the sampling methods a model can be run with.
var Methods = []string{"BFN", "ODE"}

func ValidMethod(m string) bool {
	for _, v := range Methods {
		if v == m {
			return true
		}
	}
	return false
}
