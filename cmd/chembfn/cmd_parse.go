package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/prompt"
	"github.com/sant0-9/chembfn/internal/transform"
)

var (
	parseSAR       string
	parseExclude   string
	parseVocab     string
	parseTransform string
)

var parseCmd = &cobra.Command{
	Use:   "parse [prompt]",
	Short: "Parse a prompt and print the result as JSON",
	Long: `Parses a generation prompt without running a model. Useful for checking
what a prompt selects before a long run.

Example:
  chembfn parse '<logp:0.5>:[1.5];<qed>'
  chembfn parse '[0.2,-1]' --sar t,f --transform strip_stereo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseSAR, "sar", "", "Semi-autoregression flags, comma separated")
	parseCmd.Flags().StringVar(&parseExclude, "exclude", "", "Tokens to exclude, comma separated (needs --vocab)")
	parseCmd.Flags().StringVar(&parseVocab, "vocab", "", "Vocabulary name in the model directory")
	parseCmd.Flags().StringVar(&parseTransform, "transform", "", "Post-processing selector")
}

type parseOutput struct {
	Record        *prompt.Record `json:"record"`
	SAR           []bool         `json:"sar"`
	AllowedTokens []string       `json:"allowed_tokens,omitempty"`
	Transform     string         `json:"transform"`
}

func runParse(cmd *cobra.Command, args []string) error {
	text := ""
	if len(args) == 1 {
		text = args[0]
	}

	rec, err := prompt.Parse(text)
	if err != nil {
		return err
	}

	out := parseOutput{
		Record:    rec,
		SAR:       prompt.ParseSAR(parseSAR),
		Transform: transform.Build(parseTransform).Name(),
	}

	if parseVocab != "" {
		cat, err := modeldir.Scan(cfg.ModelDir)
		if err != nil {
			return err
		}
		v := cat.FindVocab(parseVocab)
		if v == nil {
			return fmt.Errorf("vocabulary %q not found", parseVocab)
		}
		tokens, err := modeldir.LoadVocabulary(v.Path)
		if err != nil {
			return err
		}
		out.AllowedTokens = prompt.ParseExclude(parseExclude, tokens)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
