// Package prompt implements the small text grammars typed into the prompt
// editor: the objective/LoRA prompt, the excluded-token list and the
// semi-autoregression flag list.
//
// All functions are pure and safe for concurrent use.
package prompt
