package modeldir

import (
	"bufio"
	"os"
	"strings"
)

// LoadVocabulary reads one token per line, skipping blank lines.
func LoadVocabulary(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var tokens []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r")
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
