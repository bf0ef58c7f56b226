package modeldir

import (
	"os"
	"path/filepath"
)

const (
	DirName        = "model"
	BaseDir        = "base_model"
	LoraDir        = "lora"
	StandaloneDir  = "standalone_model"
	VocabDir       = "vocab"
	vocabSentinel  = "place_vocabulary_file_here.txt"
	weightsBase    = ".pt"
	weightsLora    = "lora.pt"
	weightsModel   = "model.pt"
	adapterConfig  = "config.json"
	vocabExtension = ".txt"
)

var placeholders = []struct {
	dir, file, text string
}{
	{BaseDir, "place_base_model_here.txt", "Place thy base model weight files here."},
	{LoraDir, "place_lora_folder_here.txt", "Place thy LoRA weight and configuration files under subfolders here."},
	{StandaloneDir, "place_standalone_model_folder_here.txt", "Place thy standalone model weight and configuration files under subfolders here."},
	{VocabDir, vocabSentinel, "Place vocabulary files here."},
}

// Path returns the model tree under root.
func Path(root string) string {
	return filepath.Join(root, DirName)
}

// Scaffold creates root/model with its four subfolders and a placeholder file
// in each. An existing model directory is left untouched and Scaffold returns false.
func Scaffold(root string) (bool, error) {
	md := Path(root)
	if _, err := os.Stat(md); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	for _, p := range placeholders {
		dir := filepath.Join(md, p.dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, err
		}
		if err := os.WriteFile(filepath.Join(dir, p.file), []byte(p.text), 0644); err != nil {
			return false, err
		}
	}
	return true, nil
}
