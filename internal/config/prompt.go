package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PromptFileName is the system prompt override within the config
// directory. Users edit it to change the assistant's role.
const PromptFileName = "prompt.txt"

// LoadSystemPrompt reads the prompt override from dir. On first use the
// file is created with fallback so users have something to edit. An
// empty or whitespace-only file yields the fallback. An empty dir means
// the default directory.
func LoadSystemPrompt(dir, fallback string) (string, error) {
	var err error
	if dir == "" {
		dir, err = DefaultDir()
		if err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, PromptFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, []byte(fallback+"\n"), 0600); werr != nil {
			return "", fmt.Errorf("write default prompt: %w", werr)
		}
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return fallback, nil
	}
	return prompt, nil
}
