package sequences

import (
	"os"
	"path/filepath"
)

// EnvSequencePath names the environment variable holding extra sequence
// directories, list-separated, searched before the standard locations.
const EnvSequencePath = "MENUFLOW_SEQUENCE_PATH"

// SequenceSearchPaths returns sequence search directories in precedence order.
func SequenceSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 4)
	for _, dir := range filepath.SplitList(os.Getenv(EnvSequencePath)) {
		if dir != "" {
			paths = append(paths, dir)
		}
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".menuflow", "sequences"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "menuflow", "sequences"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "menuflow", "sequences"))
	return paths
}

// LoadSequencesFromSearchPaths loads definitions from search paths with
// first-hit precedence. Built-in definitions come last.
func LoadSequencesFromSearchPaths(projectDir string) ([]*Definition, error) {
	paths := SequenceSearchPaths(projectDir)
	seen := make(map[string]*Definition)
	order := make([]string, 0)

	for _, path := range paths {
		definitions, err := LoadSequencesFromDir(path)
		if err != nil {
			return nil, err
		}
		for _, def := range definitions {
			if _, exists := seen[def.Name]; exists {
				continue
			}
			seen[def.Name] = def
			order = append(order, def.Name)
		}
	}

	builtins, err := LoadBuiltinSequences()
	if err != nil {
		return nil, err
	}
	for _, def := range builtins {
		if _, exists := seen[def.Name]; exists {
			continue
		}
		seen[def.Name] = def
		order = append(order, def.Name)
	}

	resolved := make([]*Definition, 0, len(order))
	for _, name := range order {
		resolved = append(resolved, seen[name])
	}

	return resolved, nil
}
