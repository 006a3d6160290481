package dialogue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScriptLine is one spoken line from a movie script dump.
type ScriptLine struct {
	Speaker   string `json:"speaker"`
	Utterance string `json:"utterance"`
}

// MovieData is the on-disk dialogue corpus for one movie: the full script
// plus optional persona descriptions and avatar images keyed by character
// name.
type MovieData struct {
	ID       string
	Lines    []ScriptLine
	Personas map[string]string
	Avatars  map[string]string
}

// LoadDataDir reads every movie directory under root. A movie directory must
// contain script.json; persona.json and avatars.json are optional. Directory
// names become movie ids.
func LoadDataDir(root string) (map[string]*MovieData, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	movies := make(map[string]*MovieData)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := loadMovieDir(filepath.Join(root, entry.Name()), entry.Name())
		if err != nil {
			return nil, fmt.Errorf("movie %q: %w", entry.Name(), err)
		}
		movies[entry.Name()] = data
	}
	return movies, nil
}

func loadMovieDir(dir, id string) (*MovieData, error) {
	data := &MovieData{
		ID:       id,
		Personas: make(map[string]string),
		Avatars:  make(map[string]string),
	}

	if err := readJSONFile(filepath.Join(dir, "script.json"), &data.Lines); err != nil {
		return nil, err
	}

	// Personas and avatars are best-effort extras.
	if err := readJSONFile(filepath.Join(dir, "persona.json"), &data.Personas); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err := readJSONFile(filepath.Join(dir, "avatars.json"), &data.Avatars); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return data, nil
}

func readJSONFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// TopSpeakers returns the n characters with the most lines, most talkative
// first. Ties keep first-appearance order so the result is stable across
// runs.
func (d *MovieData) TopSpeakers(n int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := make([]string, 0)
	for i, line := range d.Lines {
		if line.Speaker == "" || line.Utterance == "" {
			continue
		}
		if _, ok := counts[line.Speaker]; !ok {
			firstSeen[line.Speaker] = i
			order = append(order, line.Speaker)
		}
		counts[line.Speaker]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// LinesBy returns every utterance spoken by one character, in script order.
func (d *MovieData) LinesBy(speaker string) []string {
	var out []string
	for _, line := range d.Lines {
		if line.Speaker == speaker && line.Utterance != "" {
			out = append(out, line.Utterance)
		}
	}
	return out
}
