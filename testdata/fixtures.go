// Package testdata embeds recorded landmark sets for tests that exercise the
// JSON wire format end to end.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/posecoach/internal/pose"
)

//go:embed landmarks/*.json
var landmarksFS embed.FS

// RawLandmarks returns the JSON array stored for the named fixture,
// e.g. "squat_bottom".
func RawLandmarks(name string) (json.RawMessage, error) {
	data, err := landmarksFS.ReadFile(path.Join("landmarks", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load landmarks %s: %w", name, err)
	}
	return data, nil
}

// LoadLandmarks decodes the named fixture into a LandmarkSet.
func LoadLandmarks(name string) (*pose.LandmarkSet, error) {
	data, err := RawLandmarks(name)
	if err != nil {
		return nil, err
	}

	set := pose.NewLandmarkSet()
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("decode landmarks %s: %w", name, err)
	}
	return set, nil
}

// Names lists the available fixtures in sorted order.
func Names() []string {
	entries, err := landmarksFS.ReadDir("landmarks")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}
