package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/handsign/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// LoadHand loads a recorded hand pose by name, e.g. "open_palm".
func LoadHand(name string) (*detector.HandLandmarks, error) {
	data, err := handsFS.ReadFile(path.Join("hands", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load hand %s: %w", name, err)
	}

	var hand detector.HandLandmarks
	if err := json.Unmarshal(data, &hand); err != nil {
		return nil, fmt.Errorf("decode hand %s: %w", name, err)
	}
	return &hand, nil
}

// HandNames lists the available poses, sorted.
func HandNames() []string {
	entries, err := handsFS.ReadDir("hands")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".json"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Variant returns a deterministic copy of hand moved, scaled about the image
// center and jittered, as a stand-in for consecutive camera frames.
func Variant(hand *detector.HandLandmarks, i int) *detector.HandLandmarks {
	dx := float64(i%5-2) * 0.02
	dy := float64(i%3-1) * 0.02
	scale := 0.9 + 0.05*float64(i%4)

	out := *hand
	for j, p := range hand.Points {
		noise := float64((i*7+j*13)%11-5) * 0.0006
		out.Points[j].X = 0.5 + (p.X-0.5)*scale + dx + noise
		out.Points[j].Y = 0.5 + (p.Y-0.5)*scale + dy - noise
	}
	return &out
}
