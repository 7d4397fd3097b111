package ocr

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/wz"
)

// Preset is one set of recognition parameters. PSM and OEM follow tesseract's
// numbering; a negative value leaves the engine default in place.
type Preset struct {
	Name      string `json:"name"`
	PSM       int    `json:"psm"`
	OEM       int    `json:"oem"`
	Whitelist string `json:"whitelist,omitempty"`
}

func (p Preset) String() string {
	return fmt.Sprintf("%s(psm=%d,oem=%d)", p.Name, p.PSM, p.OEM)
}

// FullPagePreset is used for the first attempt on the uncropped page.
var FullPagePreset = Preset{Name: "full-page", PSM: 6, OEM: 3, Whitelist: wz.CharWhitelist}

// DefaultPresets are tried in order against the cropped header.
var DefaultPresets = []Preset{
	{Name: "header-block", PSM: 6, OEM: 3, Whitelist: wz.CharWhitelist},
	{Name: "header-sparse", PSM: 11, OEM: 3, Whitelist: wz.CharWhitelist},
	{Name: "header-lstm", PSM: 6, OEM: 1, Whitelist: wz.CharWhitelist},
	{Name: "header-auto", PSM: 3, OEM: 3, Whitelist: wz.CharWhitelist},
}

// ProbePreset is the unfiltered pass used to decide whether a page has content.
var ProbePreset = Preset{Name: "probe", PSM: -1, OEM: -1}

// ThoroughPreset is the sparse-text LSTM pass run on the enhanced header.
var ThoroughPreset = Preset{Name: "thorough", PSM: 11, OEM: 1, Whitelist: wz.CharWhitelist}

var presetFileSchema = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items": map[string]any{
		"type":                 "object",
		"required":             []any{"name", "psm", "oem"},
		"additionalProperties": false,
		"properties": map[string]any{
			"name":      map[string]any{"type": "string", "minLength": 1},
			"psm":       map[string]any{"type": "integer", "minimum": -1, "maximum": 13},
			"oem":       map[string]any{"type": "integer", "minimum": -1, "maximum": 3},
			"whitelist": map[string]any{"type": "string"},
		},
	},
}

// LoadPresets reads a JSON array of presets. An empty path returns DefaultPresets.
// Presets without a whitelist get the identifier whitelist.
func LoadPresets(path string) ([]Preset, error) {
	if path == "" {
		return DefaultPresets, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	if err := common.ValidateAgainst(presetFileSchema, b); err != nil {
		return nil, common.NewAppError(common.CodeConfig, "invalid presets file "+path, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	var presets []Preset
	if err := json.Unmarshal(b, &presets); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for i := range presets {
		if presets[i].Whitelist == "" {
			presets[i].Whitelist = wz.CharWhitelist
		}
	}
	return presets, nil
}
