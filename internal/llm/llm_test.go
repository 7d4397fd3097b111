package llm

import (
	"encoding/json"
	"image"
	"strings"
	"testing"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
)

func TestSanitizeVerdict(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		label   string
		conf    float64
		dropped int
	}{
		{"class name", `{"label":"NO_WZ","confidence":0.7}`, "CONTINUATION", 0.7, 0},
		{"percentage", `{"label":"DOCUMENT_START","confidence":95}`, "DOCUMENT_START", 0.95, 0},
		{"string confidence", `{"label":"start","confidence":" 0.6 "}`, "DOCUMENT_START", 0.6, 0},
		{"unknown and null keys", `{"label":"CONTINUATION","confidence":0.5,"extra":1,"identifier":null}`, "CONTINUATION", 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dropped, err := SanitizeVerdict([]byte(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			var m map[string]any
			if err := json.Unmarshal(out, &m); err != nil {
				t.Fatal(err)
			}
			if m["label"] != tt.label {
				t.Fatalf("label = %v", m["label"])
			}
			if c, _ := m["confidence"].(float64); c < tt.conf-1e-9 || c > tt.conf+1e-9 {
				t.Fatalf("confidence = %v", m["confidence"])
			}
			if len(dropped) != tt.dropped {
				t.Fatalf("dropped = %v", dropped)
			}
			if err := common.ValidateAgainst(BuildVerdictJSONSchema(), out); err != nil {
				t.Fatalf("sanitized verdict still invalid: %v", err)
			}
		})
	}
}

func TestImageDataURLDownscales(t *testing.T) {
	u, err := ImageDataURL(image.NewGray(image.Rect(0, 0, 4000, 1000)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "data:image/jpeg;base64,") {
		t.Fatalf("url prefix = %q", u[:30])
	}
	if got := fitWithin(image.NewGray(image.Rect(0, 0, 4000, 1000)), MaxVisionEdge).Bounds(); got.Dx() != 1600 || got.Dy() != 400 {
		t.Fatalf("fitWithin = %v", got)
	}
}
