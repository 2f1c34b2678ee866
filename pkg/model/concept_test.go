package model_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model/modeltest"
)

func TestImportGeneratorPayload(t *testing.T) {
	payload := `{
	  "id": "root",
	  "label": "Photosynthesis",
	  "explanation": "Plants convert light to chemical energy.",
	  "children": [
	    {"id": "light", "label": "Light reactions", "children": []},
	    {"id": "calvin", "label": "Calvin cycle", "explanation": "", "children": [
	      {"id": "rubisco", "label": "RuBisCO", "children": []}
	    ]}
	  ]
	}`

	c, err := model.Import([]byte(payload))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if c.Label != "Photosynthesis" || len(c.Children) != 2 {
		t.Fatalf("unexpected root: %+v", c)
	}
	if c.Children[0].HasExplanation() {
		t.Error("expected missing explanation on 'light'")
	}
	if c.Children[1].HasExplanation() {
		t.Error("expected empty explanation to count as missing on 'calvin'")
	}
	if !c.HasExplanation() {
		t.Error("expected root explanation")
	}
	if c.Children[1].Children[0].ID != "rubisco" {
		t.Errorf("expected nested child rubisco, got %q", c.Children[1].Children[0].ID)
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	if _, err := model.Import([]byte(`{"id": "root", "children": [`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestExportIsIndentedAndOmitsEmptyExplanation(t *testing.T) {
	data, err := model.Export(modeltest.Scenario())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "\n  \"label\": \"Root\"") {
		t.Errorf("expected indented output, got:\n%s", out)
	}
	// A2 has no explanation in the fixture
	if strings.Count(out, "\"explanation\"") != 4 {
		t.Errorf("expected 4 explanation fields, got:\n%s", out)
	}
}

const scenarioJSON = `{
  "id": "root",
  "label": "Root",
  "explanation": "The topic itself.",
  "children": [
    {
      "id": "A",
      "label": "A",
      "explanation": "First branch.",
      "children": [
        {
          "id": "A1",
          "label": "A1",
          "explanation": "First leaf of A.",
          "children": null
        },
        {
          "id": "A2",
          "label": "A2",
          "children": null
        }
      ]
    },
    {
      "id": "B",
      "label": "B",
      "explanation": "Second branch.",
      "children": null
    }
  ]
}
`

func TestExportMatchesIndentedDocument(t *testing.T) {
	data, err := model.Export(modeltest.Scenario())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if string(data) != scenarioJSON {
		t.Errorf("unexpected export (%d bytes):\n%s", len(data), data)
	}
}

// Deep trees must not grow with more than a few bytes of padding per level.
func TestExportSizeIsProportionalToDepth(t *testing.T) {
	for _, depth := range []int{1, 2, 6, 20} {
		data, err := model.Export(modeltest.Chain(depth))
		if err != nil {
			t.Fatalf("Export(Chain(%d)) failed: %v", depth, err)
		}
		if limit := 200 * (depth + 1) * (depth + 1); len(data) > limit {
			t.Errorf("Chain(%d) exported %d bytes, want at most %d", depth, len(data), limit)
		}
	}
}

// TestExportImportRoundTrip verifies import(export(T)) == T
func TestExportImportRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := modeltest.Concept(4, 4).Draw(t, "tree")

		data, err := model.Export(c)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		back, err := model.Import(data)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if !reflect.DeepEqual(c, back) {
			t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", back, c)
		}

		// Exporting the re-imported value is byte-identical
		again, err := model.Export(back)
		if err != nil {
			t.Fatalf("second Export failed: %v", err)
		}
		if !bytes.Equal(data, again) {
			t.Fatal("export is not stable across a round trip")
		}
	})
}

func TestCloneIsDeep(t *testing.T) {
	c := modeltest.Scenario()
	clone := c.Clone()
	clone.Children[0].Children[1].Label = "changed"
	if c.Children[0].Children[1].Label != "A2" {
		t.Error("Clone shares child storage with the original")
	}
	if !reflect.DeepEqual(modeltest.Scenario(), c) {
		t.Error("original modified by clone mutation")
	}
}
