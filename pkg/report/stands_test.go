package report

import (
	"testing"

	"cardscraper/pkg/models"
)

const standsPageHTML = `<html><body>
<div id="wherehestands">
  <div>
    <div class="accordion-heading">
      <h3><span class="accordion-title">Ordination of women</span> <a>See evidence</a></h3>
    </div>
    <div class="accordion-details">
      <div class="accordion-content">
        <p class="accordion-sub-title">Female deacons</p>
        <div a="b">Array ( [value] => 2 [label] => Against )</div>
      </div>
      <div class="accordion-content">
        <p class="accordion-sub-title">Female priests</p>
        <div a="b">Array ( [value] => 1 [label] => Strongly against )</div>
      </div>
    </div>
  </div>
  <div>
    <div class="accordion-heading">
      <h3>Climate change See evidence</h3>
    </div>
    <div class="accordion-details">
      <div class="accordion-content">
        <p class="accordion-sub-title">Laudato si'</p>
        <div a="b">Array ( [value] => 5 [label] => Strongly supports )</div>
      </div>
    </div>
  </div>
</div>
</body></html>`

func TestExtractStands(t *testing.T) {
	attrs := ExtractStands(standsPageHTML)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	first := attrs[0]
	if first.IssueTitle != "Ordination of women" {
		t.Errorf("Expected issue title from span, got %q", first.IssueTitle)
	}
	if first.Subtitle != "Female deacons" {
		t.Errorf("Expected subtitle Female deacons, got %q", first.Subtitle)
	}
	if first.Value != "2" || first.Label != "Against" {
		t.Errorf("Expected value 2 / label Against, got %q / %q", first.Value, first.Label)
	}

	// Second item's title comes from the h3 fallback with the link text stripped
	third := attrs[2]
	if third.IssueTitle != "Climate change" {
		t.Errorf("Expected fallback title Climate change, got %q", third.IssueTitle)
	}
	if third.Value != "5" {
		t.Errorf("Expected value 5, got %q", third.Value)
	}
}

func TestExtractStandsMissingSection(t *testing.T) {
	attrs := ExtractStands(`<html><body><div id="biography">text</div></body></html>`)
	if len(attrs) != 0 {
		t.Errorf("Expected no attributes without a stands section, got %d", len(attrs))
	}
}

func TestExtractStandsEmptyDocument(t *testing.T) {
	if attrs := ExtractStands(""); len(attrs) != 0 {
		t.Errorf("Expected no attributes for empty document, got %d", len(attrs))
	}
}

func TestExtractStandsMissingFragments(t *testing.T) {
	html := `<div id="wherehestands">
  <div>
    <div class="accordion-heading"><h3><span class="accordion-title">Celibacy</span></h3></div>
    <div class="accordion-details">
      <div class="accordion-content">
        <p>Some prose without a subtitle or rating.</p>
      </div>
    </div>
  </div>
</div>`

	attrs := ExtractStands(html)
	if len(attrs) != 1 {
		t.Fatalf("Expected 1 attribute, got %d", len(attrs))
	}

	attr := attrs[0]
	if attr.Subtitle != models.NoSubtitle {
		t.Errorf("Expected sentinel subtitle %q, got %q", models.NoSubtitle, attr.Subtitle)
	}
	if attr.Value != models.UnknownValue || attr.Label != models.UnknownLabel {
		t.Errorf("Expected Unknown sentinels, got %q / %q", attr.Value, attr.Label)
	}
}

func TestExtractStandsHeadingWithoutDetails(t *testing.T) {
	html := `<div id="wherehestands">
  <div>
    <div class="accordion-heading"><h3><span class="accordion-title">Orphan heading</span></h3></div>
  </div>
</div>`

	if attrs := ExtractStands(html); len(attrs) != 0 {
		t.Errorf("Expected no attributes for heading without details, got %d", len(attrs))
	}
}

func TestParseRatingFragment(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		wantValue string
		wantLabel string
	}{
		{
			name:      "BothFields",
			fragment:  "Array ( [value] => 3 [label] => Neutral )",
			wantValue: "3",
			wantLabel: "Neutral",
		},
		{
			name:      "ValueOnly",
			fragment:  "Array ( [value] => 4 )",
			wantValue: "4",
			wantLabel: models.UnknownLabel,
		},
		{
			name:      "LabelOnly",
			fragment:  "Array ( [label] => Supports )",
			wantValue: models.UnknownValue,
			wantLabel: "Supports",
		},
		{
			name:      "Garbage",
			fragment:  "nothing useful here",
			wantValue: models.UnknownValue,
			wantLabel: models.UnknownLabel,
		},
		{
			name:      "MultiWordLabel",
			fragment:  "Array ( [value] => 1 [label] => Strongly against reform )",
			wantValue: "1",
			wantLabel: "Strongly against reform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, label := parseRatingFragment(tt.fragment)
			if value != tt.wantValue {
				t.Errorf("Expected value %q, got %q", tt.wantValue, value)
			}
			if label != tt.wantLabel {
				t.Errorf("Expected label %q, got %q", tt.wantLabel, label)
			}
		})
	}
}
