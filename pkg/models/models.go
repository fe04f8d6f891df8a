package models

import "strconv"

// Sentinel values used when source data is absent or unparseable.
const (
	UnknownValue      = "Unknown"
	UnknownLabel      = "Unknown"
	UnknownIssueTitle = "Unknown Issue"
	NoSubtitle        = "No title found"
)

// Attribute is one rated position on a named issue. Page-derived attributes
// carry the label vocabulary of the source site; reasoning-derived attributes
// carry the fixed rating-scale vocabulary and an explanation.
type Attribute struct {
	IssueTitle  string `json:"issue_title"`
	Subtitle    string `json:"subtitle"`
	Value       string `json:"value"`
	Label       string `json:"label"`
	Explanation string `json:"explanation,omitempty"`
}

// DimensionRating is a single 1-5 rating with its rationale
type DimensionRating struct {
	Rating      int    `json:"rating"`
	Explanation string `json:"explanation"`
}

// TheologicalStance groups the two theological rating axes
type TheologicalStance struct {
	Conservative  *DimensionRating `json:"conservative,omitempty"`
	ReformLeaning *DimensionRating `json:"reform_leaning,omitempty"`
}

// IssuePositions groups the two issue-position rating axes
type IssuePositions struct {
	LGBTQPolicies    *DimensionRating `json:"lgbtq_policies,omitempty"`
	Environmentalism *DimensionRating `json:"environmentalism,omitempty"`
}

// Analysis is the structured result of the reasoning pass. Either the two
// rating groups are populated, or Err/RawResponse describe a failed parse.
type Analysis struct {
	TheologicalStance *TheologicalStance `json:"theological_stance,omitempty"`
	IssuePositions    *IssuePositions    `json:"issue_positions,omitempty"`
	Err               string             `json:"error,omitempty"`
	RawResponse       string             `json:"raw_response,omitempty"`
}

// Failed reports whether the analysis carries an error instead of ratings
func (a *Analysis) Failed() bool {
	return a == nil || a.Err != ""
}

// Cardinal is one entity's accumulating record across pipeline stages
type Cardinal struct {
	Name         string      `json:"name"`
	ProfileURL   string      `json:"profile_url"`
	ImageURL     string      `json:"image_url,omitempty"`
	VotingStatus string      `json:"voting_status,omitempty"`
	CreatedBy    string      `json:"created_by,omitempty"`
	Age          string      `json:"age,omitempty"`
	Nation       string      `json:"nation,omitempty"`
	Continent    string      `json:"continent,omitempty"`
	Position     string      `json:"position,omitempty"`
	Attributes   []Attribute `json:"attributes,omitempty"`
	Analysis     *Analysis   `json:"analysis_results,omitempty"`
}

// MergeAttributes folds new attributes into the cardinal's record. Attributes
// are keyed by (issue_title, subtitle): an existing entry is replaced in
// place, a new one is appended. Re-running a pass is therefore idempotent.
func (c *Cardinal) MergeAttributes(attrs []Attribute) {
	for _, attr := range attrs {
		replaced := false
		for i, existing := range c.Attributes {
			if existing.IssueTitle == attr.IssueTitle && existing.Subtitle == attr.Subtitle {
				c.Attributes[i] = attr
				replaced = true
				break
			}
		}
		if !replaced {
			c.Attributes = append(c.Attributes, attr)
		}
	}
}

// Enriched reports whether the stands-extraction pass already ran
func (c *Cardinal) Enriched() bool {
	return len(c.Attributes) > 0
}

// Analyzed reports whether the reasoning pass produced usable ratings
func (c *Cardinal) Analyzed() bool {
	return c.Analysis != nil && !c.Analysis.Failed()
}

// StanceVector projects the analysis ratings to the fixed 4-dimensional
// stance vector (conservative, reform_leaning, lgbtq_policies,
// environmentalism). Missing dimensions default to the neutral rating 3.
func (c *Cardinal) StanceVector() []float32 {
	vector := []float32{3, 3, 3, 3}
	if c.Analysis == nil {
		return vector
	}
	if ts := c.Analysis.TheologicalStance; ts != nil {
		if ts.Conservative != nil {
			vector[0] = float32(ts.Conservative.Rating)
		}
		if ts.ReformLeaning != nil {
			vector[1] = float32(ts.ReformLeaning.Rating)
		}
	}
	if ip := c.Analysis.IssuePositions; ip != nil {
		if ip.LGBTQPolicies != nil {
			vector[2] = float32(ip.LGBTQPolicies.Rating)
		}
		if ip.Environmentalism != nil {
			vector[3] = float32(ip.Environmentalism.Rating)
		}
	}
	return vector
}

// ratingLabels maps each integer rating to its display label
var ratingLabels = map[int]string{
	1: "Strongly Conservative/Against",
	2: "Moderately Conservative/Against",
	3: "Neutral/Balanced",
	4: "Moderately Progressive/Supports",
	5: "Strongly Progressive/Supports",
}

// LabelForRating converts an integer rating to its display label.
// Ratings outside [1,5] yield the Unknown sentinel.
func LabelForRating(rating int) string {
	if label, ok := ratingLabels[rating]; ok {
		return label
	}
	return UnknownLabel
}

// LabelForValue converts a rating-as-string to its display label.
// Non-numeric values yield the Unknown sentinel.
func LabelForValue(value string) string {
	rating, err := strconv.Atoi(value)
	if err != nil {
		return UnknownLabel
	}
	return LabelForRating(rating)
}
