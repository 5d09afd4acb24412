package domain

// SourceType distinguishes the notation style of a cached tab.
type SourceType string

const (
	// SourceTypeTab is plain guitar tablature.
	SourceTypeTab SourceType = "tab"
	// SourceTypeChords is a chord chart.
	SourceTypeChords SourceType = "chords"
)

// Valid reports whether the source type is a known value.
func (s SourceType) Valid() bool {
	return s == SourceTypeTab || s == SourceTypeChords
}

// Tab is a cached copy of a tab page fetched from the upstream source.
// The URL is unique; a tab is fetched at most once and served from the
// cache afterwards.
type Tab struct {
	Entity
	SourceType  SourceType `json:"source_type"`
	URL         string     `json:"url"`
	Artist      string     `json:"artist"`
	Title       string     `json:"title"`
	Difficulty  string     `json:"difficulty,omitempty"`
	Rating      float64    `json:"rating"`
	RatingCount int        `json:"rating_count"`
	Content     string     `json:"content"`
}
