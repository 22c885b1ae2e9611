package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// RankedPosting is a scored posting with its 1-based position.
type RankedPosting struct {
	Rank int `json:"rank"`
	types.ScoredPosting
}

// Document is the JSON export layout.
type Document struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Count       int             `json:"count"`
	Postings    []RankedPosting `json:"postings"`
}

// NewDocument wraps postings with ranks and metadata.
func NewDocument(postings []types.ScoredPosting, generatedAt time.Time) Document {
	doc := Document{
		GeneratedAt: generatedAt.UTC(),
		Count:       len(postings),
		Postings:    make([]RankedPosting, len(postings)),
	}
	for i, p := range postings {
		doc.Postings[i] = RankedPosting{Rank: i + 1, ScoredPosting: p}
	}
	return doc
}

// JSONExporter writes an indented Document.
type JSONExporter struct{}

func (JSONExporter) Format() string    { return FormatJSON }
func (JSONExporter) Extension() string { return ".json" }

func (JSONExporter) Export(w io.Writer, postings []types.ScoredPosting, generatedAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(postings, generatedAt))
}
