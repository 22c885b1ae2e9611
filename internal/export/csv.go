package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// CSVExporter writes one row per posting under a Header row.
type CSVExporter struct{}

func (CSVExporter) Format() string    { return FormatCSV }
func (CSVExporter) Extension() string { return ".csv" }

func (CSVExporter) Export(w io.Writer, postings []types.ScoredPosting, _ time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for i, p := range postings {
		if err := cw.Write(row(i+1, p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
