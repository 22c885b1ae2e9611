// Package schemas holds the JSON Schemas for pipeline inputs and outputs.
package schemas

import "embed"

// Schema file names.
const (
	RawPostings    = "raw_postings.schema.json"
	RankedPostings = "ranked_postings.schema.json"
)

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
