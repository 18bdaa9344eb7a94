package graph

import (
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/pkg/findings"
)

// Unresolved is a staged row that could not be turned into a canonical
// entity.
type Unresolved struct {
	Source string `json:"source"`
	Table  string `json:"table"`
	Mode   string `json:"mode,omitempty"`
	Row    int    `json:"row"`

	// Reason is a short code, e.g. 'missing_route', 'missing_parent'.
	Reason string `json:"reason"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
}

// HeadwayStats counts outcomes of correlating upstream frequencies to
// canonical patterns.
type HeadwayStats struct {
	Inserted        int `json:"inserted"`
	MissingRoute    int `json:"missingRoute"`
	AmbiguousRoute  int `json:"ambiguousRoute"`
	MissingRouteSeq int `json:"missingRouteSeq"`
	MissingPattern  int `json:"missingPattern"`
}

// Snapshot is the frozen output of Normalize.
type Snapshot struct {
	Graph *Graph

	// Advisories are Merge-class findings collected during normalization.
	Advisories []findings.Finding

	HeadwayStats HeadwayStats
	Unresolved   []Unresolved
}

// Encode serializes the snapshot with gob.
func (s *Snapshot) Encode() ([]byte, error) {
	enc := gnfmt.GNgob{}
	return enc.Encode(s)
}

// DecodeSnapshot restores a snapshot created by Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var res Snapshot
	enc := gnfmt.GNgob{}
	err := enc.Decode(data, &res)
	if err != nil {
		return nil, err
	}
	if res.Graph == nil {
		res.Graph = New()
	}
	return &res, nil
}
