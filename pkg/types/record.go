package types

import (
	"encoding/json"
	"fmt"
)

// Record is one literature item under screening as returned by the platform.
// Records are read-only views; nothing in this module mutates or caches them
// across runs.
type Record struct {
	ID        int64
	Title     string
	Abstract  string
	ClusterID string // empty when the platform reports no duplicate cluster
}

// HasContent reports whether the record carries both a title and an abstract.
func (r Record) HasContent() bool {
	return r.Title != "" && r.Abstract != ""
}

// wireRecord is the platform's JSON shape for a result row.
type wireRecord struct {
	ID        *int64 `json:"id"`
	Title     string `json:"title"`
	Abstracts []struct {
		Content string `json:"content"`
	} `json:"abstracts"`
	DedupResults *struct {
		ClusterID json.RawMessage `json:"cluster_id"`
	} `json:"dedup_results"`
}

// UnmarshalJSON decodes the platform's result row. Only the first abstract is
// kept; cluster ids may arrive as numbers or strings and are normalized to
// their textual form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == nil {
		return fmt.Errorf("record without id")
	}

	*r = Record{ID: *w.ID, Title: w.Title}
	if len(w.Abstracts) > 0 {
		r.Abstract = w.Abstracts[0].Content
	}
	if w.DedupResults != nil {
		r.ClusterID = clusterToken(w.DedupResults.ClusterID)
	}
	return nil
}

func clusterToken(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == "0" {
			return ""
		}
		return n.String()
	}
	return ""
}

// Cluster is a group of records the platform flagged as probable duplicates.
// Members keep the platform's ordering; the first member is the anchor.
type Cluster struct {
	ID      string
	Members []Record
}

// Anchor returns the reference record all other members are compared against.
func (c Cluster) Anchor() Record {
	return c.Members[0]
}

// Comparable reports whether the cluster has anything to compare.
func (c Cluster) Comparable() bool {
	return len(c.Members) >= 2
}

// Cursor is the paging position into the platform's result list.
type Cursor struct {
	Start int
	Size  int
}

// Advance moves the cursor forward by the number of records actually
// received. Negative counts are ignored; the cursor never rewinds.
func (c *Cursor) Advance(received int) {
	if received > 0 {
		c.Start += received
	}
}
