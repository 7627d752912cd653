// Package feed models the podcast feed as a pure append-and-expire ledger of
// episodes. All mutation happens in memory; storage I/O belongs to callers,
// which keeps the upsert and retention logic testable without a network.
package feed

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"morsel/internal/domain"
)

// IndexKey is the object key of the machine-readable episode index persisted
// next to the rendered feed.
const IndexKey = "episodes.json"

// FeedKey is the object key of the public RSS document.
const FeedKey = "feed.xml"

// Document is the ordered set of published episodes, newest first.
type Document struct {
	Episodes []domain.Episode `json:"episodes"`
}

// ParseIndex decodes a stored episode index. Empty input yields an empty
// document.
func ParseIndex(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse episode index: %w", err)
	}
	doc.sortNewestFirst()
	return doc, nil
}

// MarshalIndex encodes the document for storage.
func (d Document) MarshalIndex() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal episode index: %w", err)
	}
	return data, nil
}

// Upsert inserts episode keyed by its date, replacing any prior entry for
// the same date, and restores newest-first order.
func (d *Document) Upsert(episode domain.Episode) {
	date := domain.DayOf(episode.Date)
	kept := d.Episodes[:0]
	for _, existing := range d.Episodes {
		if !domain.DayOf(existing.Date).Equal(date) {
			kept = append(kept, existing)
		}
	}
	d.Episodes = append(kept, episode)
	d.sortNewestFirst()
}

// ApplyRetention removes entries dated strictly before cutoff and returns
// them so the caller can delete the matching audio objects afterwards.
func (d *Document) ApplyRetention(cutoff time.Time) []domain.Episode {
	cutoff = domain.DayOf(cutoff)
	var removed []domain.Episode
	kept := d.Episodes[:0]
	for _, episode := range d.Episodes {
		if domain.DayOf(episode.Date).Before(cutoff) {
			removed = append(removed, episode)
		} else {
			kept = append(kept, episode)
		}
	}
	d.Episodes = kept
	return removed
}

// AudioKeys returns the set of audio object keys referenced by the document.
func (d Document) AudioKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(d.Episodes))
	for _, episode := range d.Episodes {
		keys[episode.AudioKey] = struct{}{}
	}
	return keys
}

func (d *Document) sortNewestFirst() {
	sort.SliceStable(d.Episodes, func(i, j int) bool {
		return d.Episodes[i].Date.After(d.Episodes[j].Date)
	})
}
