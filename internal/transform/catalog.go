// Package transform holds the pure, per-record derivations that turn the two
// raw input families into the five star-schema tables. Every function here is
// stateless and safe to fan out across shards of the input; the only
// cross-record operations (user dedup, the fact join) group by an explicit
// key so an execution engine can shuffle on it.
package transform

import (
	"github.com/jrwils/sparkify-datalake/internal/model"
)

// Songs projects catalog records into the songs dimension. Nothing is dropped
// or merged: the output row count equals the input row count.
func Songs(recs []model.CatalogRecord) []model.SongRow {
	rows := make([]model.SongRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, model.SongRow{
			SongID:   r.SongID,
			Title:    r.Title,
			ArtistID: r.ArtistID,
			Year:     r.Year,
			Duration: r.Duration,
		})
	}
	return rows
}

// Artists projects catalog records into the artists dimension, renaming the
// artist_* source fields. Duplicate rows for the same artist are preserved;
// collapsing them is a downstream query concern, not a transform concern.
func Artists(recs []model.CatalogRecord) []model.ArtistRow {
	rows := make([]model.ArtistRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, model.ArtistRow{
			ArtistID:  r.ArtistID,
			Name:      r.ArtistName,
			Location:  r.ArtistLocation,
			Latitude:  r.ArtistLatitude,
			Longitude: r.ArtistLongitude,
		})
	}
	return rows
}
