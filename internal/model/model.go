// Package model defines the raw input records and the five star-schema table
// rows produced by the pipeline.
//
// Field names and casing on the JSON side are a compatibility contract with
// the existing raw datasets (snake_case for catalog files, camelCase for the
// event log). The parquet tags define the persisted column names of each
// table and must not drift from them.
package model

import (
	"fmt"
	"time"
)

// CatalogRecord is one raw song/artist record as found in the catalog files.
// A single file holds one record; artist attributes repeat across songs by
// the same artist.
type CatalogRecord struct {
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	ArtistID        string   `json:"artist_id"`
	Year            int32    `json:"year"`
	Duration        float64  `json:"duration"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
}

// Validate reports a schema error when a required identifier is absent.
// Per-record recovery is deliberately not offered: one bad record fails the
// whole run.
func (r CatalogRecord) Validate() error {
	if r.SongID == "" {
		return fmt.Errorf("catalog record: song_id is required")
	}
	if r.Title == "" {
		return fmt.Errorf("catalog record %s: title is required", r.SongID)
	}
	if r.ArtistID == "" {
		return fmt.Errorf("catalog record %s: artist_id is required", r.SongID)
	}
	return nil
}

// LogEvent is one raw listening event. Only events with Page == "NextSong"
// represent an actual play; everything else (navigation, auth, errors) is
// discarded by the event transform.
//
// TS is epoch milliseconds. The raw feed writes it as an integer but a float
// is tolerated, matching the decoder contract.
type LogEvent struct {
	Page      string  `json:"page"`
	TS        float64 `json:"ts"`
	UserID    string  `json:"userId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Gender    string  `json:"gender"`
	Level     string  `json:"level"`
	Song      string  `json:"song"`
	SessionID int64   `json:"sessionId"`
	Location  string  `json:"location"`
	UserAgent string  `json:"userAgent"`
}

// Validate reports a schema error for an event that cannot be placed on the
// timeline. Events failing this check abort the run.
func (e LogEvent) Validate() error {
	if e.Page == "" {
		return fmt.Errorf("log event: page is required")
	}
	if e.TS <= 0 {
		return fmt.Errorf("log event (session %d): ts is required", e.SessionID)
	}
	return nil
}

// SongRow is one row of the songs dimension. Row count always equals the
// catalog input row count; projection only, no dedup.
type SongRow struct {
	SongID   string  `parquet:"song_id" json:"song_id"`
	Title    string  `parquet:"title" json:"title"`
	ArtistID string  `parquet:"artist_id" json:"artist_id"`
	Year     int32   `parquet:"year" json:"year"`
	Duration float64 `parquet:"duration" json:"duration"`
}

// ArtistRow is one row of the artists dimension. Duplicate artist_id rows are
// preserved when the same artist appears in multiple catalog records.
type ArtistRow struct {
	ArtistID  string   `parquet:"artist_id" json:"artist_id"`
	Name      string   `parquet:"name" json:"name"`
	Location  string   `parquet:"location" json:"location"`
	Latitude  *float64 `parquet:"latitude,optional" json:"latitude"`
	Longitude *float64 `parquet:"longitude,optional" json:"longitude"`
}

// UserRow is one row of the users dimension. Deduplication is by full-row
// equality, not by UserID: a level change yields a second row for the same
// user. Column casing follows the raw event feed.
type UserRow struct {
	UserID    string `parquet:"userId" json:"userId"`
	FirstName string `parquet:"firstName" json:"firstName"`
	LastName  string `parquet:"lastName" json:"lastName"`
	Gender    string `parquet:"gender" json:"gender"`
	Level     string `parquet:"level" json:"level"`
}

// TimeRow is one row of the time dimension: one per qualifying event, with no
// dedup, so repeated timestamps yield repeated rows.
type TimeRow struct {
	StartTime time.Time `parquet:"start_time,timestamp(millisecond)" json:"start_time"`
	Hour      int32     `parquet:"hour" json:"hour"`
	Day       int32     `parquet:"day" json:"day"`
	Week      int32     `parquet:"week" json:"week"`
	Month     int32     `parquet:"month" json:"month"`
	Year      int32     `parquet:"year" json:"year"`
	Weekday   int32     `parquet:"weekday" json:"weekday"`
}

// SongplayRow is one row of the songplay fact table, produced by the
// title-only equi-join of filtered events against the songs dimension.
// Year and Month duplicate the calendar fields for partition pruning.
type SongplayRow struct {
	SongplayID string    `parquet:"songplay_id" json:"songplay_id"`
	StartTime  time.Time `parquet:"start_time,timestamp(millisecond)" json:"start_time"`
	UserID     string    `parquet:"user_id" json:"user_id"`
	Level      string    `parquet:"level" json:"level"`
	SongID     string    `parquet:"song_id" json:"song_id"`
	ArtistID   string    `parquet:"artist_id" json:"artist_id"`
	SessionID  int64     `parquet:"session_id" json:"session_id"`
	Location   string    `parquet:"location" json:"location"`
	UserAgent  string    `parquet:"user_agent" json:"user_agent"`
	Year       int32     `parquet:"year" json:"year"`
	Month      int32     `parquet:"month" json:"month"`
}
