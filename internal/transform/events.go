package transform

import (
	"time"

	"github.com/jrwils/sparkify-datalake/internal/model"
	"github.com/jrwils/sparkify-datalake/internal/timeconv"
)

// pagePlay marks the only event kind that represents an actual song play.
const pagePlay = "NextSong"

// FilterPlays keeps events whose page is exactly "NextSong". All other
// events contribute to no output table.
func FilterPlays(events []model.LogEvent) []model.LogEvent {
	out := make([]model.LogEvent, 0, len(events))
	for _, e := range events {
		if e.Page == pagePlay {
			out = append(out, e)
		}
	}
	return out
}

// Users projects filtered events into the users dimension and removes exact
// duplicate rows. The dedup key is the full row tuple, not userId: two events
// for the same user that differ only in level survive as two rows. First
// occurrence order is preserved.
func Users(events []model.LogEvent) []model.UserRow {
	seen := make(map[model.UserRow]struct{}, len(events))
	rows := make([]model.UserRow, 0, len(events))
	for _, e := range events {
		row := model.UserRow{
			UserID:    e.UserID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			Level:     e.Level,
		}
		if _, ok := seen[row]; ok {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}
	return rows
}

// TimeRows emits one time-dimension row per filtered event, decoded in loc.
// No dedup: repeated timestamps across events yield repeated rows.
func TimeRows(events []model.LogEvent, loc *time.Location) []model.TimeRow {
	rows := make([]model.TimeRow, 0, len(events))
	for _, e := range events {
		t := timeconv.Decode(e.TS, loc)
		f := timeconv.Calendar(t)
		rows = append(rows, model.TimeRow{
			StartTime: t,
			Hour:      f.Hour,
			Day:       f.Day,
			Week:      f.Week,
			Month:     f.Month,
			Year:      f.Year,
			Weekday:   f.Weekday,
		})
	}
	return rows
}

// Songplays equi-joins filtered events against the songs dimension on
// event.song == song.title (case-sensitive, exact). A title matching no song
// contributes zero fact rows; a title matching several songs fans out into
// one fact row per match. Each emitted row gets a surrogate id from keyFn.
//
// The songs argument is expected to be the persisted dimension read back from
// storage, not the in-memory projection: the read-back is what enforces the
// stage ordering between the catalog and event halves of the run.
func Songplays(events []model.LogEvent, songs []model.SongRow, loc *time.Location, keyFn SongplayKey) []model.SongplayRow {
	// Build the join index on the title key. Multiple songs may share a
	// title; all matches are kept.
	byTitle := make(map[string][]model.SongRow, len(songs))
	for _, s := range songs {
		byTitle[s.Title] = append(byTitle[s.Title], s)
	}

	var rows []model.SongplayRow
	ordinal := 0
	for _, e := range events {
		matches := byTitle[e.Song]
		if len(matches) == 0 {
			continue
		}
		t := timeconv.Decode(e.TS, loc)
		for _, s := range matches {
			rows = append(rows, model.SongplayRow{
				SongplayID: keyFn(t, e.UserID, e.SessionID, ordinal),
				StartTime:  t,
				UserID:     e.UserID,
				Level:      e.Level,
				SongID:     s.SongID,
				ArtistID:   s.ArtistID,
				SessionID:  e.SessionID,
				Location:   e.Location,
				UserAgent:  e.UserAgent,
				Year:       int32(t.Year()),
				Month:      int32(t.Month()),
			})
			ordinal++
		}
	}
	return rows
}
