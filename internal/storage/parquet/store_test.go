package parquetstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jrwils/sparkify-datalake/internal/model"
	"github.com/jrwils/sparkify-datalake/internal/storage"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(storage.Config{Root: root, Logger: zap.NewNop()})
	require.NoError(t, err)
	return s, root
}

// partitionDirs returns the relative partition paths (directories containing
// part files) under root/table.
func partitionDirs(t *testing.T, root, table string) []string {
	t.Helper()
	base := filepath.Join(root, table)
	var dirs []string
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".parquet" {
			return nil
		}
		rel, err := filepath.Rel(base, filepath.Dir(path))
		if err != nil {
			return err
		}
		dirs = append(dirs, rel)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(dirs)
	return dirs
}

func TestWriteSongs_PartitionLayout(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	rows := []model.SongRow{
		{SongID: "SO1", Title: "Intro", ArtistID: "AR1", Year: 0, Duration: 52.0},
		{SongID: "SO2", Title: "Outro", ArtistID: "AR1", Year: 1994, Duration: 183.2},
		{SongID: "SO3", Title: "Quiet", ArtistID: "AR2", Year: 1994, Duration: 12.5},
	}
	require.NoError(t, s.WriteSongs(ctx, rows))

	want := []string{
		"year=0/artist_id=AR1",
		"year=1994/artist_id=AR1",
		"year=1994/artist_id=AR2",
	}
	require.Equal(t, want, partitionDirs(t, root, storage.TableSongs))

	got, err := s.ReadSongs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, rows, got)
}

func TestWrite_FullOverwriteDropsStalePartitions(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	first := []model.SongRow{
		{SongID: "SO1", Title: "Intro", ArtistID: "AR1", Year: 1994},
		{SongID: "SO2", Title: "Outro", ArtistID: "AR2", Year: 2001},
	}
	require.NoError(t, s.WriteSongs(ctx, first))

	second := []model.SongRow{
		{SongID: "SO1", Title: "Intro", ArtistID: "AR1", Year: 1994},
	}
	require.NoError(t, s.WriteSongs(ctx, second))

	require.Equal(t, []string{"year=1994/artist_id=AR1"}, partitionDirs(t, root, storage.TableSongs))

	got, err := s.ReadSongs(ctx)
	require.NoError(t, err)
	require.Equal(t, second, got)

	// The staging/backup directories must not survive the swap.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, storage.TableSongs, entries[0].Name())
}

func TestWrite_OverwriteIdempotence(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	rows := []model.SongRow{
		{SongID: "SO1", Title: "Intro", ArtistID: "AR1", Year: 1994, Duration: 52.0},
	}
	require.NoError(t, s.WriteSongs(ctx, rows))
	require.NoError(t, s.WriteSongs(ctx, rows))

	got, err := s.ReadSongs(ctx)
	require.NoError(t, err)
	require.Equal(t, rows, got)
	require.Equal(t, []string{"year=1994/artist_id=AR1"}, partitionDirs(t, root, storage.TableSongs))
}

func TestWriteArtists_UnpartitionedPreservesDuplicates(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	lat, lon := 35.14, -90.04
	rows := []model.ArtistRow{
		{ArtistID: "AR1", Name: "The Box Tops", Location: "Memphis, TN", Latitude: &lat, Longitude: &lon},
		{ArtistID: "AR1", Name: "The Box Tops", Location: "Memphis, TN", Latitude: &lat, Longitude: &lon},
		{ArtistID: "AR2", Name: "Unknown"},
	}
	require.NoError(t, s.WriteArtists(ctx, rows))

	require.Equal(t, []string{"."}, partitionDirs(t, root, storage.TableArtists))

	got, err := parquet.ReadFile[model.ArtistRow](filepath.Join(root, storage.TableArtists, "part-00000.parquet"))
	require.NoError(t, err)
	require.Len(t, got, 3, "duplicate artist rows must be preserved")
	require.Nil(t, got[2].Latitude)
}

func TestWriteTime_PartitionsReflectDistinctYearMonth(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	at := func(y int, m time.Month) time.Time {
		return time.Date(y, m, 2, 1, 25, 34, 0, time.UTC)
	}
	rows := []model.TimeRow{
		{StartTime: at(2018, 11), Hour: 1, Day: 2, Week: 44, Month: 11, Year: 2018, Weekday: 6},
		{StartTime: at(2018, 11), Hour: 1, Day: 2, Week: 44, Month: 11, Year: 2018, Weekday: 6},
		{StartTime: at(2018, 12), Hour: 1, Day: 2, Week: 48, Month: 12, Year: 2018, Weekday: 1},
	}
	require.NoError(t, s.WriteTime(ctx, rows))

	want := []string{"year=2018/month=11", "year=2018/month=12"}
	require.Equal(t, want, partitionDirs(t, root, storage.TableTime))
}

func TestWriteUsers_EmptyTableStillCommits(t *testing.T) {
	s, root := newStore(t)
	require.NoError(t, s.WriteUsers(context.Background(), nil))

	// An empty unpartitioned table still carries a schema-bearing part file.
	require.Equal(t, []string{"."}, partitionDirs(t, root, storage.TableUsers))
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(storage.Config{Logger: zap.NewNop()})
	require.Error(t, err)
}
