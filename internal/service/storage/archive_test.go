package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assettracker/internal/config"
	"assettracker/internal/dto"
	"assettracker/internal/logger"
	"assettracker/internal/repository/sqlite"
)

type archiveFixture struct {
	archive    *ArchiveService
	analyses   *sqlite.AnalysisRepository
	detections *sqlite.DetectionRepository
	dir        string
}

func newArchive(t *testing.T, limit int) archiveFixture {
	t.Helper()
	root := t.TempDir()

	db, err := sqlite.New(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ImageDirectory:       filepath.Join(root, "images"),
		ArchiveBufferLimit:   limit,
		ArchiveFlushInterval: 3600,
	}
	f := archiveFixture{
		analyses:   sqlite.NewAnalysisRepository(db),
		detections: sqlite.NewDetectionRepository(db),
		dir:        cfg.ImageDirectory,
	}
	f.archive = NewArchiveService(cfg, logger.Discard(), f.analyses, f.detections)
	return f
}

func sampleAnalysis() dto.BufferedAnalysis {
	return dto.BufferedAnalysis{
		Timestamp:  time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC),
		Source:     "truss.png",
		Confidence: 0.4,
		Data:       []byte("jpeg bytes"),
		Detections: []dto.DetectionRecord{
			{ClassID: 0, Label: "solar panel", Confidence: 0.9, X: 1, Y: 2, Width: 10, Height: 20},
			{ClassID: 1, Label: "cable", Confidence: 0.6},
			{ClassID: 0, Label: "solar panel", Confidence: 0.5},
		},
	}
}

func TestArchive_FlushWritesFileAndRows(t *testing.T) {
	f := newArchive(t, 10)

	f.archive.AddAnalysis(sampleAnalysis())
	assert.Equal(t, 1, f.archive.Pending())

	saved := f.archive.Flush()
	assert.Equal(t, 1, saved)
	assert.Zero(t, f.archive.Pending())

	all, err := f.analyses.GetAll(nil)
	require.NoError(t, err)
	require.Len(t, all, 1)

	a := all[0]
	assert.Equal(t, "truss.png", a.Source)
	assert.True(t, strings.HasPrefix(a.Filename, "analysis_20261018_083000.000_"))
	assert.True(t, strings.HasSuffix(a.Filename, "_solar_panel-cable.jpg"), a.Filename)
	assert.Equal(t, int64(len("jpeg bytes")), a.FileSize)

	data, err := os.ReadFile(filepath.Join(f.dir, a.Filename))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	dets, err := f.detections.GetByAnalysisID(a.ID)
	require.NoError(t, err)
	require.Len(t, dets, 3)
	assert.Equal(t, "solar panel", dets[0].Label)
	assert.Equal(t, 10, dets[0].Width)
}

func TestArchive_FullBufferFlushes(t *testing.T) {
	f := newArchive(t, 2)
	var flushed []int
	f.archive.OnFlush(func(n int) { flushed = append(flushed, n) })

	f.archive.AddAnalysis(sampleAnalysis())
	assert.Empty(t, flushed)
	f.archive.AddAnalysis(sampleAnalysis())

	assert.Equal(t, []int{2}, flushed)
	count, err := f.analyses.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestArchive_EmptyFlushIsNoop(t *testing.T) {
	f := newArchive(t, 10)

	assert.Zero(t, f.archive.Flush())
	_, err := os.Stat(f.dir)
	assert.True(t, os.IsNotExist(err))
}

func TestArchive_RunFlushesOnShutdown(t *testing.T) {
	f := newArchive(t, 10)
	f.archive.AddAnalysis(sampleAnalysis())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.archive.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, f.archive.Pending())
}

func TestArchive_DeleteAndClear(t *testing.T) {
	f := newArchive(t, 10)
	f.archive.AddAnalysis(sampleAnalysis())
	f.archive.AddAnalysis(sampleAnalysis())
	require.Equal(t, 2, f.archive.Flush())

	all, err := f.analyses.GetAll(nil)
	require.NoError(t, err)

	require.NoError(t, f.archive.Delete(all[0].Filename))
	_, err = os.Stat(filepath.Join(f.dir, all[0].Filename))
	assert.True(t, os.IsNotExist(err))
	count, _ := f.analyses.GetTotalCount(nil)
	assert.Equal(t, 1, count)

	require.NoError(t, f.archive.Clear())
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	count, _ = f.analyses.GetTotalCount(nil)
	assert.Zero(t, count)
}

func TestArchive_PathRejectsTraversal(t *testing.T) {
	f := newArchive(t, 10)

	for _, name := range []string{"", "../secret.jpg", "/etc/passwd", "a/b.jpg", ".hidden", "file\x00name.jpg"} {
		_, err := f.archive.Path(name)
		assert.ErrorIs(t, err, ErrInvalidFilename, name)
	}

	path, err := f.archive.Path("analysis_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "analysis_1.jpg"), path)

	assert.ErrorIs(t, f.archive.Delete("../x.jpg"), ErrInvalidFilename)
}
