package query

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/vo"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func fptr(f float64) *float64 { return &f }
func iptr(n int64) *int64     { return &n }

func video(t *testing.T, s entity.VideoState) *entity.Video {
	t.Helper()
	if s.Status == "" {
		s.Status = vo.VideoStatusUploaded
	}
	if s.UploadTime.IsZero() {
		s.UploadTime = base
	}
	v, err := entity.RestoreVideo(s)
	require.NoError(t, err)
	return v
}

func ids(vs []*entity.Video) []int64 {
	out := make([]int64, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ID())
	}
	return out
}

func TestMatchesFilters(t *testing.T) {
	withMeta := video(t, entity.VideoState{
		ID:            1,
		Filename:      "Lecture-01.mp4",
		Status:        vo.VideoStatusCompleted,
		MediaMetadata: &vo.MediaMetadata{Duration: fptr(90), FileSize: iptr(4096)},
	})
	noMeta := video(t, entity.VideoState{ID: 2, Filename: "lecture-02.mp4"})

	q, err := Build(Params{Search: "LECTURE"})
	require.NoError(t, err)
	assert.True(t, q.Matches(withMeta))
	assert.True(t, q.Matches(noMeta))

	q, _ = Build(Params{MinDuration: "60", MaxDuration: "120"})
	assert.True(t, q.Matches(withMeta))
	assert.False(t, q.Matches(noMeta), "absent duration does not match")

	q, _ = Build(Params{MinDuration: "0"})
	assert.False(t, q.Matches(noMeta), "zero bound still requires a value")

	q, _ = Build(Params{MaxFileSize: "1000"})
	assert.False(t, q.Matches(withMeta))

	q, _ = Build(Params{Status: "completed", Search: "02"})
	assert.False(t, q.Matches(withMeta))
	assert.False(t, q.Matches(noMeta))
}

func TestMatchesDateRangeIsInclusive(t *testing.T) {
	v := video(t, entity.VideoState{ID: 1, UploadTime: time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)})

	q, _ := Build(Params{StartDate: "2024-01-31", EndDate: "2024-01-31"})
	assert.True(t, q.Matches(v))

	q, _ = Build(Params{EndDate: "2024-01-30"})
	assert.False(t, q.Matches(v))
}

func TestCompareNullsLastBothDirections(t *testing.T) {
	videos := []*entity.Video{
		video(t, entity.VideoState{ID: 1, TranscriptionConfidence: fptr(0.5)}),
		video(t, entity.VideoState{ID: 2}),
		video(t, entity.VideoState{ID: 3, TranscriptionConfidence: fptr(0.9)}),
		video(t, entity.VideoState{ID: 4, TranscriptionConfidence: fptr(0.5)}),
		video(t, entity.VideoState{ID: 5}),
	}

	q, _ := Build(Params{OrderBy: "transcription_confidence", Order: "desc"})
	assert.Equal(t, []int64{3, 4, 1, 5, 2}, ids(q.Apply(videos).Items))

	q, _ = Build(Params{OrderBy: "transcription_confidence", Order: "asc"})
	assert.Equal(t, []int64{1, 4, 3, 2, 5}, ids(q.Apply(videos).Items))
}

func TestApplyCountsBeforePaging(t *testing.T) {
	var videos []*entity.Video
	for i := int64(1); i <= 25; i++ {
		videos = append(videos, video(t, entity.VideoState{
			ID:         i,
			Filename:   "clip.mp4",
			UploadTime: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	q, _ := Build(Params{Page: "3", PageSize: "10"})
	res := q.Apply(videos)
	assert.Equal(t, int64(25), res.Total)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(res.Items))

	q, _ = Build(Params{Page: "9", PageSize: "10"})
	res = q.Apply(videos)
	assert.Equal(t, int64(25), res.Total)
	assert.Empty(t, res.Items)
}

func TestCompareFilenameTreatsEmptyAsNull(t *testing.T) {
	videos := []*entity.Video{
		video(t, entity.VideoState{ID: 1, Filename: "b.mp4"}),
		video(t, entity.VideoState{ID: 2}),
		video(t, entity.VideoState{ID: 3, Filename: "a.mp4"}),
	}
	q, _ := Build(Params{OrderBy: "filename", Order: "asc"})
	assert.Equal(t, []int64{3, 1, 2}, ids(q.Apply(videos).Items))
}

func TestApplyFarPastLastPageIsEmpty(t *testing.T) {
	videos := []*entity.Video{
		video(t, entity.VideoState{ID: 1, Filename: "a.mp4", UploadTime: base}),
		video(t, entity.VideoState{ID: 2, Filename: "b.mp4", UploadTime: base.Add(time.Minute)}),
	}

	q, err := Build(Params{Page: "1", PageSize: "100"})
	require.NoError(t, err)
	q.Page = math.MaxInt / 50

	res := q.Apply(videos)
	assert.Equal(t, int64(2), res.Total)
	assert.Empty(t, res.Items)

	q, err = Build(Params{Page: fmt.Sprint(MaxPage), PageSize: "100"})
	require.NoError(t, err)
	res = q.Apply(videos)
	assert.Equal(t, int64(2), res.Total)
	assert.Empty(t, res.Items)
}
