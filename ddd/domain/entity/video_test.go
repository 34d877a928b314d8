package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/errno"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestNewVideoDefaults(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "u-1", t0)

	assert.Equal(t, vo.VideoStatusUploaded, v.Status())
	assert.Zero(t, v.ProcessingAttempts())
	assert.Nil(t, v.ProcessedTime())
	assert.Nil(t, v.ErrorMessage())
	assert.Nil(t, v.TranscriptionConfidence())
	assert.Equal(t, t0, v.UploadTime())
	assert.Equal(t, t0, v.LastModified())
}

func TestSuccessfulTranscription(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)

	require.NoError(t, v.StartTranscription(t0.Add(time.Second)))
	assert.Equal(t, vo.VideoStatusProcessing, v.Status())
	assert.Equal(t, 1, v.ProcessingAttempts())

	details := vo.TranscriptionDetails{
		Text: "hello",
		Segments: []vo.TranscriptionSegment{
			{Text: "hel", Confidence: ptr(0.8)},
			{Text: "lo", Confidence: ptr(1.0)},
		},
	}
	done := t0.Add(4 * time.Second)
	require.NoError(t, v.CompleteTranscription(details, done))

	assert.Equal(t, vo.VideoStatusCompleted, v.Status())
	require.NotNil(t, v.Transcription())
	assert.Equal(t, "hello", *v.Transcription())
	require.NotNil(t, v.TranscriptionConfidence())
	assert.InDelta(t, 0.9, *v.TranscriptionConfidence(), 1e-9)
	require.NotNil(t, v.ProcessedTime())
	assert.Equal(t, done, *v.ProcessedTime())
	require.NotNil(t, v.ProcessingDuration())
	assert.InDelta(t, 3.0, *v.ProcessingDuration(), 1e-9)
	assert.Nil(t, v.ErrorMessage())
	assert.Equal(t, done, v.LastModified())
}

func TestFailureThenRetry(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	require.NoError(t, v.StartTranscription(t0))
	require.NoError(t, v.FailTranscription("decode error", t0.Add(time.Second)))

	require.NotNil(t, v.ErrorMessage())
	assert.Equal(t, "decode error", *v.ErrorMessage())
	firstProcessed := *v.ProcessedTime()

	require.NoError(t, v.StartTranscription(t0.Add(time.Minute)))
	assert.Nil(t, v.ErrorMessage())
	assert.Nil(t, v.State().ErrorMessage)
	assert.Equal(t, 2, v.ProcessingAttempts())

	require.NoError(t, v.CompleteTranscription(vo.TranscriptionDetails{Text: "ok"}, t0.Add(2*time.Minute)))
	assert.Equal(t, firstProcessed, *v.ProcessedTime())
	assert.InDelta(t, 60.0, *v.ProcessingDuration(), 1e-9)
	assert.Nil(t, v.TranscriptionConfidence())
}

func TestStartConflicts(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	require.NoError(t, v.StartTranscription(t0))

	err := v.StartTranscription(t0)
	assert.True(t, errors.Is(err, errno.ErrAlreadyProcessing))
	assert.Equal(t, 1, v.ProcessingAttempts())

	require.NoError(t, v.CompleteTranscription(vo.TranscriptionDetails{Text: "x"}, t0))
	err = v.StartTranscription(t0)
	assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
}

func TestCompleteRequiresProcessing(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	assert.True(t, errors.Is(v.CompleteTranscription(vo.TranscriptionDetails{}, t0), errno.ErrInvalidTransition))
	assert.True(t, errors.Is(v.FailTranscription("x", t0), errno.ErrInvalidTransition))
	assert.Equal(t, vo.VideoStatusUploaded, v.Status())
}

func TestEnqueue(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	require.NoError(t, v.StartTranscription(t0))
	assert.True(t, errors.Is(v.Enqueue(t0), errno.ErrInvalidTransition))

	require.NoError(t, v.FailTranscription("boom", t0))
	require.NoError(t, v.Enqueue(t0.Add(time.Second)))
	assert.Equal(t, vo.VideoStatusQueued, v.Status())
	assert.Nil(t, v.State().ErrorMessage)
}

func TestRestoreRejectsUnknownStatus(t *testing.T) {
	_, err := RestoreVideo(VideoState{ID: 3, Status: "archived"})
	assert.True(t, errors.Is(err, errno.ErrCorruptRecord))

	v, err := RestoreVideo(VideoState{ID: 3, Status: vo.VideoStatusFailed, ErrorMessage: ptr("bad")})
	require.NoError(t, err)
	assert.Equal(t, "bad", *v.ErrorMessage())
}

func TestCloneIsIndependent(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	require.NoError(t, v.SetMediaMetadata(&vo.MediaMetadata{Duration: ptr(5.0)}, t0))
	c := v.Clone()
	*c.MediaMetadata().Duration = 9
	assert.Equal(t, 5.0, *v.MediaMetadata().Duration)
}

func TestCloneCopiesTranscriptionSegments(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	require.NoError(t, v.StartTranscription(t0))
	details := vo.TranscriptionDetails{
		Text: "hello world",
		Segments: []vo.TranscriptionSegment{{
			Text:       "hello world",
			Confidence: ptr(0.8),
			Words: []vo.TranscriptionWord{
				{Word: "hello", Confidence: ptr(0.9)},
				{Word: "world", Confidence: ptr(0.7)},
			},
		}},
	}
	require.NoError(t, v.CompleteTranscription(details, t0.Add(time.Minute)))

	c := v.Clone()
	seg := &c.TranscriptionDetails().Segments[0]
	*seg.Confidence = 0.1
	seg.Words[0].Word = "changed"
	*seg.Words[1].Confidence = 0.2
	seg.Words = append(seg.Words, vo.TranscriptionWord{Word: "extra"})

	orig := v.TranscriptionDetails().Segments[0]
	assert.Equal(t, 0.8, *orig.Confidence)
	assert.Equal(t, "hello", orig.Words[0].Word)
	assert.Equal(t, 0.7, *orig.Words[1].Confidence)
	assert.Len(t, orig.Words, 2)
}

func TestSetAnalysisValidates(t *testing.T) {
	v := NewVideo("clip.mp4", "videos/a.mp4", "video/mp4", "", t0)
	err := v.SetAnalysis(&vo.AnalysisResults{Language: &vo.DetectedLanguage{Confidence: 4}}, nil, t0)
	assert.True(t, errors.Is(err, errno.ErrValidation))

	require.NoError(t, v.SetAnalysis(nil, ptr("short summary"), t0.Add(time.Second)))
	assert.Equal(t, "short summary", *v.Summary())
	assert.Nil(t, v.AnalysisResults())
}
