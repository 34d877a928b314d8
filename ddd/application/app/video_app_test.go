package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"transcription-service/ddd/application/app"
	"transcription-service/ddd/application/cqe"
	"transcription-service/ddd/domain/gateway"
	"transcription-service/ddd/domain/service"
	"transcription-service/ddd/domain/vo"
	"transcription-service/ddd/infrastructure/database/persistence"
	"transcription-service/pkg/errno"
)

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) PresignedURL(ctx context.Context, locator string) (string, error) {
	args := m.Called(ctx, locator)
	return args.String(0), args.Error(1)
}

type stubTranscriber struct {
	details *vo.TranscriptionDetails
	err     error
}

func (s stubTranscriber) Transcribe(context.Context, string) (*vo.TranscriptionDetails, error) {
	return s.details, s.err
}

type capturePublisher struct{ events []gateway.VideoEvent }

func (p *capturePublisher) Publish(_ context.Context, e gateway.VideoEvent) error {
	p.events = append(p.events, e)
	return nil
}

// mp4 ftyp box
var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2'}

var fixedNow = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

type fixture struct {
	app     app.VideoApp
	repo    *persistence.MemoryVideoRepository
	storage *mockStorage
	events  *capturePublisher
}

func newFixture(t *testing.T, tr gateway.Transcriber) *fixture {
	t.Helper()
	now := func() time.Time { return fixedNow }
	repo := persistence.NewMemoryVideoRepository(now)
	storage := &mockStorage{}
	events := &capturePublisher{}
	svc := service.NewTranscriptionService(repo, storage, tr, nil, events, service.TranscriptionOptions{
		Timeout: time.Second,
		Now:     now,
	})
	a := app.NewVideoAppWith(repo, storage, svc, events, app.VideoAppOptions{
		MaxFileSize: 1 << 20,
		KeyPrefix:   "videos",
		Now:         now,
	})
	return &fixture{app: a, repo: repo, storage: storage, events: events}
}

func uploadReq(body []byte, contentType string) *cqe.UploadVideoReq {
	return &cqe.UploadVideoReq{
		Filename:    "clips/Lecture.MP4",
		ContentType: contentType,
		Size:        int64(len(body)),
		Reader:      bytes.NewReader(body),
		CreatedBy:   "user-1",
	}
}

func TestUploadVideoStoresAndCreates(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	body := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0x01}, 4096)...)

	f.storage.On("Put", mock.Anything,
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "videos/2024/03/09/") && strings.HasSuffix(key, ".mp4")
		}),
		body, int64(len(body)), "video/mp4",
	).Return("s3://videos/key.mp4", nil).Once()

	out, err := f.app.UploadVideo(context.Background(), uploadReq(body, "video/mp4"))
	require.NoError(t, err)
	f.storage.AssertExpectations(t)

	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, "Lecture.MP4", out.Filename)
	assert.Equal(t, "uploaded", out.Status)
	assert.Equal(t, "s3://videos/key.mp4", out.StorageURL)

	stored, err := f.repo.GetByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.CreatedBy())
	assert.Equal(t, 0, stored.ProcessingAttempts())
	require.Len(t, f.events.events, 1)
	assert.Equal(t, gateway.VideoEventUploaded, f.events.events[0].Type)
}

func TestUploadVideoRejectsDeclaredNonVideo(t *testing.T) {
	f := newFixture(t, stubTranscriber{})

	_, err := f.app.UploadVideo(context.Background(), uploadReq(mp4Header, "image/png"))
	assert.ErrorIs(t, err, errno.ErrNotVideo)
	f.storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadVideoRejectsSniffedNonVideo(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := f.app.UploadVideo(context.Background(), uploadReq(png, "video/mp4"))
	assert.ErrorIs(t, err, errno.ErrNotVideo)
}

func TestUploadVideoAcceptsUndetectedContent(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	body := []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff, 0x00, 0x9c}

	f.storage.On("Put", mock.Anything, mock.Anything, body, int64(len(body)), "video/x-custom").
		Return("s3://videos/raw", nil).Once()

	out, err := f.app.UploadVideo(context.Background(), uploadReq(body, "video/x-custom"))
	require.NoError(t, err)
	assert.Equal(t, "s3://videos/raw", out.StorageURL)
}

func TestUploadVideoSizeLimit(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	req := uploadReq(mp4Header, "video/mp4")
	req.Size = 2 << 20

	_, err := f.app.UploadVideo(context.Background(), req)
	assert.ErrorIs(t, err, errno.ErrFileSizeIllegal)
}

func TestUploadVideoStorageFailure(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable")).Once()

	_, err := f.app.UploadVideo(context.Background(), uploadReq(mp4Header, "video/mp4"))
	assert.ErrorIs(t, err, errno.ErrStorage)

	res, qerr := f.app.ListVideos(context.Background(), &cqe.ListVideosReq{})
	require.NoError(t, qerr)
	assert.Zero(t, res.Metadata.TotalCount)
}

func seedUploaded(t *testing.T, f *fixture) int64 {
	t.Helper()
	f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("s3://videos/a.mp4", nil).Once()
	out, err := f.app.UploadVideo(context.Background(), uploadReq(mp4Header, "video/mp4"))
	require.NoError(t, err)
	return out.ID
}

func TestTranscribeVideoReturnsResult(t *testing.T) {
	conf := 0.8
	f := newFixture(t, stubTranscriber{details: &vo.TranscriptionDetails{
		Segments: []vo.TranscriptionSegment{{Text: "hello world", Start: 0, End: 1.5, Confidence: &conf}},
	}})
	id := seedUploaded(t, f)
	f.storage.On("PresignedURL", mock.Anything, "s3://videos/a.mp4").Return("https://signed", nil)

	out, err := f.app.TranscribeVideo(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "completed", out.Status)
	require.NotNil(t, out.Transcription)
	assert.Equal(t, "hello world", *out.Transcription)
	require.NotNil(t, out.ProcessedTime)

	v, err := f.app.GetVideo(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, v.ErrorMessage)
	assert.Equal(t, 1, v.ProcessingAttempts)
	require.NotNil(t, v.TranscriptionConfidence)
	assert.InDelta(t, 0.8, *v.TranscriptionConfidence, 1e-9)
}

func TestTranscribeVideoFailureVisibleOnGet(t *testing.T) {
	f := newFixture(t, stubTranscriber{err: errors.New("model overloaded")})
	id := seedUploaded(t, f)
	f.storage.On("PresignedURL", mock.Anything, mock.Anything).Return("https://signed", nil)

	_, err := f.app.TranscribeVideo(context.Background(), id)
	assert.ErrorIs(t, err, errno.ErrTranscription)

	v, err := f.app.GetVideo(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "failed", v.Status)
	require.NotNil(t, v.ErrorMessage)
	assert.Equal(t, "model overloaded", *v.ErrorMessage)
}

func TestGetVideoUnknownID(t *testing.T) {
	f := newFixture(t, stubTranscriber{})

	_, err := f.app.GetVideo(context.Background(), 42)
	assert.ErrorIs(t, err, errno.ErrVideoNotFound)

	_, err = f.app.GetVideo(context.Background(), 0)
	assert.ErrorIs(t, err, errno.ErrVideoIDRequired)
}

func TestEnqueueVideo(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	id := seedUploaded(t, f)

	out, err := f.app.EnqueueVideo(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "queued", out.Status)
}

func TestListVideosValidatesQuery(t *testing.T) {
	f := newFixture(t, stubTranscriber{})

	_, err := f.app.ListVideos(context.Background(), &cqe.ListVideosReq{OrderBy: "size"})
	assert.ErrorIs(t, err, errno.ErrInvalidSortField)

	_, err = f.app.ListVideos(context.Background(), &cqe.ListVideosReq{Status: "archived"})
	assert.ErrorIs(t, err, errno.ErrInvalidStatus)

	_, err = f.app.ListVideos(context.Background(), &cqe.ListVideosReq{PageSize: "500"})
	assert.ErrorIs(t, err, errno.ErrValidation)
}

func TestListVideosMetadata(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	for i := 0; i < 3; i++ {
		seedUploaded(t, f)
	}

	out, err := f.app.ListVideos(context.Background(), &cqe.ListVideosReq{Page: "2", PageSize: "2"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(3), out.Metadata.TotalCount)
	assert.Equal(t, 2, out.Metadata.TotalPages)
	assert.False(t, out.Metadata.HasNext)
	assert.True(t, out.Metadata.HasPrevious)
}

func TestUpdateMediaMetadataAndFilter(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	first := seedUploaded(t, f)
	seedUploaded(t, f)

	d := 95.5
	_, err := f.app.UpdateMediaMetadata(context.Background(), first, &cqe.UpdateMediaMetadataReq{
		MediaMetadata: &vo.MediaMetadata{Duration: &d, Format: "mp4"},
	})
	require.NoError(t, err)

	out, err := f.app.ListVideos(context.Background(), &cqe.ListVideosReq{MinDuration: "60"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, first, out.Items[0].ID)

	neg := -1.0
	_, err = f.app.UpdateMediaMetadata(context.Background(), first, &cqe.UpdateMediaMetadataReq{
		MediaMetadata: &vo.MediaMetadata{Duration: &neg},
	})
	assert.ErrorIs(t, err, errno.ErrValidation)
}

func TestUpdateAnalysis(t *testing.T) {
	f := newFixture(t, stubTranscriber{})
	id := seedUploaded(t, f)
	summary := "a short lecture"

	out, err := f.app.UpdateAnalysis(context.Background(), id, &cqe.UpdateAnalysisReq{Summary: &summary})
	require.NoError(t, err)
	require.NotNil(t, out.Summary)
	assert.Equal(t, summary, *out.Summary)

	_, err = f.app.UpdateAnalysis(context.Background(), id, &cqe.UpdateAnalysisReq{})
	assert.ErrorIs(t, err, errno.ErrMissingParam)
}
