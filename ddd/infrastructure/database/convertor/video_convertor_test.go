package convertor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/vo"
	"transcription-service/ddd/infrastructure/database/po"
	"transcription-service/pkg/errno"
)

func TestToPOAndBack(t *testing.T) {
	now := time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC)
	d := 42.0
	v := entity.NewVideo("", "videos/x.mp4", "video/mp4", "user-1", now)
	require.NoError(t, v.SetMediaMetadata(&vo.MediaMetadata{Duration: &d, Format: "mp4"}, now))

	c := NewVideoConvertor()
	row := c.ToPO(v)
	assert.Nil(t, row.Filename, "empty filename is stored as NULL")
	require.NotNil(t, row.CreatedBy)
	assert.Equal(t, "user-1", *row.CreatedBy)
	require.NotNil(t, row.MediaMetadata)
	assert.Nil(t, row.TranscriptionDetails)
	assert.Equal(t, "uploaded", row.Status)

	back, err := c.ToEntity(row)
	require.NoError(t, err)
	dur, ok := back.MediaMetadata().DurationSeconds()
	assert.True(t, ok)
	assert.Equal(t, 42.0, dur)
	assert.Equal(t, "user-1", back.CreatedBy())
	assert.Empty(t, back.Filename())
}

func TestToEntityRejectsUnknownStatus(t *testing.T) {
	_, err := NewVideoConvertor().ToEntity(&po.VideoPO{ID: 1, Status: "deleted"})
	assert.True(t, errors.Is(err, errno.ErrCorruptRecord))
}
