package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	response string
	err      error
	audio    []byte
	mimeType string
}

func (f *fakeGenerator) GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	f.audio = audio
	f.mimeType = mimeType
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestTranscribe(t *testing.T) {
	llm := &fakeGenerator{response: "  На вулиці Лева велика яма\n"}
	tr := NewTranscriber(llm, zap.NewNop())

	result, err := tr.Transcribe(context.Background(), []byte("audio-bytes"), "audio/mpeg", "скарга.mp3")
	require.NoError(t, err)

	assert.Equal(t, "На вулиці Лева велика яма", result.Text)
	assert.Equal(t, "скарга.mp3", result.Filename)
	assert.Equal(t, []byte("audio-bytes"), llm.audio)
	assert.Equal(t, "audio/mpeg", llm.mimeType)
}

func TestTranscribeNormalizesMIMEType(t *testing.T) {
	llm := &fakeGenerator{response: "текст"}
	tr := NewTranscriber(llm, zap.NewNop())

	_, err := tr.Transcribe(context.Background(), []byte("x"), "Audio/WebM; codecs=opus", "note.webm")
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", llm.mimeType)
}

func TestTranscribeSanitizesFilename(t *testing.T) {
	llm := &fakeGenerator{response: "текст"}
	tr := NewTranscriber(llm, zap.NewNop())

	result, err := tr.Transcribe(context.Background(), []byte("x"), "audio/ogg", "../../etc/passwd")
	require.NoError(t, err)
	assert.NotContains(t, result.Filename, "..")
	assert.NotContains(t, result.Filename, "/")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	tr := NewTranscriber(&fakeGenerator{}, zap.NewNop())
	_, err := tr.Transcribe(context.Background(), nil, "audio/mpeg", "a.mp3")
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestTranscribeTooLarge(t *testing.T) {
	tr := NewTranscriber(&fakeGenerator{}, zap.NewNop())
	_, err := tr.Transcribe(context.Background(), make([]byte, MaxAudioSize+1), "audio/mpeg", "a.mp3")
	assert.ErrorIs(t, err, ErrAudioTooLarge)
}

func TestTranscribeUnsupportedFormat(t *testing.T) {
	tr := NewTranscriber(&fakeGenerator{}, zap.NewNop())
	_, err := tr.Transcribe(context.Background(), []byte("x"), "video/avi", "a.avi")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTranscribeUnintelligibleAudio(t *testing.T) {
	// The prompt instructs the model to answer with nothing when the
	// recording cannot be made out; that is a valid empty transcription,
	// not an error.
	llm := &fakeGenerator{response: ""}
	tr := NewTranscriber(llm, zap.NewNop())

	result, err := tr.Transcribe(context.Background(), []byte("noise"), "audio/mpeg", "шум.mp3")
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Equal(t, "шум.mp3", result.Filename)
}

func TestTranscribeGeneratorError(t *testing.T) {
	tr := NewTranscriber(&fakeGenerator{err: errors.New("model unavailable")}, zap.NewNop())
	_, err := tr.Transcribe(context.Background(), []byte("x"), "audio/mpeg", "a.mp3")
	assert.Error(t, err)
}

func TestSupportedMIMEType(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"audio/mpeg", true},
		{"audio/mp3", true},
		{"audio/wav", true},
		{"audio/webm; codecs=opus", true},
		{"AUDIO/OGG", true},
		{"audio/x-m4a", true},
		{"audio/flac", false},
		{"video/mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SupportedMIMEType(tt.mime), tt.mime)
	}
}
