// Package voice transcribes spoken complaints to text.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/sanitize"
)

// MaxAudioSize caps uploads at 10 MiB, roughly ten minutes of
// compressed speech.
const MaxAudioSize = 10 << 20

var (
	// ErrEmptyAudio indicates an empty upload.
	ErrEmptyAudio = errors.New("audio payload is empty")

	// ErrAudioTooLarge indicates an upload over MaxAudioSize.
	ErrAudioTooLarge = errors.New("audio payload exceeds size limit")

	// ErrUnsupportedFormat indicates a MIME type outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// supportedMIMETypes are the formats the transcription model accepts.
var supportedMIMETypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/webm":  true,
	"audio/ogg":   true,
	"audio/m4a":   true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
}

const transcribePrompt = `Розшифруй цей аудіозапис звернення мешканця до міських служб.
Запис українською мовою. Передай сказане дослівно, без коментарів і приміток.
Якщо запис нерозбірливий, поверни порожню відповідь.`

// Generator is the multimodal surface the transcriber needs.
type Generator interface {
	GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)
}

// Transcription is the result of a transcribed upload.
type Transcription struct {
	// Text is the transcribed complaint.
	Text string `json:"text"`

	// Filename is the sanitized upload name.
	Filename string `json:"filename,omitempty"`
}

// Transcriber turns audio complaints into text via a multimodal model.
type Transcriber struct {
	llm    Generator
	logger *zap.Logger
}

// NewTranscriber creates a transcriber.
func NewTranscriber(llm Generator, logger *zap.Logger) *Transcriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcriber{llm: llm, logger: logger}
}

// SupportedMIMEType reports whether the format is accepted. Parameters
// such as "; codecs=opus" are ignored.
func SupportedMIMEType(mimeType string) bool {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	return supportedMIMETypes[base]
}

// Transcribe converts an audio upload to complaint text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType, filename string) (*Transcription, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if len(audio) > MaxAudioSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAudioTooLarge, len(audio))
	}
	if !SupportedMIMEType(mimeType) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mimeType)
	}

	safeName := sanitize.Filename(filename)

	text, err := t.llm.GenerateWithAudio(ctx, transcribePrompt, audio, normalizeMIMEType(mimeType))
	if err != nil {
		return nil, fmt.Errorf("transcribing audio: %w", err)
	}

	text = strings.TrimSpace(text)
	t.logger.Debug("audio transcribed",
		zap.String("filename", safeName),
		zap.Int("audio_bytes", len(audio)),
		zap.Int("text_runes", len([]rune(text))),
	)

	return &Transcription{Text: text, Filename: safeName}, nil
}

func normalizeMIMEType(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	return base
}
