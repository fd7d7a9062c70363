package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// Output is an opened playback stream.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Backend opens a stream that pulls from a SampleSource.
type Backend interface {
	Open(sampleRate int, src SampleSource) (Output, error)
}

// StreamReader adapts a SampleSource to the little-endian float32 byte
// stream ebiten's F32 players read.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

// Ebiten plays through the process-wide ebiten audio context.
type Ebiten struct{}

var (
	contextOnce       sync.Once
	context           *ebitaudio.Context
	contextSampleRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextSampleRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextSampleRate, sampleRate)
	}
	return context, nil
}

func (Ebiten) Open(sampleRate int, src SampleSource) (Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(src)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("open ebiten player: %w", err)
	}
	return &ebitenOutput{player: pl, reader: reader}, nil
}

type ebitenOutput struct {
	player *ebitaudio.Player
	reader *StreamReader
}

func (o *ebitenOutput) Play()           { o.player.Play() }
func (o *ebitenOutput) Pause()          { o.player.Pause() }
func (o *ebitenOutput) IsPlaying() bool { return o.player.IsPlaying() }

func (o *ebitenOutput) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return err
	}
	return o.reader.Close()
}
