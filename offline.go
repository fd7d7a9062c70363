package neonbeat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intaudio "github.com/cbegin/neonbeat-go/internal/audio"
	"github.com/cbegin/neonbeat-go/internal/config"
	"github.com/cbegin/neonbeat-go/internal/transport"
)

// captureBackend hands the engine's sample source back to the caller
// instead of opening a device.
type captureBackend struct {
	src intaudio.SampleSource
}

func (b *captureBackend) Open(_ int, src intaudio.SampleSource) (intaudio.Output, error) {
	b.src = src
	return &offlineOutput{}, nil
}

type offlineOutput struct{ playing bool }

func (o *offlineOutput) Play()           { o.playing = true }
func (o *offlineOutput) Pause()          { o.playing = false }
func (o *offlineOutput) IsPlaying() bool { return o.playing }
func (o *offlineOutput) Close() error    { return nil }

// RenderSamples runs the sequencer for the given number of seconds without
// an audio device and returns interleaved stereo samples. The scheduler is
// driven by manual timers in poll-interval blocks, so the output is
// deterministic for a given configuration.
func RenderSamples(cfg config.Config, seconds float64, opts ...Option) ([]float32, error) {
	if seconds < 0 {
		return nil, errors.New("seconds must not be negative")
	}
	timers := transport.NewManualTimers()
	backend := &captureBackend{}
	opts = append([]Option{WithConfig(cfg)}, opts...)
	opts = append(opts, WithBackend(backend), WithTimers(timers))
	e, err := NewEngine(opts...)
	if err != nil {
		return nil, err
	}
	defer e.Dispose()
	e.Start()
	if backend.src == nil {
		return nil, errors.New("offline engine did not initialize")
	}

	sr := e.cfg.SampleRate
	total := int(float64(sr) * seconds)
	block := max(int(math.Round(e.cfg.PollInterval().Seconds()*float64(sr))), 1)
	out := make([]float32, total*2)
	for off := 0; off < total; off += block {
		n := min(block, total-off)
		backend.src.Process(out[off*2 : (off+n)*2])
		timers.Advance(time.Duration(n) * time.Second / time.Duration(sr))
	}
	return out, nil
}

// EncodeWAVFloat32LE wraps interleaved float32 samples in a 32-bit float
// WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	out := make([]byte, 0, 44+dataSize)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+dataSize))
	out = append(out, "WAVEfmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 3) // IEEE float
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate*channels*4))
	out = binary.LittleEndian.AppendUint16(out, uint16(channels*4))
	out = binary.LittleEndian.AppendUint16(out, 32)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(s))
	}
	return out
}

// WriteWAV16 writes interleaved samples as 16-bit PCM, clipping to [-1, 1].
func WriteWAV16(w io.WriteSeeker, samples []float32, sampleRate int, channels int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(math.Round(float64(min(max(s, -1), 1)) * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}
