// Package mixer sums scheduled voices into an interleaved stereo stream and
// owns the audio clock. Voices are queued with an absolute start time and
// begin on the exact frame that time maps to, independent of when the
// scheduler happened to hand them over.
package mixer

import (
	"container/heap"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/neonbeat-go/internal/effects"
)

// Voice is a mono signal with a fixed start time that ends on its own.
type Voice interface {
	Start() float64
	Next() float32
	Done() bool
}

// Options configures the master section.
type Options struct {
	MasterGain float64
	Limiter    *effects.LimiterParams // nil disables the limiter
	Effects    *effects.Chain         // applied after the limiter
	EQ         *effects.EQ5Band       // applied last; nil creates a flat EQ
	// Tap receives every rendered block. It runs on the audio goroutine.
	Tap func([]float32)
}

type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	pending    queue
	active     []Voice
	seq        uint64

	limiter *effects.Limiter
	chain   *effects.Chain
	eq      *effects.EQ5Band
	tap     func([]float32)

	frame    atomic.Int64
	gainBits atomic.Uint64
	muted    atomic.Bool
}

func New(sampleRate int, opts Options) *Mixer {
	m := &Mixer{
		sampleRate: sampleRate,
		chain:      opts.Effects,
		eq:         opts.EQ,
		tap:        opts.Tap,
	}
	if opts.Limiter != nil {
		m.limiter = effects.NewLimiter(sampleRate, *opts.Limiter)
	}
	if m.eq == nil {
		m.eq = effects.NewEQ5Band(sampleRate)
	}
	m.SetMasterGain(opts.MasterGain)
	return m
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Now returns the audio clock: seconds of audio rendered so far.
func (m *Mixer) Now() float64 {
	return float64(m.frame.Load()) / float64(m.sampleRate)
}

// Frame returns the number of frames rendered so far.
func (m *Mixer) Frame() int64 { return m.frame.Load() }

// EQ returns the master EQ. Its band gains may be changed while rendering.
func (m *Mixer) EQ() *effects.EQ5Band { return m.eq }

func (m *Mixer) SetMasterGain(g float64) {
	m.gainBits.Store(math.Float64bits(max(g, 0)))
}

func (m *Mixer) MasterGain() float64 {
	return math.Float64frombits(m.gainBits.Load())
}

// SetMuted silences the output. Voices and the clock keep running.
func (m *Mixer) SetMuted(muted bool) { m.muted.Store(muted) }

func (m *Mixer) Muted() bool { return m.muted.Load() }

// Schedule queues voices to start at their own Start time. A voice whose
// start is already in the past begins on the next rendered frame.
func (m *Mixer) Schedule(vs ...Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vs {
		if v == nil {
			continue
		}
		m.seq++
		heap.Push(&m.pending, &entry{
			frame: int64(math.Round(v.Start() * float64(m.sampleRate))),
			seq:   m.seq,
			voice: v,
		})
	}
}

// ActiveVoices returns the number of voices currently sounding.
func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// PendingVoices returns the number of voices waiting for their start frame.
func (m *Mixer) PendingVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Len()
}

// Clear drops every pending and active voice and resets the master effects.
func (m *Mixer) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = m.pending[:0]
	clear(m.active)
	m.active = m.active[:0]
	if m.limiter != nil {
		m.limiter.Reset()
	}
	if m.chain != nil {
		m.chain.Reset()
	}
	m.eq.Reset()
}

// Process renders len(dst)/2 interleaved stereo frames.
func (m *Mixer) Process(dst []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(dst) / 2
	base := m.frame.Load()
	gain := float32(m.MasterGain())
	muted := m.muted.Load()
	eq := !m.eq.Flat()
	for i := 0; i < frames; i++ {
		now := base + int64(i)
		for m.pending.Len() > 0 && m.pending[0].frame <= now {
			e := heap.Pop(&m.pending).(*entry)
			m.active = append(m.active, e.voice)
		}
		var sum float32
		for _, v := range m.active {
			sum += v.Next()
		}
		l, r := sum*gain, sum*gain
		if m.limiter != nil {
			l, r = m.limiter.Process(l, r)
		}
		if m.chain != nil {
			l, r = m.chain.Process(l, r)
		}
		if eq {
			l, r = m.eq.Process(l, r)
		}
		if muted {
			l, r = 0, 0
		}
		dst[i*2] = l
		dst[i*2+1] = r
	}
	if len(dst)%2 == 1 {
		dst[len(dst)-1] = 0
	}
	m.active = compact(m.active)
	m.frame.Add(int64(frames))

	if m.tap != nil {
		m.tap(dst)
	}
}

// compact removes finished voices in place.
func compact(vs []Voice) []Voice {
	n := 0
	for _, v := range vs {
		if !v.Done() {
			vs[n] = v
			n++
		}
	}
	clear(vs[n:])
	return vs[:n]
}

type entry struct {
	frame int64
	seq   uint64
	voice Voice
}

// queue is a start-frame ordered heap; equal frames keep insertion order.
type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].frame != q[j].frame {
		return q[i].frame < q[j].frame
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
