// SPDX-License-Identifier: MIT
package analysis

// ExtractPeaks scans the interior of frame for strict local maxima above
// threshold. The first peak found is reported with amplitude 1 and fixes
// the scale applied to every later peak.
func ExtractPeaks(frame []float64, threshold float64) []Peak {
	var (
		peaks []Peak
		scale = 1.0
	)
	for i := 1; i < len(frame)-1; i++ {
		v := frame[i]
		if v <= threshold || v <= frame[i-1] || v <= frame[i+1] {
			continue
		}
		if len(peaks) == 0 {
			scale = 1 / v
			peaks = append(peaks, Peak{Bin: float64(i), Amplitude: 1})
			continue
		}
		peaks = append(peaks, Peak{Bin: float64(i), Amplitude: v * scale})
	}
	return peaks
}

// AveragePeaks returns the positional mean of equally sized peak vectors.
// entries must not be empty.
func AveragePeaks(entries [][]Peak) []Peak {
	out := append([]Peak(nil), entries[0]...)
	for _, e := range entries[1:] {
		for j := range out {
			out[j].Bin += e[j].Bin
			out[j].Amplitude += e[j].Amplitude
		}
	}
	div := 1 / float64(len(entries))
	for j := range out {
		out[j].Bin *= div
		out[j].Amplitude *= div
	}
	return out
}

// History is a bounded, newest-first record of recent values. Once full,
// each push evicts the oldest entry.
type History[T any] struct {
	items    []T
	capacity int
}

// NewHistory returns a History holding at most capacity entries, seeded
// with fill (newest first). Extra fill values beyond capacity are ignored.
func NewHistory[T any](capacity int, fill ...T) *History[T] {
	h := &History[T]{items: make([]T, 0, capacity), capacity: capacity}
	for i := min(len(fill), capacity) - 1; i >= 0; i-- {
		h.Push(fill[i])
	}
	return h
}

// Push records v as the newest entry.
func (h *History[T]) Push(v T) {
	if h.capacity <= 0 {
		return
	}
	if len(h.items) < h.capacity {
		var zero T
		h.items = append(h.items, zero)
	}
	copy(h.items[1:], h.items[:len(h.items)-1])
	h.items[0] = v
}

// Front returns the newest entry.
func (h *History[T]) Front() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Len returns the number of entries held.
func (h *History[T]) Len() int { return len(h.items) }

// Cap returns the maximum number of entries.
func (h *History[T]) Cap() int { return h.capacity }

// Items returns the entries newest first. The slice is only valid until
// the next Push.
func (h *History[T]) Items() []T { return h.items }

// PeakHistory keeps separate histories for 3-peak and 4-peak frames.
// Averaging by position is only meaningful across frames with the same
// number of peaks, so the two never mix.
type PeakHistory struct {
	three *History[[]Peak]
	four  *History[[]Peak]
}

// NewPeakHistory returns empty histories of the given capacity.
func NewPeakHistory(capacity int) *PeakHistory {
	return &PeakHistory{
		three: NewHistory[[]Peak](capacity),
		four:  NewHistory[[]Peak](capacity),
	}
}

// Observe records peaks in the history matching their arity and returns
// the average over that history. Frames with other than 3 or 4 peaks are
// rejected and leave both histories untouched.
func (p *PeakHistory) Observe(peaks []Peak) ([]Peak, bool) {
	h := p.history(len(peaks))
	if h == nil {
		return nil, false
	}
	h.Push(append([]Peak(nil), peaks...))
	return AveragePeaks(h.Items()), true
}

// Len returns the number of entries held for the given arity.
func (p *PeakHistory) Len(arity int) int {
	if h := p.history(arity); h != nil {
		return h.Len()
	}
	return 0
}

func (p *PeakHistory) history(arity int) *History[[]Peak] {
	switch arity {
	case 3:
		return p.three
	case 4:
		return p.four
	default:
		return nil
	}
}
