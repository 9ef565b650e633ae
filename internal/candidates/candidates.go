// Package candidates generates fixed-width numeric candidate values for
// exhaustive matching, either in plain ascending order or with
// commonly-chosen values front-loaded.
package candidates

import (
	"fmt"
)

// Width bounds for candidate generation.
const (
	MinWidth = 1
	MaxWidth = 8
)

func validateWidth(width int) error {
	if width < MinWidth || width > MaxWidth {
		return fmt.Errorf("width must be between %d and %d, got %d", MinWidth, MaxWidth, width)
	}
	return nil
}

// Total returns how many candidates exist for the given width.
func Total(width int) (int, error) {
	if err := validateWidth(width); err != nil {
		return 0, err
	}
	total := 1
	for i := 0; i < width; i++ {
		total *= 10
	}
	return total, nil
}

func format(width, value int) string {
	return fmt.Sprintf("%0*d", width, value)
}

// All returns every zero-padded numeric string of the given width in
// ascending order. For large widths prefer Chunks to avoid holding the
// whole space in memory.
func All(width int) ([]string, error) {
	total, err := Total(width)
	if err != nil {
		return nil, err
	}
	out := make([]string, total)
	for i := 0; i < total; i++ {
		out[i] = format(width, i)
	}
	return out, nil
}

// Range returns the candidates from start to end inclusive, as zero-padded
// strings of the given width.
func Range(width, start, end int) ([]string, error) {
	total, err := Total(width)
	if err != nil {
		return nil, err
	}
	if start < 0 || end >= total || start > end {
		return nil, fmt.Errorf("range [%d, %d] out of bounds for width %d", start, end, width)
	}
	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, format(width, i))
	}
	return out, nil
}

// LikelyFirst returns the full candidate space with commonly-chosen values
// front-loaded: repeated digits, ascending and descending digit runs,
// alternating digit pairs for even widths, and calendar years for width 4.
// The remainder follows in ascending order. No candidate appears twice.
func LikelyFirst(width int) ([]string, error) {
	total, err := Total(width)
	if err != nil {
		return nil, err
	}

	likely := likelyCandidates(width)
	out := make([]string, 0, total)
	seen := make(map[string]struct{}, len(likely))
	for _, c := range likely {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for i := 0; i < total; i++ {
		c := format(width, i)
		if _, dup := seen[c]; dup {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func likelyCandidates(width int) []string {
	var likely []string

	// Repeated digits: 0000, 1111, ...
	for d := 0; d <= 9; d++ {
		likely = append(likely, repeatDigit(d, width))
	}

	// Ascending runs: 0123, 1234, ...
	for start := 0; start+width <= 10; start++ {
		likely = append(likely, digitRun(start, width, 1))
	}

	// Descending runs: 9876, 8765, ...
	for start := 9; start-width >= -1; start-- {
		likely = append(likely, digitRun(start, width, -1))
	}

	// Alternating pairs for even widths: 0101, 1212, ...
	if width%2 == 0 {
		for d := 0; d <= 9; d++ {
			likely = append(likely, alternating(d, (d+1)%10, width))
		}
	}

	// Calendar years read naturally as four digits.
	if width == 4 {
		for year := 1980; year <= 2024; year++ {
			likely = append(likely, format(width, year))
		}
	}

	return likely
}

func repeatDigit(d, width int) string {
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = byte('0' + d)
	}
	return string(buf)
}

func digitRun(start, width, step int) string {
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = byte('0' + start + i*step)
	}
	return string(buf)
}

func alternating(a, b, width int) string {
	buf := make([]byte, width)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = byte('0' + a)
		} else {
			buf[i] = byte('0' + b)
		}
	}
	return string(buf)
}

// Chunker walks the candidate space in fixed-size batches without
// materializing it.
type Chunker struct {
	width int
	size  int
	next  int
	total int
}

// Chunks returns a Chunker over the full ascending candidate space for the
// given width, yielding at most size candidates per batch.
func Chunks(width, size int) (*Chunker, error) {
	total, err := Total(width)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	return &Chunker{width: width, size: size, total: total}, nil
}

// Next returns the next batch. The second return is false once the space
// is exhausted.
func (c *Chunker) Next() ([]string, bool) {
	if c.next >= c.total {
		return nil, false
	}
	end := c.next + c.size
	if end > c.total {
		end = c.total
	}
	batch := make([]string, 0, end-c.next)
	for i := c.next; i < end; i++ {
		batch = append(batch, format(c.width, i))
	}
	c.next = end
	return batch, true
}

// Remaining reports how many candidates have not been yielded yet.
func (c *Chunker) Remaining() int {
	return c.total - c.next
}
