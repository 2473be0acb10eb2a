package log

// LiveBuffer holds the most recent console lines for in-process display.
// It is owned by the dispatcher's designated goroutine and is not safe for
// concurrent use.
type LiveBuffer struct {
	lines []string
	max   int
}

// NewLiveBuffer creates a buffer keeping at most max lines. A max of zero
// or less keeps everything.
func NewLiveBuffer(max int) *LiveBuffer {
	return &LiveBuffer{max: max}
}

func (b *LiveBuffer) Append(line string) {
	b.lines = append(b.lines, line)
	if b.max > 0 && len(b.lines) > b.max {
		b.lines = append(b.lines[:0], b.lines[len(b.lines)-b.max:]...)
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *LiveBuffer) Lines() []string {
	return append([]string{}, b.lines...)
}

func (b *LiveBuffer) Len() int {
	return len(b.lines)
}

// Text returns the buffer joined with stripped color markup.
func (b *LiveBuffer) Text() string {
	out := make([]byte, 0, 64*len(b.lines))
	for _, line := range b.lines {
		out = append(out, stripANSI([]byte(line))...)
		out = append(out, '\n')
	}
	return string(out)
}

func (b *LiveBuffer) Clear() {
	b.lines = nil
}
