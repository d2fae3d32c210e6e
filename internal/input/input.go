package input

import (
	"bufio"
)

// symbolKeys maps play keys to symbol slots: 1..9 then 0, -, =.
const symbolKeys = "1234567890-="

// Input represents the keys pressed since the previous frame.
type Input struct {
	Quit   bool
	Enter  bool
	Space  bool
	Menu   bool
	Escape bool
	// Number is the last digit pressed this frame, or -1.
	Number int
	// Symbols holds the symbol slots selected this frame, in press order.
	Symbols []int
	Pressed []byte
	// Closed reports that the underlying reader has ended.
	Closed bool
}

// Any reports whether any byte arrived this frame.
func (in Input) Any() bool {
	return len(in.Pressed) > 0
}

// Continue reports whether the player asked to advance past a screen.
func (in Input) Continue() bool {
	return in.Enter || in.Space
}

// Stream delivers input bytes via a channel.
type Stream struct {
	ch     chan byte
	closed bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream without blocking.
// Every key is reported once, on the frame it arrived.
func ReadInput(s *Stream) Input {
	var buf []byte

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := Parse(buf)
	in.Closed = s.closed
	return in
}

// Parse decodes a batch of raw terminal bytes.
func Parse(buf []byte) Input {
	in := Input{Number: -1, Pressed: buf}
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// Arrow keys and other CSI sequences carry no meaning here.
		if b == '\x1b' && i+1 < len(buf) && buf[i+1] == '[' {
			i = skipCSI(buf, i+2)
			continue
		}

		switch b {
		case 'q', 'Q', 0x03:
			in.Quit = true
		case 'm', 'M':
			in.Menu = true
		case ' ':
			in.Space = true
		case '\n', '\r':
			in.Enter = true
		case '\x1b':
			in.Escape = true
		}
		if b >= '0' && b <= '9' {
			in.Number = int(b - '0')
		}
		if slot := SymbolSlot(b); slot >= 0 {
			in.Symbols = append(in.Symbols, slot)
		}
	}
	return in
}

// skipCSI returns the index of the final byte of the CSI sequence whose
// parameters start at i: parameter bytes 0x30-0x3F, then intermediate bytes
// 0x20-0x2F, then one final byte 0x40-0x7E. A truncated sequence consumes
// the rest of buf.
func skipCSI(buf []byte, i int) int {
	for i < len(buf) && buf[i] >= 0x30 && buf[i] <= 0x3f {
		i++
	}
	for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x2f {
		i++
	}
	if i < len(buf) && buf[i] >= 0x40 && buf[i] <= 0x7e {
		return i
	}
	return len(buf) - 1
}

// SymbolSlot returns the 0-based symbol slot bound to b, or -1.
func SymbolSlot(b byte) int {
	for i := 0; i < len(symbolKeys); i++ {
		if symbolKeys[i] == b {
			return i
		}
	}
	return -1
}

// SymbolKey returns the key label for a 0-based symbol slot.
func SymbolKey(slot int) string {
	if slot < 0 || slot >= len(symbolKeys) {
		return "?"
	}
	return string(symbolKeys[slot])
}
