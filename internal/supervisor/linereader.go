package supervisor

import (
	"bufio"
	"io"
	"strings"
)

// readerBufferBytes is the bufio.Reader's own internal chunk size. It
// is independent of maxLineBytes: growing a pathologically long line
// must never make the reader itself fail, only make streamLines
// truncate what it forwards, so this stays fixed regardless of the
// configured line-length cap.
const readerBufferBytes = 64 * 1024

// streamLines reads r line by line, forwarding each complete line as an
// event of the given kind as soon as it completes (never buffering the
// whole stream), and truncating any line longer than maxLineBytes with
// a `warning` event annotating the truncation (§4.2). A single line
// with no intervening newline, however long, is still fully drained
// from r — only the forwarded payload is capped — so one pathological
// line never silently ends the stream for the rest of the process's
// life.
func streamLines(r io.Reader, maxLineBytes int, kind string, emit EmitFunc) {
	reader := bufio.NewReaderSize(r, readerBufferBytes)
	var line []byte
	overflow := false

	for {
		chunk, err := reader.ReadSlice('\n')

		if len(chunk) > 0 && !overflow {
			room := maxLineBytes - len(line)
			if room > 0 {
				take := len(chunk)
				if take > room {
					take = room
				}
				line = append(line, chunk[:take]...)
			}
			if len(line) >= maxLineBytes {
				overflow = true
			}
		}

		// ErrBufferFull means reader.ReadSlice hit its internal buffer
		// without finding '\n' yet; the line just continues into the
		// next chunk rather than having ended, so keep reading instead
		// of treating this as a terminal error.
		if err == bufio.ErrBufferFull {
			continue
		}

		if err == nil || len(line) > 0 {
			text := strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r")
			emit(kind, text)
			if overflow {
				emit(string(kindWarning), "line truncated: exceeded maximum line length")
			}
		}

		if err != nil {
			return
		}
		line = line[:0]
		overflow = false
	}
}

const kindWarning progressKind = "warning"
