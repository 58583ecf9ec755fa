package stream

import (
	"bytes"
	"strings"
)

// The wire format is text/event-stream: blocks separated by a blank line,
// each meaningful line carrying the "data: " prefix. splitBlocks is a
// bufio.SplitFunc so framing stays invariant to where chunk boundaries
// fall in the byte stream.
func splitBlocks(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	lf := bytes.Index(data, []byte("\n\n"))

	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf + 4, data[:crlf], nil
	case lf >= 0:
		return lf + 2, data[:lf], nil
	}

	if atEOF {
		// Trailing block without a final delimiter; the server normally
		// terminates every block but we stay tolerant on close.
		return len(data), data, nil
	}

	return 0, nil, nil
}

const dataPrefix = "data: "

// extractPayload strips the data prefix from a raw block. Blocks with no
// data line (comments, bare event lines, keepalive colons) yield ok=false
// and are discarded. Multi-line data blocks are joined per the SSE spec.
func extractPayload(block string) (payload string, ok bool) {
	var parts []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, dataPrefix) {
			parts = append(parts, strings.TrimPrefix(line, dataPrefix))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}
