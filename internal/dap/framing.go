package dap

import (
	"bufio"
	"fmt"
	"io"
)

const contentLengthHeader = "Content-Length:"

// ReadFrame scans r for one `Content-Length: N\r\n\r\n<N bytes>` message and
// returns the N-byte body. Bytes preceding the header are discarded
// (§4.3 "permissive resynchronization") rather than treated as an error, so
// a peer that prefixes noise, or a previous frame's trailing garbage,
// doesn't wedge the connection — it matches the boundary scenario in §8.1:
// "garbage\r\nContent-Length: 2\r\n\r\n{}" yields the single message "{}".
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	if err := scanFor(r, contentLengthHeader); err != nil {
		return nil, err
	}
	if err := skipSpaceOrTab(r); err != nil {
		return nil, err
	}
	length, err := readDigits(r)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, fmt.Errorf("dap: frame with zero Content-Length")
	}
	if err := expect(r, "\r\n\r\n"); err != nil {
		return nil, err
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// scanFor discards bytes from r until the literal needle has been matched
// and consumed, or r returns an error.
func scanFor(r *bufio.Reader, needle string) error {
	matched := 0
	for matched < len(needle) {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b == needle[matched] {
			matched++
		} else {
			matched = 0
			if b == needle[0] {
				matched = 1
			}
		}
	}
	return nil
}

func skipSpaceOrTab(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' {
			return r.UnreadByte()
		}
	}
}

func readDigits(r *bufio.Reader) (int, error) {
	n := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b < '0' || b > '9' {
			return n, r.UnreadByte()
		}
		n = n*10 + int(b-'0')
	}
}

func expect(r *bufio.Reader, lit string) error {
	got := make([]byte, len(lit))
	if _, err := io.ReadFull(r, got); err != nil {
		return err
	}
	if string(got) != lit {
		return fmt.Errorf("dap: expected %q, got %q", lit, got)
	}
	return nil
}

// WriteFrame writes v, already JSON-encoded, as one Content-Length-prefixed
// message. Framing and body are written with a single Write where possible
// so interleaving bytes from a concurrent sender (see Session's send mutex)
// can't split a frame.
func WriteFrame(w io.Writer, body []byte) error {
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	full := make([]byte, 0, len(header)+len(body))
	full = append(full, header...)
	full = append(full, body...)
	_, err := w.Write(full)
	return err
}
