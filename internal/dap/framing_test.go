package dap

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestReadFrameBasic(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 2\r\n\r\n{}"))
	body, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(body) != "{}" {
		t.Errorf("body = %q", body)
	}
}

func TestReadFrameResynchronizesPastGarbage(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("garbage\r\nContent-Length: 2\r\n\r\n{}"))
	body, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(body) != "{}" {
		t.Errorf("body = %q", body)
	}
}

func TestReadFrameReadsSuccessiveMessages(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(
		"Content-Length: 2\r\n\r\n{}" +
			"Content-Length: 7\r\n\r\n{\"a\":1}",
	))
	first, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("first ReadFrame: %v", err)
	}
	if string(first) != "{}" {
		t.Fatalf("first = %q", first)
	}
	second, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("second ReadFrame: %v", err)
	}
	if string(second) != `{"a":1}` {
		t.Fatalf("second = %q", second)
	}
}

func TestReadFrameZeroLengthIsError(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 0\r\n\r\n"))
	if _, err := ReadFrame(r); err == nil {
		t.Fatal("want error for zero Content-Length, got nil")
	}
}

func TestReadFrameTruncatedBodyIsError(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 10\r\n\r\n{}"))
	if _, err := ReadFrame(r); err == nil {
		t.Fatal("want error for truncated body, got nil")
	}
}

func TestWriteFrameThenReadFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte(`{"seq":1}`)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	body, err := ReadFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(body) != `{"seq":1}` {
		t.Errorf("body = %q", body)
	}
}
