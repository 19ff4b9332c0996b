package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestFprintf(t *testing.T) {
	specs := []struct {
		descr  string
		format string
		args   []interface{}
		exp    string
	}{
		{"plain text", "the quick brown fox", nil, "the quick brown fox"},
		{"string verb", "hello %s", []interface{}{"world"}, "hello world"},
		{"byte slice verb", "%s", []interface{}{[]byte("bytes")}, "bytes"},
		{"decimal verb", "count: %d", []interface{}{42}, "count: 42"},
		{"negative decimal", "%d", []interface{}{-13}, "-13"},
		{"hex verb", "%x", []interface{}{uint64(0xbadf00d)}, "badf00d"},
		{"octal verb", "%o", []interface{}{8}, "10"},
		{"char verb", "%c%c", []interface{}{byte('h'), 'i'}, "hi"},
		{"bool verbs", "%t %t", []interface{}{true, false}, "true false"},
		{"escaped percent", "100%%", nil, "100%"},
		{"string padding", "[%8s]", []interface{}{"go"}, "[      go]"},
		{"decimal padding", "[%4d]", []interface{}{7}, "[   7]"},
		{"hex zero padding", "[%8x]", []interface{}{uint64(0xff)}, "[000000ff]"},
		{"uintptr arg", "%x", []interface{}{uintptr(0x1000)}, "1000"},
		{"missing arg", "%d", nil, "(MISSING)"},
		{"wrong arg type", "%d", []interface{}{"nan"}, "%!(WRONGTYPE)"},
		{"unknown verb", "%q", []interface{}{"x"}, "%!(NOVERB)"},
		{"trailing percent", "oops%", nil, "oops%!(NOVERB)"},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			var buf bytes.Buffer
			Fprintf(&buf, spec.format, spec.args...)

			if got := buf.String(); got != spec.exp {
				t.Fatalf("expected %q; got %q", spec.exp, got)
			}
		})
	}
}

func TestFprintfIntWidths(t *testing.T) {
	var buf bytes.Buffer
	Fprintf(&buf, "%d %d %d %d %d",
		int8(-8), int16(16), int32(-32), int64(64), uint32(32),
	)

	if exp, got := "-8 16 -32 64 32", buf.String(); got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}

func TestEarlyPrintBuffer(t *testing.T) {
	defer func() {
		SetOutputSink(nil)
		earlyPrintBuffer = ringBuffer{}
	}()

	SetOutputSink(nil)
	earlyPrintBuffer = ringBuffer{}

	// With no sink registered the output lands in the early buffer and
	// gets drained the moment a sink appears.
	Printf("early %d\n", 1)
	Printf("early %d\n", 2)

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "early 1\nearly 2\n", buf.String(); got != exp {
		t.Fatalf("expected the early output to be drained; got %q", got)
	}

	Printf("late")
	if exp, got := "early 1\nearly 2\nlate", buf.String(); got != exp {
		t.Fatalf("expected direct output after sink registration; got %q", got)
	}

	if GetOutputSink() != &buf {
		t.Fatal("expected GetOutputSink to return the registered sink")
	}
}

func TestGetOutputSinkFallback(t *testing.T) {
	defer func() {
		SetOutputSink(nil)
		earlyPrintBuffer = ringBuffer{}
	}()

	SetOutputSink(nil)
	earlyPrintBuffer = ringBuffer{}

	// With no console registered the sink falls back to the early print
	// buffer so boot-time writers always have a destination.
	sink := GetOutputSink()
	if sink != io.Writer(&earlyPrintBuffer) {
		t.Fatal("expected the early print buffer as the fallback sink")
	}

	Fprintf(sink, "buffered %d", 7)

	// Handing the fallback sink back must not wedge the buffer on itself.
	SetOutputSink(GetOutputSink())
	if outputSink != nil {
		t.Fatal("expected re-registering the fallback sink to leave no sink registered")
	}

	var buf bytes.Buffer
	SetOutputSink(&buf)
	if got := buf.String(); got != "buffered 7" {
		t.Fatalf("expected writes to the fallback sink to drain into the console; got %q", got)
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	var rb ringBuffer

	// Overfill the buffer by 16 bytes; the oldest bytes must be the ones
	// lost.
	payload := make([]byte, ringBufferSize+16)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	if _, err := rb.Write(payload); err != nil {
		t.Fatal(err)
	}

	got := make([]byte, ringBufferSize)
	n, err := rb.Read(got)
	if err != nil {
		t.Fatal(err)
	}

	if n != ringBufferSize {
		t.Fatalf("expected to read a full buffer; got %d bytes", n)
	}
	for i := 0; i < n; i++ {
		if exp := payload[16+i]; got[i] != exp {
			t.Fatalf("expected byte %d to be %x; got %x", i, exp, got[i])
		}
	}

	if _, err = rb.Read(got); err == nil {
		t.Fatal("expected reading a drained buffer to fail")
	}
}
