package kfmt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"rvos/kernel"
)

func TestPanic(t *testing.T) {
	defer func(origFn func()) { cpuHaltFn = origFn }(cpuHaltFn)
	defer SetOutputSink(nil)

	var halted bool
	cpuHaltFn = func() { halted = true }

	specs := []struct {
		descr string
		input interface{}
		exp   string
	}{
		{"kernel error", &kernel.Error{Module: "mm", Message: "out of frames"}, "[mm] unrecoverable error: out of frames"},
		{"string cause", "something broke", "[rt] unrecoverable error: something broke"},
		{"go error", errors.New("bad state"), "[rt] unrecoverable error: bad state"},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutputSink(&buf)
			halted = false

			Panic(spec.input)

			if !halted {
				t.Fatal("expected Panic to halt the hart")
			}
			if got := buf.String(); !strings.Contains(got, spec.exp) {
				t.Fatalf("expected output to contain %q; got %q", spec.exp, got)
			}
			if !strings.Contains(buf.String(), "kernel panic") {
				t.Fatal("expected the panic banner to be printed")
			}
		})
	}
}
