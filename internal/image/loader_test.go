package image_test

import (
	"bytes"
	"strings"
	"testing"

	"vm1600/internal/image"
	"vm1600/internal/vm"
)

func TestParseFillsBySequenceNotDeclaredAddress(t *testing.T) {
	// The declared addresses are deliberately wrong/out of order; Parse
	// must fill by position in the match sequence, not by the address.
	src := "999: 1;\n0: 2;\n5: 3;\n"

	mem, err := image.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if mem[0] != 1 || mem[1] != 2 || mem[2] != 3 {
		t.Errorf("mem[0:3] = %v, want [1 2 3]", mem[0:3])
	}
}

func TestParseNegativeValues(t *testing.T) {
	mem, err := image.Parse(strings.NewReader("0: -17;"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if mem[0] != -17 {
		t.Errorf("mem[0] = %s, want -17", mem[0])
	}
}

func TestParseOverflowIsError(t *testing.T) {
	var b strings.Builder

	for i := 0; i < vm.NumWords+1; i++ {
		b.WriteString("0: 0;")
	}

	if _, err := image.Parse(strings.NewReader(b.String())); err == nil {
		t.Fatal("Parse() of an overflowing image returned nil error")
	}
}

func TestParseEmitParseRoundTrips(t *testing.T) {
	var mem [vm.NumWords]vm.Word
	mem[0] = 42
	mem[1] = -1
	mem[vm.NumWords-1] = 7

	var buf bytes.Buffer
	if err := image.Emit(&buf, mem); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	reparsed, err := image.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse(Emit(mem)) error = %v", err)
	}

	if reparsed != mem {
		t.Error("Parse(Emit(mem)) != mem")
	}
}
