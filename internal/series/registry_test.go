package series

import (
	"strconv"
	"strings"
	"testing"

	"tracker/internal/classify"
	"tracker/internal/core"
)

func TestColorForIsPure(t *testing.T) {
	for _, id := range []string{"0", "7", "123", "abc", "-3"} {
		if ColorFor(id) != ColorFor(id) {
			t.Fatalf("ColorFor(%q) not deterministic", id)
		}
	}
}

func TestColorForAliasesModuloPalette(t *testing.T) {
	n := len(Palette)
	for k := 0; k < 3*n; k++ {
		a := ColorFor(strconv.Itoa(k))
		b := ColorFor(strconv.Itoa(k + n))
		if a != b {
			t.Fatalf("ids %d and %d should collide: %s vs %s", k, k+n, a, b)
		}
		if a != Palette[k%n] {
			t.Fatalf("id %d: expected %s, got %s", k, Palette[k%n], a)
		}
	}
	if ColorFor("-1") != Palette[n-1] {
		t.Fatalf("negative ids wrap into the palette")
	}
}

func TestColorForIdsBeyondInt64(t *testing.T) {
	tests := []struct {
		id   string
		want core.Color
	}{
		// 2^64 = 18446744073709551616 is divisible by 8.
		{"18446744073709551616", Palette[0]},
		{"18446744073709551624", Palette[0]},
		{"18446744073709551619", Palette[3]},
		{"99999999999999999999999999", Palette[7]},
		{"-18446744073709551617", Palette[7]},
		{"+13", Palette[5]},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.id); got != tt.want {
			t.Fatalf("ColorFor(%s) = %s, want %s", tt.id, got, tt.want)
		}
	}
	if ColorFor("184467440737095516160") != ColorFor("184467440737095516168") {
		t.Fatalf("ids k and k+8 must share a colour at any magnitude")
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry([]core.Series{{ID: "1", Name: "Physio"}, {ID: "2", Name: "Payroll"}, {ID: "1", Name: "dup"}})
	if r.Len() != 2 {
		t.Fatalf("expected 2 series, got %d", r.Len())
	}
	if name, ok := r.Name("1"); !ok || name != "Physio" {
		t.Fatalf("unexpected name %q", name)
	}
	if _, ok := r.Name("3"); ok {
		t.Fatalf("unknown id should not resolve")
	}
	var nilReg *Registry
	if _, ok := nilReg.Name("1"); ok || nilReg.Len() != 0 {
		t.Fatalf("nil registry should be empty")
	}
}

func TestDecorateSeriesOverridesVariantColor(t *testing.T) {
	r := NewRegistry([]core.Series{{ID: "7", Name: "Physio"}})

	plain := r.Decorate(core.Event{Variant: core.Medical})
	if plain.Color != classify.For(core.Medical).Color || plain.InSeries {
		t.Fatalf("non-series event keeps variant colour, got %+v", plain)
	}

	d := r.Decorate(core.Event{Variant: core.Medical, SeriesID: "7"})
	if d.Color != ColorFor("7") {
		t.Fatalf("series colour should win, got %s", d.Color)
	}
	if d.Icon != classify.For(core.Medical).Icon || d.Label != "Medical" {
		t.Fatalf("variant icon and label must be kept, got %+v", d)
	}
	if !strings.Contains(d.Tooltip, "Physio") || !strings.Contains(d.Tooltip, "Medical") {
		t.Fatalf("tooltip should name series and variant, got %q", d.Tooltip)
	}

	unknown := r.Decorate(core.Event{Variant: core.Work, SeriesID: "99"})
	if !unknown.InSeries || unknown.SeriesName != "#99" {
		t.Fatalf("unknown series still marks membership, got %+v", unknown)
	}
}
