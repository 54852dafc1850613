/*
 *  genome_test.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic_test

import (
	"errors"
	"testing"

	sshic "github.com/nmendiboure/ssdna-hic"
)

// testGenome builds a two-chromosome toy genome shared by the tests
func testGenome() *sshic.Genome {
	g := sshic.NewGenome([]sshic.Chromosome{
		{Name: "chr1", Length: 300, LeftArm: 150, RightArm: 150, Category: "small_long"},
		{Name: "chr2", Length: 200, LeftArm: 100, RightArm: 100, Category: "small_small"},
	})
	g.SetFragments([]sshic.Fragment{
		{ID: 1, Chrom: "chr1", Start: 0, End: 100},
		{ID: 2, Chrom: "chr1", Start: 100, End: 200},
		{ID: 3, Chrom: "chr1", Start: 200, End: 300},
		{ID: 4, Chrom: "chr2", Start: 0, End: 100},
		{ID: 5, Chrom: "chr2", Start: 100, End: 200},
	})
	return g
}

func TestResolve(t *testing.T) {
	g := testGenome()
	for _, tc := range []struct {
		chrom string
		pos   int
		want  int
	}{
		{"chr1", 0, 1},
		{"chr1", 99, 1},
		{"chr1", 100, 2}, // boundary position belongs to the downstream fragment
		{"chr1", 299, 3},
		{"chr2", 150, 5},
	} {
		frag, err := g.Resolve(tc.chrom, tc.pos)
		if err != nil {
			t.Fatalf("Resolve(%s, %d) failed: %v", tc.chrom, tc.pos, err)
		}
		if frag.ID != tc.want {
			t.Fatalf("Expected fragment %d at %s:%d, got %d", tc.want, tc.chrom, tc.pos, frag.ID)
		}
	}
}

func TestResolveOutOfRange(t *testing.T) {
	g := testGenome()
	if _, err := g.Resolve("chr1", 300); !errors.Is(err, sshic.ErrOutOfRange) {
		t.Fatalf("Expected ErrOutOfRange past chromosome end, got %v", err)
	}
	if _, err := g.Resolve("chr1", -1); !errors.Is(err, sshic.ErrOutOfRange) {
		t.Fatalf("Expected ErrOutOfRange for negative position, got %v", err)
	}
	if _, err := g.Resolve("chr9", 10); !errors.Is(err, sshic.ErrUnknownChrom) {
		t.Fatalf("Expected ErrUnknownChrom, got %v", err)
	}
}

func TestGenomeOffset(t *testing.T) {
	g := testGenome()
	off, err := g.GenomeOffset("chr2", 50)
	if err != nil {
		t.Fatalf("GenomeOffset failed: %v", err)
	}
	if off != 350 {
		t.Fatalf("Expected offset 350, got %d", off)
	}
	if g.TotalLength() != 500 {
		t.Fatalf("Expected total length 500, got %d", g.TotalLength())
	}

	// Genome-wide offsets increase strictly in genomic order
	prev := int64(-1)
	for _, probe := range []struct {
		chrom string
		pos   int
	}{{"chr1", 0}, {"chr1", 299}, {"chr2", 0}, {"chr2", 199}} {
		off, err := g.GenomeOffset(probe.chrom, probe.pos)
		if err != nil {
			t.Fatalf("GenomeOffset(%s, %d) failed: %v", probe.chrom, probe.pos, err)
		}
		if off <= prev {
			t.Fatalf("Offsets not monotonic at %s:%d", probe.chrom, probe.pos)
		}
		prev = off
	}
}

func TestInconsistentFragments(t *testing.T) {
	g := sshic.NewGenome([]sshic.Chromosome{
		{Name: "chr1", Length: 300},
		{Name: "chr2", Length: 200},
	})
	// chr1 has a gap between its fragments, chr2 is fine
	g.SetFragments([]sshic.Fragment{
		{ID: 1, Chrom: "chr1", Start: 0, End: 100},
		{ID: 2, Chrom: "chr1", Start: 150, End: 300},
		{ID: 3, Chrom: "chr2", Start: 0, End: 200},
	})
	if _, err := g.Resolve("chr1", 50); !errors.Is(err, sshic.ErrInconsistentFragments) {
		t.Fatalf("Expected ErrInconsistentFragments on chr1, got %v", err)
	}
	frag, err := g.Resolve("chr2", 50)
	if err != nil || frag.ID != 3 {
		t.Fatalf("Expected chr2 to stay usable, got fragment %v, err %v", frag, err)
	}
}
