/*
 *  aggregate_test.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic_test

import (
	"math"
	"testing"

	sshic "github.com/nmendiboure/ssdna-hic"
)

// binnedFixture builds a two-chromosome binned profile with one probe
// column whose values are set directly
func binnedFixture(t *testing.T) *sshic.BinnedProfile {
	t.Helper()
	g := sshic.NewGenome([]sshic.Chromosome{
		{Name: "chr1", Length: 150, LeftArm: 50, RightArm: 100, Category: "small_long"},
		{Name: "chr2", Length: 150, LeftArm: 50, RightArm: 100, Category: "small_small"},
	})
	g.SetFragments([]sshic.Fragment{
		{ID: 1, Chrom: "chr1", Start: 0, End: 150},
		{ID: 2, Chrom: "chr2", Start: 0, End: 150},
	})
	assoc := sshic.AssociateProbes(g, []sshic.Probe{
		{Name: "P1", Type: sshic.ProbeSS, Chrom: "chr1", Start: 10},
	})
	ps := sshic.BuildProfiles(&sshic.ContactMatrix{}, assoc, g, 1)
	return sshic.Rebin(ps, 50)
}

func TestAggregateSignedOffsets(t *testing.T) {
	bp := binnedFixture(t)
	// chr1 bins start at row 0, chr2 bins at row 4 (150/50+1 bins per chromosome)
	v := bp.Values["P1"]
	v[0], v[1], v[2] = 0.2, 0.4, 0.1
	v[4], v[5], v[6] = 0.3, math.NaN(), 0.2

	anchors := []sshic.Anchor{
		{Chrom: "chr1", Pos: 50, Label: "a1"},
		{Chrom: "chr2", Pos: 50, Label: "a2"},
	}
	agg := sshic.Aggregate(bp, anchors, 50, sshic.WindowClip)

	wantOffsets := []int{-50, 0, 50}
	if len(agg.Offsets) != len(wantOffsets) {
		t.Fatalf("Expected offsets %v, got %v", wantOffsets, agg.Offsets)
	}
	for i, off := range wantOffsets {
		if agg.Offsets[i] != off {
			t.Fatalf("Expected offsets %v, got %v", wantOffsets, agg.Offsets)
		}
	}

	mean := agg.Mean["P1"]
	// The undefined value at a2's offset 0 is skipped, not counted as zero
	want := []float64{0.25, 0.4, 0.15}
	for i := range want {
		if math.Abs(mean[i]-want[i]) > 1e-9 {
			t.Fatalf("Expected mean %v, got %v", want, mean)
		}
	}
}

func TestAggregateWindowPolicy(t *testing.T) {
	bp := binnedFixture(t)
	anchors := []sshic.Anchor{
		{Chrom: "chr1", Pos: 0, Label: "left_edge"},
		{Chrom: "chr1", Pos: 50, Label: "inside"},
	}

	clipped := sshic.Aggregate(bp, anchors, 50, sshic.WindowClip)
	if len(clipped.Anchors) != 2 {
		t.Fatalf("Expected clip policy to keep both anchors, got %d", len(clipped.Anchors))
	}
	// The clipped anchor has no bin at offset -50
	if v := clipped.PerAnchor["P1"][0][0]; !math.IsNaN(v) {
		t.Fatalf("Expected NaN outside chromosome bounds, got %g", v)
	}

	excluded := sshic.Aggregate(bp, anchors, 50, sshic.WindowExclude)
	if len(excluded.Anchors) != 1 || excluded.Anchors[0].Label != "inside" {
		t.Fatalf("Expected exclude policy to drop the edge anchor, got %v", excluded.Anchors)
	}
}

func TestMaskProbeChromosomes(t *testing.T) {
	bp := binnedFixture(t)
	for i := range bp.Values["P1"] {
		bp.Values["P1"][i] = 1.0
	}
	g := bp.Genome
	assoc := sshic.AssociateProbes(g, []sshic.Probe{
		{Name: "P1", Type: sshic.ProbeSS, Chrom: "chr1", Start: 10},
	})
	sshic.MaskProbeChromosomes(bp, assoc, nil)

	for i, bin := range bp.Bins {
		v := bp.Values["P1"][i]
		if bin.Chrom == "chr1" && !math.IsNaN(v) {
			t.Fatalf("Expected NaN on the probe's own chromosome, got %g", v)
		}
		if bin.Chrom == "chr2" && v != 1.0 {
			t.Fatalf("Expected chr2 untouched, got %g", v)
		}
	}
}

func TestInterNormalize(t *testing.T) {
	bp := binnedFixture(t)
	v := bp.Values["P1"]
	v[0], v[4] = 3.0, 1.0
	v[1] = math.NaN()

	sshic.InterNormalize(bp)
	if math.Abs(v[0]-0.75) > 1e-9 || math.Abs(v[4]-0.25) > 1e-9 {
		t.Fatalf("Expected 0.75 and 0.25, got %g and %g", v[0], v[4])
	}
	if !math.IsNaN(v[1]) {
		t.Fatalf("Expected NaN to stay NaN after normalization")
	}
}

func TestAggregateByArm(t *testing.T) {
	bp := binnedFixture(t)
	v := bp.Values["P1"]
	// chr1 is small_long, chr2 is small_small. A 30 bp telomere window at
	// 50 bp resolution covers the two outermost bins of each arm.
	v[0], v[1], v[2], v[3] = 0.4, 0.4, 0.6, 0.6
	v[4], v[5], v[6], v[7] = 0.2, 0.2, 0.1, 0.1

	categories, means := sshic.AggregateByArm(bp, 30)
	byCat := map[string]float64{}
	for i, cat := range categories {
		byCat[cat] = means["P1"][i]
	}
	if math.Abs(byCat["long"]-0.6) > 1e-9 {
		t.Fatalf("Expected long arm mean 0.6, got %g", byCat["long"])
	}
	// small pools chr1's left arm with both chr2 arms
	want := (0.4 + 0.4 + 0.2 + 0.2 + 0.1 + 0.1) / 6
	if math.Abs(byCat["small"]-want) > 1e-9 {
		t.Fatalf("Expected small arm mean %g, got %g", want, byCat["small"])
	}
}
