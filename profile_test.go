/*
 *  profile_test.go
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

// Single-chromosome walkthrough: three 100 bp fragments, one probe on the
// middle fragment, three contact pairs.
func walkthroughGenome() *sshic.Genome {
	g := sshic.NewGenome([]sshic.Chromosome{{Name: "chr1", Length: 300}})
	g.SetFragments([]sshic.Fragment{
		{ID: 1, Chrom: "chr1", Start: 0, End: 100},
		{ID: 2, Chrom: "chr1", Start: 100, End: 200},
		{ID: 3, Chrom: "chr1", Start: 200, End: 300},
	})
	return g
}

func walkthroughProfiles(t *testing.T) (*sshic.ProfileSet, *sshic.Association, *sshic.ContactMatrix) {
	t.Helper()
	g := walkthroughGenome()
	assoc := sshic.AssociateProbes(g, []sshic.Probe{
		{Name: "P1", Type: sshic.ProbeSS, Chrom: "chr1", Start: 150},
	})
	m := &sshic.ContactMatrix{Pairs: []sshic.ContactPair{
		{A: 1, B: 2, Count: 5},
		{A: 2, B: 3, Count: 10},
		{A: 1, B: 3, Count: 2},
	}}
	probeContacts, _ := sshic.FilterContacts(m, assoc)
	return sshic.BuildProfiles(probeContacts, assoc, g, 2), assoc, m
}

func TestBuildProfiles(t *testing.T) {
	ps, _, _ := walkthroughProfiles(t)
	profile := ps.Values["P1"]
	if profile[1] != 5 || profile[3] != 10 {
		t.Fatalf("Expected profile {1:5, 3:10}, got %v", profile)
	}
	if _, ok := profile[2]; ok {
		t.Fatalf("Probe's own fragment must not appear as its own partner: %v", profile)
	}
	if total := ps.ProbeTotal("P1"); total != 15 {
		t.Fatalf("Expected total 15, got %g", total)
	}
}

func TestWalkthroughStats(t *testing.T) {
	ps, assoc, m := walkthroughProfiles(t)
	res := sshic.ComputeStats(ps, assoc, m.Total(), sshic.DefaultCisRange)
	if len(res.Stats) != 1 {
		t.Fatalf("Expected stats for 1 probe, got %d", len(res.Stats))
	}
	st := res.Stats[0]
	if st.Contacts != 15 {
		t.Fatalf("Expected 15 contacts, got %g", st.Contacts)
	}
	// Everything is on the probe's chromosome and within the cis window
	if st.CisFreq != 1.0 || st.TransFreq != 0.0 {
		t.Fatalf("Expected cis 1.0 and trans 0.0, got %g and %g", st.CisFreq, st.TransFreq)
	}
}

func TestWalkthroughRebin(t *testing.T) {
	ps, _, _ := walkthroughProfiles(t)
	bp := sshic.Rebin(ps, 50)

	if sum := bp.ColumnSum("P1"); math.Abs(sum-15) > 15*sshic.RebinTolerance {
		t.Fatalf("Expected rebinned sum 15, got %g", sum)
	}
	// Fragment 1's count of 5 splits evenly into the two 50 bp bins
	values := bp.Values["P1"]
	if values[0] != 2.5 || values[1] != 2.5 {
		t.Fatalf("Expected 2.5 in the first two bins, got %g and %g", values[0], values[1])
	}
}

func TestFrequencies(t *testing.T) {
	ps, _, _ := walkthroughProfiles(t)
	freq := ps.Frequencies()
	if v := freq.Values["P1"][3]; math.Abs(v-10.0/15.0) > 1e-9 {
		t.Fatalf("Expected frequency 2/3 on fragment 3, got %g", v)
	}
	if total := freq.ProbeTotal("P1"); math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("Expected frequencies to sum to 1, got %g", total)
	}
}

func TestProbeGroups(t *testing.T) {
	g := testGenome()
	assoc := sshic.AssociateProbes(g, testProbes())
	probeContacts, _ := sshic.FilterContacts(testMatrix(), assoc)
	ps := sshic.BuildProfiles(probeContacts, assoc, g, 2)

	ps.AddGroups([]sshic.ProbeGroup{
		{Name: "both", Probes: []string{"P1", "D1"}, Action: "sum"},
	})
	groupTotal := ps.ProbeTotal("both")
	want := ps.ProbeTotal("P1") + ps.ProbeTotal("D1")
	if math.Abs(groupTotal-want) > 1e-9 {
		t.Fatalf("Expected group total %g, got %g", want, groupTotal)
	}
}
