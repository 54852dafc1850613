/*
 *  stats_test.go
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

func statsFixture(t *testing.T) *sshic.StatsResult {
	t.Helper()
	g := testGenome()
	assoc := sshic.AssociateProbes(g, testProbes()) // P1 on fragment 2, D1 on fragment 4
	m := &sshic.ContactMatrix{Pairs: []sshic.ContactPair{
		{A: 1, B: 2, Count: 4},
		{A: 2, B: 5, Count: 6},
		{A: 3, B: 4, Count: 7},
	}}
	probeContacts, _ := sshic.FilterContacts(m, assoc)
	ps := sshic.BuildProfiles(probeContacts, assoc, g, 2)
	return sshic.ComputeStats(ps, assoc, m.Total(), sshic.DefaultCisRange)
}

func TestStatsFractions(t *testing.T) {
	res := statsFixture(t)
	byName := map[string]sshic.ProbeStats{}
	for _, st := range res.Stats {
		byName[st.Probe] = st
	}

	p1 := byName["P1"]
	if p1.Contacts != 10 {
		t.Fatalf("Expected 10 contacts for P1, got %g", p1.Contacts)
	}
	// 4 of 10 on chr1 within the cis window, 6 on chr2
	if math.Abs(p1.CisFreq-0.4) > 1e-9 || math.Abs(p1.TransFreq-0.6) > 1e-9 {
		t.Fatalf("Expected cis 0.4 / trans 0.6, got %g / %g", p1.CisFreq, p1.TransFreq)
	}
	if math.Abs(p1.InterFreq-0.6) > 1e-9 || math.Abs(p1.IntraFreq-0.4) > 1e-9 {
		t.Fatalf("Expected inter 0.6 / intra 0.4, got %g / %g", p1.InterFreq, p1.IntraFreq)
	}
	if math.Abs(p1.CoverageOverHiC-10.0/17.0) > 1e-9 {
		t.Fatalf("Expected coverage over Hi-C 10/17, got %g", p1.CoverageOverHiC)
	}

	d1 := byName["D1"]
	// D1's only partner fragment is on chr1
	if math.Abs(d1.InterFreq-1.0) > 1e-9 {
		t.Fatalf("Expected inter 1.0 for D1, got %g", d1.InterFreq)
	}
}

func TestCaptureEfficiency(t *testing.T) {
	res := statsFixture(t)
	for _, st := range res.Stats {
		switch st.Probe {
		case "P1":
			// dsDNA mean is D1's 7 contacts
			if math.Abs(st.CaptureEfficiency-10.0/7.0) > 1e-9 {
				t.Fatalf("Expected efficiency 10/7, got %g", st.CaptureEfficiency)
			}
		case "D1":
			if math.Abs(st.CaptureEfficiency-1.0) > 1e-9 {
				t.Fatalf("Expected efficiency 1.0 for the control, got %g", st.CaptureEfficiency)
			}
		}
	}
}

func TestStatsStability(t *testing.T) {
	first := statsFixture(t)
	second := statsFixture(t)
	if len(first.Stats) != len(second.Stats) {
		t.Fatalf("Expected identical stats count")
	}
	for i := range first.Stats {
		if first.Stats[i] != second.Stats[i] {
			t.Fatalf("Expected bit-identical stats, got %+v vs %+v", first.Stats[i], second.Stats[i])
		}
	}
}

func TestStatsZeroTotal(t *testing.T) {
	g := testGenome()
	assoc := sshic.AssociateProbes(g, testProbes())
	ps := sshic.BuildProfiles(&sshic.ContactMatrix{}, assoc, g, 2)
	res := sshic.ComputeStats(ps, assoc, 0, sshic.DefaultCisRange)
	for _, st := range res.Stats {
		if st.CisFreq != 0 || st.CaptureEfficiency != 0 {
			t.Fatalf("Expected zero sentinels for empty profiles, got %+v", st)
		}
	}
}
