/*
 *  filter_test.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic_test

import (
	"testing"

	sshic "github.com/nmendiboure/ssdna-hic"
)

func testMatrix() *sshic.ContactMatrix {
	return &sshic.ContactMatrix{Pairs: []sshic.ContactPair{
		{A: 1, B: 2, Count: 5},
		{A: 2, B: 3, Count: 10},
		{A: 1, B: 3, Count: 2},
		{A: 3, B: 5, Count: 4},
		{A: 4, B: 4, Count: 3},
	}}
}

func TestFilterPartition(t *testing.T) {
	g := testGenome()
	assoc := sshic.AssociateProbes(g, testProbes()) // probe fragments 2 and 4
	m := testMatrix()

	probeContacts, hicOnly := sshic.FilterContacts(m, assoc)
	if len(probeContacts.Pairs)+len(hicOnly.Pairs) != len(m.Pairs) {
		t.Fatalf("Expected a partition of %d pairs, got %d + %d",
			len(m.Pairs), len(probeContacts.Pairs), len(hicOnly.Pairs))
	}
	seen := map[[2]int]int{}
	for _, p := range probeContacts.Pairs {
		seen[[2]int{p.A, p.B}]++
	}
	for _, p := range hicOnly.Pairs {
		seen[[2]int{p.A, p.B}]++
	}
	for key, n := range seen {
		if n != 1 {
			t.Fatalf("Pair %v appears %d times across the two sets", key, n)
		}
	}
	// (1,3) and (3,5) touch no probe fragment
	if len(hicOnly.Pairs) != 2 {
		t.Fatalf("Expected 2 Hi-C only pairs, got %d", len(hicOnly.Pairs))
	}
}

func TestHicOnlyFlanking(t *testing.T) {
	g := testGenome()
	assoc := sshic.AssociateProbes(g, testProbes())
	m := testMatrix()

	// dsDNA probe D1 sits on fragment 4, its chr2 neighbor is fragment 5
	hicOnly := sshic.HicOnlyContacts(m, assoc, g, 1)
	for _, p := range hicOnly.Pairs {
		if p.A == 5 || p.B == 5 {
			t.Fatalf("Expected pairs touching flanking fragment 5 to be removed, got %v", p)
		}
	}
	if len(hicOnly.Pairs) != 1 {
		t.Fatalf("Expected 1 pair left, got %d", len(hicOnly.Pairs))
	}
}

func TestFlankingFragIDs(t *testing.T) {
	g := testGenome()
	expanded := sshic.FlankingFragIDs(g, []int{2}, 1)
	for _, id := range []int{1, 2, 3} {
		if !expanded[id] {
			t.Fatalf("Expected fragment %d in the expanded set %v", id, expanded)
		}
	}
	if expanded[4] {
		t.Fatalf("Expansion must not cross chromosomes")
	}
}
