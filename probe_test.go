/*
 *  probe_test.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic_test

import (
	"os"
	"path"
	"reflect"
	"testing"

	sshic "github.com/nmendiboure/ssdna-hic"
)

func testProbes() []sshic.Probe {
	return []sshic.Probe{
		{Name: "P1", Type: sshic.ProbeSS, Chrom: "chr1", Start: 150},
		{Name: "D1", Type: sshic.ProbeDS, Chrom: "chr2", Start: 50},
	}
}

func TestAssociateBoundaryTieBreak(t *testing.T) {
	g := testGenome()
	probes := []sshic.Probe{
		// Midpoint exactly on the 100 boundary
		{Name: "P1", Type: sshic.ProbeSS, Chrom: "chr1", Start: 50, End: 150},
	}
	assoc := sshic.AssociateProbes(g, probes)
	frag := assoc.FragmentOf("P1")
	if frag == nil || frag.ID != 2 {
		t.Fatalf("Expected boundary midpoint to land on downstream fragment 2, got %v", frag)
	}
}

func TestAssociateDeterminism(t *testing.T) {
	g := testGenome()
	first := sshic.AssociateProbes(g, testProbes()).ProbeFragIDs()
	for i := 0; i < 5; i++ {
		again := sshic.AssociateProbes(g, testProbes()).ProbeFragIDs()
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Expected identical assignment %v, got %v", first, again)
		}
	}
}

func TestAssociateUnplaceable(t *testing.T) {
	g := testGenome()
	probes := append(testProbes(),
		sshic.Probe{Name: "BAD", Type: sshic.ProbeSS, Chrom: "chr9", Start: 10})
	assoc := sshic.AssociateProbes(g, probes)
	if len(assoc.Probes) != 2 {
		t.Fatalf("Expected 2 placed probes, got %d", len(assoc.Probes))
	}
	if assoc.FragmentOf("BAD") != nil {
		t.Fatalf("Expected BAD to be excluded")
	}
}

func TestFragIDsOfType(t *testing.T) {
	g := testGenome()
	assoc := sshic.AssociateProbes(g, testProbes())
	ds := assoc.FragIDsOfType(sshic.ProbeDS)
	if !reflect.DeepEqual(ds, []int{4}) {
		t.Fatalf("Expected dsDNA fragments [4], got %v", ds)
	}
}

func TestParseProbes(t *testing.T) {
	dir := t.TempDir()
	probesFile := path.Join(dir, "capture_oligos.csv")
	content := "chr,start,end,type,name,sequence\n" +
		"chr1,100,200,ss,P1,ATCG\n" +
		"chr2,40,60,ds,D1,GGCC\n"
	if err := os.WriteFile(probesFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	probes := sshic.ParseProbes(probesFile)
	if len(probes) != 2 {
		t.Fatalf("Expected 2 probes, got %d", len(probes))
	}
	if probes[0].Name != "P1" || probes[0].Midpoint() != 150 {
		t.Fatalf("Expected P1 with midpoint 150, got %s at %d", probes[0].Name, probes[0].Midpoint())
	}
	if probes[1].Type != sshic.ProbeDS {
		t.Fatalf("Expected D1 to be dsDNA, got %s", probes[1].Type)
	}
}
