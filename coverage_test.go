/*
 *  coverage_test.go
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

func TestCoverageConservation(t *testing.T) {
	g := testGenome()
	m := testMatrix()

	total := 0
	selfTotal := 0
	for _, p := range m.Pairs {
		total += p.Count
		if p.A == p.B {
			selfTotal += p.Count
		}
	}

	track := sshic.Coverage(m, g)
	want := float64(2*total - selfTotal)
	if math.Abs(track.Total()-want) > 1e-9 {
		t.Fatalf("Expected coverage total %g, got %g", want, track.Total())
	}
}

func TestCoverageNormalize(t *testing.T) {
	g := testGenome()
	track := sshic.Coverage(testMatrix(), g)
	track.Normalize()
	if math.Abs(track.Total()-1.0) > 1e-9 {
		t.Fatalf("Expected normalized total 1.0, got %g", track.Total())
	}

	empty := sshic.Coverage(&sshic.ContactMatrix{}, g)
	empty.Normalize() // zero total must not crash
	if empty.Total() != 0 {
		t.Fatalf("Expected empty track to stay zero, got %g", empty.Total())
	}
}
