/*
 *  rebin_test.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic_test

import (
	"math"
	"reflect"
	"testing"

	sshic "github.com/nmendiboure/ssdna-hic"
)

func TestRebinConservation(t *testing.T) {
	ps, _, _ := walkthroughProfiles(t)
	source := ps.ProbeTotal("P1")
	for _, binSize := range []int{30, 50, 100, 250, 1000} {
		bp := sshic.Rebin(ps, binSize)
		sum := bp.ColumnSum("P1")
		if math.Abs(sum-source) > source*sshic.RebinTolerance {
			t.Fatalf("Expected sum %g at %d bp, got %g", source, binSize, sum)
		}
	}
}

func TestRebinIdempotence(t *testing.T) {
	ps, _, _ := walkthroughProfiles(t)
	once := sshic.Rebin(ps, 50)
	twice := once.Rebin(50)
	if !reflect.DeepEqual(once.Bins, twice.Bins) {
		t.Fatalf("Expected identical bin templates")
	}
	if !reflect.DeepEqual(once.Values, twice.Values) {
		t.Fatalf("Expected identical values, got %v vs %v", once.Values, twice.Values)
	}
}

func TestRebinCoarser(t *testing.T) {
	ps, _, _ := walkthroughProfiles(t)
	fine := sshic.Rebin(ps, 50)
	coarse := fine.Rebin(100)
	direct := sshic.Rebin(ps, 100)
	if !reflect.DeepEqual(coarse.Values, direct.Values) {
		t.Fatalf("Expected rebinning through 50 bp to match direct 100 bp, got %v vs %v",
			coarse.Values, direct.Values)
	}
}
