/*
 *  compare.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"fmt"
	"math"
	"sort"
)

// CompareStats computes, for each probe present in both tables, the ratio of
// the sample capture efficiency over the reference one. Probes whose
// reference efficiency is zero or negative get NaN, never zero.
func CompareStats(sample, ref map[string]ProbeStats) map[string]float64 {
	ratios := make(map[string]float64)
	for name, st := range sample {
		rst, ok := ref[name]
		if !ok {
			continue
		}
		if rst.CaptureEfficiency > 0 {
			ratios[name] = st.CaptureEfficiency / rst.CaptureEfficiency
		} else {
			ratios[name] = math.NaN()
		}
	}
	return ratios
}

// CompareProfiles divides a binned sample profile by a reference binned at
// the same resolution, column by column. Bins where the reference is zero
// are undefined and marked NaN. Columns absent from the reference are
// skipped with a warning.
func CompareProfiles(sample, ref *BinnedProfile) *BinnedProfile {
	if sample.BinSize != ref.BinSize {
		log.Fatalf("Cannot compare profiles binned at %d and %d", sample.BinSize, ref.BinSize)
	}
	out := &BinnedProfile{
		Genome:     sample.Genome,
		BinSize:    sample.BinSize,
		Bins:       sample.Bins,
		Values:     make(map[string][]float64),
		chromFirst: sample.chromFirst,
	}
	for _, name := range sample.Columns {
		refValues, ok := ref.Values[name]
		if !ok {
			log.Warningf("Probe `%s` missing from reference, skipped", name)
			continue
		}
		out.Columns = append(out.Columns, name)
		ratios := make([]float64, len(sample.Bins))
		for b, v := range sample.Values[name] {
			if refValues[b] > 0 {
				ratios[b] = v / refValues[b]
			} else {
				ratios[b] = math.NaN()
			}
		}
		out.Values[name] = ratios
	}
	return out
}

// WriteRatios writes the per-probe capture efficiency ratio table
func WriteRatios(ratios map[string]float64, refName, outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	var names []string
	for name := range ratios {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "probe\tcapture_efficiency_vs_%s\n", refName)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%g\n", name, ratios[name])
	}
	w.Flush()
	log.Noticef("Capture efficiency ratios for %d probes written to `%s`", len(names), outfile)
}

// Comparer runs the comparison step against a reference sample
type Comparer struct {
	StatsFile    string
	RefStatsFile string
	RefName      string
	// Optional binned profiles compared bin by bin
	ProfileFile    string
	RefProfileFile string
	ChrCoordsFile  string
	// Output files
	OutRatiosFile  string
	OutProfileFile string
}

// Run computes the ratio tables
func (r *Comparer) Run() {
	sample := ParseStats(r.StatsFile)
	ref := ParseStats(r.RefStatsFile)
	ratios := CompareStats(sample, ref)

	if r.OutRatiosFile == "" {
		r.OutRatiosFile = RemoveExt(r.StatsFile) + "_vs_" + r.RefName + ".tsv"
	}
	WriteRatios(ratios, r.RefName, r.OutRatiosFile)

	if r.ProfileFile != "" && r.RefProfileFile != "" {
		genome := LoadGenome(r.ChrCoordsFile, "")
		bp := ParseBinnedProfile(r.ProfileFile, genome)
		rbp := ParseBinnedProfile(r.RefProfileFile, genome)
		out := CompareProfiles(bp, rbp)
		if r.OutProfileFile == "" {
			r.OutProfileFile = RemoveExt(r.ProfileFile) + "_over_" + r.RefName + ".tsv"
		}
		out.Write(r.OutProfileFile)
	}
	log.Notice("Success")
}
