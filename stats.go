/*
 *  stats.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// ProbeStats summarizes the contacts of one probe. Frequencies are fractions
// of the probe total; a zero total leaves every fraction at the zero
// sentinel instead of dividing.
type ProbeStats struct {
	Probe    string
	Type     string
	Chrom    string
	Fragment int

	Contacts        float64
	CoverageOverHiC float64
	CisFreq         float64
	TransFreq       float64
	IntraFreq       float64
	InterFreq       float64
	// CaptureEfficiency is the probe total over the mean total of the
	// dsDNA control probes
	CaptureEfficiency float64
}

// StatsResult bundles the per-probe summaries with the per-chromosome
// normalized contact vectors (overall and inter-chromosomal only)
type StatsResult struct {
	Chroms       []string
	Stats        []ProbeStats
	ChrNorm      map[string][]float64
	InterChrNorm map[string][]float64
}

// ComputeStats derives the per-probe statistics from the fragment-resolution
// contact profiles. It is a pure function of its inputs: same inputs, bit
// identical outputs.
func ComputeStats(ps *ProfileSet, assoc *Association, totalHiC int, cisRange int) *StatsResult {
	genome := ps.Genome
	res := &StatsResult{
		ChrNorm:      make(map[string][]float64),
		InterChrNorm: make(map[string][]float64),
	}
	for _, c := range genome.Chroms {
		res.Chroms = append(res.Chroms, c.Name)
	}

	for _, probe := range assoc.Probes {
		if _, ok := ps.Values[probe.Name]; !ok {
			continue
		}
		frags := assoc.FragmentsOf(probe.Name)
		if len(frags) == 0 {
			continue
		}
		st := ProbeStats{
			Probe:    probe.Name,
			Type:     probe.Type,
			Chrom:    probe.Chrom,
			Fragment: frags[0].ID,
		}

		profile := ps.Values[probe.Name]
		perChrom := make(map[string]float64)
		cis := 0.0
		cisStart := probe.Start - cisRange
		cisStop := probe.Midpoint() + cisRange
		if probe.End > 0 {
			cisStop = probe.End + cisRange
		}
		// Accumulate in fragment id order so repeated runs sum in the
		// same order and stay bit-identical
		ids := make([]int, 0, len(profile))
		for id := range profile {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			v := profile[id]
			partner := genome.FragmentByID(id)
			if partner == nil {
				continue
			}
			st.Contacts += v
			perChrom[partner.Chrom] += v
			if partner.Chrom == probe.Chrom && partner.Start >= cisStart && partner.End <= cisStop {
				cis += v
			}
		}
		inter := st.Contacts - perChrom[probe.Chrom]

		if totalHiC > 0 {
			st.CoverageOverHiC = st.Contacts / float64(totalHiC)
		}
		if st.Contacts > 0 {
			st.CisFreq = cis / st.Contacts
			st.TransFreq = 1 - st.CisFreq
			st.InterFreq = inter / st.Contacts
			st.IntraFreq = 1 - st.InterFreq
		} else {
			log.Warningf("Probe `%s` has zero contacts, fractions forced to zero", probe.Name)
		}

		// Normalized per-chromosome vectors: contact share over the
		// chromosome's share of the genome (probe chromosome excluded
		// from the genome size, as the reference implementation does)
		genomeSize := 0.0
		for _, c := range genome.Chroms {
			if c.Name != probe.Chrom {
				genomeSize += float64(c.Length)
			}
		}
		chrNorm := make([]float64, len(res.Chroms))
		interNorm := make([]float64, len(res.Chroms))
		for i, chrom := range res.Chroms {
			chromShare := float64(genome.ChromByName(chrom).Length) / genomeSize
			n1 := perChrom[chrom]
			if n1 > 0 && st.Contacts > 0 {
				chrNorm[i] = (n1 / st.Contacts) / chromShare
			}
			if chrom != probe.Chrom && n1 > 0 && inter > 0 {
				interNorm[i] = (n1 / inter) / chromShare
			}
		}
		res.ChrNorm[probe.Name] = chrNorm
		res.InterChrNorm[probe.Name] = interNorm
		res.Stats = append(res.Stats, st)
	}

	// Capture efficiency is normalized against the mean of the dsDNA
	// control probes
	var dsTotals []float64
	for _, st := range res.Stats {
		if st.Type == ProbeDS {
			dsTotals = append(dsTotals, st.Contacts)
		}
	}
	dsMean := 0.0
	if len(dsTotals) > 0 {
		dsMean = stat.Mean(dsTotals, nil)
	}
	for i := range res.Stats {
		if dsMean > 0 {
			res.Stats[i].CaptureEfficiency = res.Stats[i].Contacts / dsMean
		} else if i == 0 {
			log.Warningf("No dsDNA control contacts, capture efficiency forced to zero")
		}
	}
	return res
}

// WriteStats writes the per-probe summary table
func (r *StatsResult) WriteStats(outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprintln(w, "probe\ttype\tchr\tfragment\tcontacts\tcoverage_over_hic_contacts\tcis\ttrans\tintra_chr\tinter_chr\tdsdna_norm_capture_efficiency")
	for _, st := range r.Stats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
			st.Probe, st.Type, st.Chrom, st.Fragment, st.Contacts, st.CoverageOverHiC,
			st.CisFreq, st.TransFreq, st.IntraFreq, st.InterFreq, st.CaptureEfficiency)
	}
	w.Flush()
	log.Noticef("Statistics for %d probes written to `%s`", len(r.Stats), outfile)
}

// writeNormTable writes one probe-by-chromosome normalized matrix
func (r *StatsResult) writeNormTable(values map[string][]float64, outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprint(w, "probe")
	for _, chrom := range r.Chroms {
		fmt.Fprintf(w, "\t%s", chrom)
	}
	fmt.Fprintln(w)
	for _, st := range r.Stats {
		fmt.Fprint(w, st.Probe)
		for i := range r.Chroms {
			fmt.Fprintf(w, "\t%g", values[st.Probe][i])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	log.Noticef("Normalized table written to `%s`", outfile)
}

// WriteChrNorm writes the normalized per-chromosome contact table
func (r *StatsResult) WriteChrNorm(outfile string) {
	r.writeNormTable(r.ChrNorm, outfile)
}

// WriteInterChrNorm writes the inter-chromosomal normalized table
func (r *StatsResult) WriteInterChrNorm(outfile string) {
	r.writeNormTable(r.InterChrNorm, outfile)
}

// ParseStats reads a statistics table back, keyed by probe
func ParseStats(filename string) map[string]ProbeStats {
	stats := make(map[string]ProbeStats)
	for _, rec := range ReadTableLines(filename) {
		if len(rec) < 11 {
			log.Fatalf("%s: stats row needs 11 columns: %v", filename, rec)
		}
		frag, _ := strconv.Atoi(rec[3])
		st := ProbeStats{
			Probe:             rec[0],
			Type:              rec[1],
			Chrom:             rec[2],
			Fragment:          frag,
			Contacts:          parseFloat(rec[4]),
			CoverageOverHiC:   parseFloat(rec[5]),
			CisFreq:           parseFloat(rec[6]),
			TransFreq:         parseFloat(rec[7]),
			IntraFreq:         parseFloat(rec[8]),
			InterFreq:         parseFloat(rec[9]),
			CaptureEfficiency: parseFloat(rec[10]),
		}
		stats[st.Probe] = st
	}
	log.Noticef("Loaded statistics for %d probes from `%s`", len(stats), filename)
	return stats
}

// Statser runs the stats step from input files
type Statser struct {
	ProfileFile   string
	MatrixFile    string
	ChrCoordsFile string
	FragmentsFile string
	ProbesFile    string
	CisRange      int
	// Output files
	OutStatsFile        string
	OutChrNormFile      string
	OutInterChrNormFile string
}

// Run computes and writes the statistics tables
func (r *Statser) Run() {
	genome := LoadGenome(r.ChrCoordsFile, r.FragmentsFile)
	assoc := AssociateProbes(genome, ParseProbes(r.ProbesFile))
	probeContacts := ParseFilteredTable(r.ProfileFile)
	m := ParseMatrix(r.MatrixFile)

	ps := BuildProfiles(probeContacts, assoc, genome, DefaultWorkers)
	res := ComputeStats(ps, assoc, m.Total(), r.CisRange)

	prefix := RemoveExt(r.MatrixFile)
	if r.OutStatsFile == "" {
		r.OutStatsFile = prefix + "_contacts_statistics.tsv"
	}
	if r.OutChrNormFile == "" {
		r.OutChrNormFile = prefix + "_normalized_chr_freq.tsv"
	}
	if r.OutInterChrNormFile == "" {
		r.OutInterChrNormFile = prefix + "_normalized_inter_chr_freq.tsv"
	}
	res.WriteStats(r.OutStatsFile)
	res.WriteChrNorm(r.OutChrNormFile)
	res.WriteInterChrNorm(r.OutInterChrNormFile)
	log.Notice("Success")
}
