/*
 *  aggregate.go
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
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Window clipping policy for anchors whose window exceeds the chromosome
// bounds. Must be chosen explicitly, there is no silent default truncation.
const (
	WindowClip    = "clip"
	WindowExclude = "exclude"
)

// Anchor is one genomic locus the profiles get re-centered on
type Anchor struct {
	Chrom string
	Pos   int
	Label string
}

// AggregatedProfile holds per-column summaries across anchors, indexed by
// signed offset from the anchor. PerAnchor keeps the full anchor-by-offset
// matrix per column for inspection.
type AggregatedProfile struct {
	Offsets []int
	Anchors []Anchor
	Columns []string
	Mean    map[string][]float64
	Std     map[string][]float64
	Median  map[string][]float64
	// PerAnchor[column][ai][oi], NaN where undefined
	PerAnchor map[string][][]float64
}

// CentromereAnchors builds one anchor per chromosome at its centromere
func CentromereAnchors(genome *Genome, excluded []string) []Anchor {
	var anchors []Anchor
	for _, c := range genome.Chroms {
		if contains(excluded, c.Name) || c.LeftArm <= 0 {
			continue
		}
		anchors = append(anchors, Anchor{Chrom: c.Name, Pos: c.Centromere(), Label: c.Name})
	}
	return anchors
}

// TelomereAnchors builds two anchors per chromosome, one at each end
func TelomereAnchors(genome *Genome, excluded []string) []Anchor {
	var anchors []Anchor
	for _, c := range genome.Chroms {
		if contains(excluded, c.Name) {
			continue
		}
		anchors = append(anchors,
			Anchor{Chrom: c.Name, Pos: 0, Label: c.Name + "_left"},
			Anchor{Chrom: c.Name, Pos: c.Length, Label: c.Name + "_right"})
	}
	return anchors
}

// ParseAnchors reads a user-supplied anchor table (chr, position, label)
func ParseAnchors(filename string) []Anchor {
	var anchors []Anchor
	for _, rec := range ReadTableLines(filename) {
		if len(rec) < 2 {
			log.Fatalf("%s: anchor row needs chr and position: %v", filename, rec)
		}
		pos, err := strconv.Atoi(rec[1])
		if err != nil {
			log.Fatalf("%s: bad anchor position: %v", filename, rec)
		}
		a := Anchor{Chrom: rec[0], Pos: pos, Label: rec[0] + ":" + rec[1]}
		if len(rec) > 2 && rec[2] != "" {
			a.Label = rec[2]
		}
		anchors = append(anchors, a)
	}
	log.Noticef("Loaded %d anchors from `%s`", len(anchors), filename)
	return anchors
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// MaskProbeChromosomes sets each probe column to NaN on the rows of the
// probe's own chromosome. Intra-chromosomal contacts dominate the signal
// and would bias any average taken across chromosomes.
func MaskProbeChromosomes(bp *BinnedProfile, assoc *Association, excluded []string) {
	for _, probe := range assoc.Probes {
		values, ok := bp.Values[probe.Name]
		if !ok || contains(excluded, probe.Chrom) {
			continue
		}
		for i, bin := range bp.Bins {
			if bin.Chrom == probe.Chrom {
				values[i] = math.NaN()
			}
		}
	}
}

// InterNormalize divides each column by its defined total, making columns
// comparable across samples. Zero totals leave the column untouched.
func InterNormalize(bp *BinnedProfile) {
	for _, col := range bp.Columns {
		values := bp.Values[col]
		total := sumf(values)
		if total <= 0 {
			log.Warningf("Column `%s` has zero total, left unnormalized", col)
			continue
		}
		for i, v := range values {
			values[i] = v / total
		}
	}
}

// DropChromosomes erases the rows of the listed chromosomes from every
// column by marking them NaN
func DropChromosomes(bp *BinnedProfile, excluded []string) {
	if len(excluded) == 0 {
		return
	}
	for i, bin := range bp.Bins {
		if contains(excluded, bin.Chrom) {
			for _, col := range bp.Columns {
				bp.Values[col][i] = math.NaN()
			}
		}
	}
}

// Aggregate re-centers the binned profile on each anchor and summarizes
// across anchors at each signed offset in [-window, +window]. Undefined
// values are skipped, never counted as zero. Anchors whose window crosses a
// chromosome end are clipped or dropped according to policy.
func Aggregate(bp *BinnedProfile, anchors []Anchor, window int, policy string) *AggregatedProfile {
	if policy != WindowClip && policy != WindowExclude {
		log.Fatalf("Unknown window policy `%s`, want %s or %s", policy, WindowClip, WindowExclude)
	}
	binSize := bp.BinSize
	var offsets []int
	for off := -window; off <= window; off += binSize {
		offsets = append(offsets, off)
	}

	var kept []Anchor
	for _, a := range anchors {
		c := bp.Genome.ChromByName(a.Chrom)
		if c == nil {
			log.Warningf("Anchor `%s` on unknown chromosome %s, skipped", a.Label, a.Chrom)
			continue
		}
		if policy == WindowExclude && (a.Pos-window < 0 || a.Pos+window >= c.Length) {
			log.Warningf("Anchor `%s` window exceeds %s bounds, excluded", a.Label, a.Chrom)
			continue
		}
		kept = append(kept, a)
	}

	agg := &AggregatedProfile{
		Offsets:   offsets,
		Anchors:   kept,
		Columns:   bp.Columns,
		Mean:      make(map[string][]float64),
		Std:       make(map[string][]float64),
		Median:    make(map[string][]float64),
		PerAnchor: make(map[string][][]float64),
	}

	for _, col := range bp.Columns {
		values := bp.Values[col]
		rows := make([][]float64, len(kept))
		for ai, a := range kept {
			anchorBin := a.Pos / binSize * binSize
			row := make([]float64, len(offsets))
			for oi, off := range offsets {
				row[oi] = math.NaN()
				binStart := anchorBin + off
				if binStart < 0 {
					continue
				}
				idx := bp.binIndex(a.Chrom, binStart)
				if idx < 0 || idx >= len(bp.Bins) || bp.Bins[idx].Chrom != a.Chrom {
					continue
				}
				row[oi] = values[idx]
			}
			rows[ai] = row
		}
		agg.PerAnchor[col] = rows

		mean := make([]float64, len(offsets))
		std := make([]float64, len(offsets))
		median := make([]float64, len(offsets))
		for oi := range offsets {
			var defined []float64
			for ai := range kept {
				if v := rows[ai][oi]; !math.IsNaN(v) {
					defined = append(defined, v)
				}
			}
			if len(defined) == 0 {
				mean[oi], std[oi], median[oi] = math.NaN(), math.NaN(), math.NaN()
				continue
			}
			sort.Float64s(defined)
			mean[oi] = stat.Mean(defined, nil)
			std[oi] = stat.StdDev(defined, nil)
			median[oi] = stat.Quantile(0.5, stat.LinInterp, defined, nil)
		}
		agg.Mean[col] = mean
		agg.Std[col] = std
		agg.Median[col] = median
	}
	return agg
}

// writeSummary writes one offset-indexed summary table
func (r *AggregatedProfile) writeSummary(values map[string][]float64, outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprint(w, "chr_bins")
	for _, col := range r.Columns {
		fmt.Fprintf(w, "\t%s", col)
	}
	fmt.Fprintln(w)
	for oi, off := range r.Offsets {
		fmt.Fprintf(w, "%d", off)
		for _, col := range r.Columns {
			fmt.Fprintf(w, "\t%g", values[col][oi])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	log.Noticef("Aggregated table written to `%s`", outfile)
}

// WriteMean writes the across-anchor mean at each offset
func (r *AggregatedProfile) WriteMean(outfile string) { r.writeSummary(r.Mean, outfile) }

// WriteStd writes the across-anchor standard deviation at each offset
func (r *AggregatedProfile) WriteStd(outfile string) { r.writeSummary(r.Std, outfile) }

// WriteMedian writes the across-anchor median at each offset
func (r *AggregatedProfile) WriteMedian(outfile string) { r.writeSummary(r.Median, outfile) }

// WritePerAnchor writes, for one column, the full anchor-by-offset matrix
func (r *AggregatedProfile) WritePerAnchor(col, outfile string) {
	rows, ok := r.PerAnchor[col]
	if !ok {
		log.Warningf("No aggregated values for column `%s`", col)
		return
	}
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprint(w, "chr_bins")
	for _, a := range r.Anchors {
		fmt.Fprintf(w, "\t%s", a.Label)
	}
	fmt.Fprintln(w)
	for oi, off := range r.Offsets {
		fmt.Fprintf(w, "%d", off)
		for ai := range r.Anchors {
			fmt.Fprintf(w, "\t%g", rows[ai][oi])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	log.Noticef("Per-anchor table for `%s` written to `%s`", col, outfile)
}

// AggregateByArm averages each column over the telomere-proximal windows of
// every chromosome arm, grouped by the arm length category recorded in the
// chromosome coordinates. The category field holds the left and right arm
// classes joined by an underscore, e.g. small_long.
func AggregateByArm(bp *BinnedProfile, teloWindow int) (categories []string, means map[string][]float64) {
	binSize := bp.BinSize
	catRows := make(map[string][]int)
	for _, c := range bp.Genome.Chroms {
		parts := strings.SplitN(c.Category, "_", 2)
		if len(parts) != 2 || c.LeftArm <= 0 {
			continue
		}
		leftCat, rightCat := parts[0], parts[1]
		for i, bin := range bp.Bins {
			if bin.Chrom != c.Name {
				continue
			}
			if bin.Start < teloWindow+binSize {
				catRows[leftCat] = append(catRows[leftCat], i)
			}
			if bin.Start > c.Length-teloWindow-binSize {
				catRows[rightCat] = append(catRows[rightCat], i)
			}
		}
	}
	for cat := range catRows {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	means = make(map[string][]float64)
	for _, col := range bp.Columns {
		values := bp.Values[col]
		row := make([]float64, len(categories))
		for ci, cat := range categories {
			var defined []float64
			for _, i := range catRows[cat] {
				if v := values[i]; !math.IsNaN(v) {
					defined = append(defined, v)
				}
			}
			if len(defined) > 0 {
				row[ci] = stat.Mean(defined, nil)
			} else {
				row[ci] = math.NaN()
			}
		}
		means[col] = row
	}
	return categories, means
}

// WriteArmMeans writes the per-arm-category means, one row per column
func WriteArmMeans(categories []string, means map[string][]float64, columns []string, outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprint(w, "fragments")
	for _, cat := range categories {
		fmt.Fprintf(w, "\t%s", cat)
	}
	fmt.Fprintln(w)
	for _, col := range columns {
		fmt.Fprint(w, col)
		for ci := range categories {
			fmt.Fprintf(w, "\t%g", means[col][ci])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	log.Noticef("Arm category means written to `%s`", outfile)
}

// Aggregator runs the aggregation step from a binned profile
type Aggregator struct {
	ProfileFile   string
	ChrCoordsFile string
	ProbesFile    string
	// On selects the anchor set: centromeres, telomeres or a table path
	On           string
	AnchorsFile  string
	Window       int
	Policy       string
	ExcludedChrs []string
	// ExcludeProbeChr masks each probe's own chromosome before averaging
	ExcludeProbeChr bool
	InterNorm       bool
	ArmSizes        bool
	OutPrefix       string
}

// Run aggregates and writes the summary tables
func (r *Aggregator) Run() {
	genome := LoadGenome(r.ChrCoordsFile, "")
	bp := ParseBinnedProfile(r.ProfileFile, genome)

	var anchors []Anchor
	switch r.On {
	case "centromeres":
		anchors = CentromereAnchors(genome, r.ExcludedChrs)
	case "telomeres":
		anchors = TelomereAnchors(genome, r.ExcludedChrs)
	default:
		anchors = ParseAnchors(r.AnchorsFile)
	}
	if len(anchors) == 0 {
		ErrorAbort(fmt.Errorf("no usable anchors for `%s`", r.On))
	}

	DropChromosomes(bp, r.ExcludedChrs)
	if r.ExcludeProbeChr {
		assoc := AssociateProbes(genome, ParseProbes(r.ProbesFile))
		MaskProbeChromosomes(bp, assoc, r.ExcludedChrs)
	}
	norm := "absolute"
	if r.InterNorm {
		InterNormalize(bp)
		norm = "inter"
	}

	agg := Aggregate(bp, anchors, r.Window, r.Policy)
	if r.OutPrefix == "" {
		r.OutPrefix = RemoveExt(r.ProfileFile)
	}
	prefix := fmt.Sprintf("%s_%s_%s", r.OutPrefix, r.On, norm)
	agg.WriteMean(prefix + "_mean.tsv")
	agg.WriteStd(prefix + "_std.tsv")
	agg.WriteMedian(prefix + "_median.tsv")
	for _, col := range agg.Columns {
		if sumf(agg.Mean[col]) == 0 {
			continue
		}
		agg.WritePerAnchor(col, fmt.Sprintf("%s_%s_per_anchor.tsv", prefix, col))
	}

	if r.ArmSizes && r.On == "telomeres" {
		categories, means := AggregateByArm(bp, ArmLengthTeloWindow)
		WriteArmMeans(categories, means, bp.Columns, prefix+"_by_arm_sizes.tsv")
	}
	log.Notice("Success")
}
