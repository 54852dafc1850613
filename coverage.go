/*
 *  coverage.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"fmt"
	"sort"
)

// CoverageTrack maps each fragment to its summed contact count
type CoverageTrack struct {
	Genome *Genome
	Values map[int]float64
}

// Coverage sums, per fragment, the counts of all pairs touching it. A self
// pair (A,A) contributes once, not twice.
func Coverage(m *ContactMatrix, genome *Genome) *CoverageTrack {
	t := &CoverageTrack{Genome: genome, Values: make(map[int]float64)}
	for _, p := range m.Pairs {
		t.Values[p.A] += float64(p.Count)
		if p.A != p.B {
			t.Values[p.B] += float64(p.Count)
		}
	}
	return t
}

// Total returns the summed coverage over all fragments. Values are summed in
// fragment id order so the result is reproducible to the last bit.
func (r *CoverageTrack) Total() float64 {
	ids := make([]int, 0, len(r.Values))
	for id := range r.Values {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	total := 0.0
	for _, id := range ids {
		total += r.Values[id]
	}
	return total
}

// Normalize divides every value by the track total; a zero total leaves the
// track untouched with a warning
func (r *CoverageTrack) Normalize() {
	total := r.Total()
	if total == 0 {
		log.Warningf("Coverage total is zero, normalization skipped")
		return
	}
	for id := range r.Values {
		r.Values[id] /= total
	}
}

// WriteBedgraph writes the track as (chromosome, start, end, value) rows in
// genomic order, covered fragments only
func (r *CoverageTrack) WriteBedgraph(outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	written := 0
	for _, c := range r.Genome.Chroms {
		for _, frag := range r.Genome.FragmentsOf(c.Name) {
			v, ok := r.Values[frag.ID]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%g\n", frag.Chrom, frag.Start, frag.End, v)
			written++
		}
	}
	w.Flush()
	log.Noticef("Coverage for %d fragments written to `%s`", written, outfile)
}

// Coverager runs the coverage step from input files
type Coverager struct {
	MatrixFile    string
	FragmentsFile string
	ChrCoordsFile string
	Normalize     bool
	// Output file
	OutBedgraphFile string
}

// Run computes the per-fragment coverage and writes the bedgraph
func (r *Coverager) Run() {
	genome := LoadGenome(r.ChrCoordsFile, r.FragmentsFile)
	m := ParseMatrix(r.MatrixFile)

	t := Coverage(m, genome)
	if r.Normalize {
		t.Normalize()
	}
	if r.OutBedgraphFile == "" {
		r.OutBedgraphFile = RemoveExt(r.MatrixFile) + "_coverage.bedgraph"
	}
	t.WriteBedgraph(r.OutBedgraphFile)
	log.Notice("Success")
}
