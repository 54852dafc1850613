/*
 *  rebin.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/kshedden/gonpy"
)

// Bin is one fixed-width genomic interval of the rebinned template
type Bin struct {
	Chrom string
	Start int
}

// BinnedProfile is a profile resampled onto the uniform bin template: every
// chromosome is padded to full bins, so all probe columns share the same
// row set. Values may be NaN where a mask marked them undefined.
type BinnedProfile struct {
	Genome  *Genome
	BinSize int
	Bins    []Bin
	Columns []string
	Values  map[string][]float64

	chromFirst map[string]int
}

// profileRow is one source interval with its per-column signal
type profileRow struct {
	chrom      string
	start, end int
	values     []float64
}

// newBinnedTemplate lays out the genome-wide bin template at the given
// resolution, one trailing partial bin per chromosome included
func newBinnedTemplate(genome *Genome, binSize int) *BinnedProfile {
	bp := &BinnedProfile{
		Genome:     genome,
		BinSize:    binSize,
		Values:     make(map[string][]float64),
		chromFirst: make(map[string]int),
	}
	for _, c := range genome.Chroms {
		bp.chromFirst[c.Name] = len(bp.Bins)
		nBins := c.Length/binSize + 1
		for i := 0; i < nBins; i++ {
			bp.Bins = append(bp.Bins, Bin{Chrom: c.Name, Start: i * binSize})
		}
	}
	return bp
}

// binIndex returns the template index of (chromosome, bin start), -1 if the
// chromosome is not part of the template
func (r *BinnedProfile) binIndex(chrom string, binStart int) int {
	first, ok := r.chromFirst[chrom]
	if !ok {
		return -1
	}
	return first + binStart/r.BinSize
}

// rebinRows redistributes interval signal into the bin template. Each source
// interval's value is split across the bins it overlaps proportionally to
// the overlapped length, so the total is conserved. Signal is assumed
// uniform within an interval; splitting finer than the source intervals
// cannot recover their internal distribution, it only divides it evenly.
func rebinRows(genome *Genome, binSize int, columns []string, rows []profileRow) *BinnedProfile {
	bp := newBinnedTemplate(genome, binSize)
	bp.Columns = columns
	for _, col := range columns {
		bp.Values[col] = make([]float64, len(bp.Bins))
	}

	for _, row := range rows {
		length := row.end - row.start
		if length <= 0 {
			continue
		}
		for b := row.start / binSize; b*binSize < row.end; b++ {
			binStart := b * binSize
			idx := bp.binIndex(row.chrom, binStart)
			if idx < 0 || idx >= len(bp.Bins) || bp.Bins[idx].Chrom != row.chrom {
				log.Warningf("Interval %s:%d-%d falls outside the bin template, skipped", row.chrom, row.start, row.end)
				break
			}
			overlap := min(row.end, binStart+binSize) - max(row.start, binStart)
			factor := float64(overlap) / float64(length)
			for ci, v := range row.values {
				if math.IsNaN(v) {
					continue
				}
				bp.Values[columns[ci]][idx] += v * factor
			}
		}
	}
	return bp
}

// Rebin resamples the fragment-resolution profile set onto fixed-width bins
func Rebin(ps *ProfileSet, binSize int) *BinnedProfile {
	columns := ps.Probes
	var rows []profileRow
	for _, frag := range ps.fragmentRows() {
		values := make([]float64, len(columns))
		for ci, probe := range columns {
			values[ci] = ps.Values[probe][frag.ID]
		}
		rows = append(rows, profileRow{chrom: frag.Chrom, start: frag.Start, end: frag.End, values: values})
	}
	bp := rebinRows(ps.Genome, binSize, columns, rows)
	log.Noticef("Rebinned %d fragments into %d bins of %d bp", len(rows), len(bp.Bins), binSize)
	return bp
}

// Rebin resamples a binned profile onto another resolution. Rebinning onto
// the same resolution is the identity.
func (r *BinnedProfile) Rebin(binSize int) *BinnedProfile {
	var rows []profileRow
	for i, bin := range r.Bins {
		c := r.Genome.ChromByName(bin.Chrom)
		end := min(bin.Start+r.BinSize, c.Length)
		if end <= bin.Start {
			end = bin.Start + r.BinSize
		}
		values := make([]float64, len(r.Columns))
		for ci, col := range r.Columns {
			values[ci] = r.Values[col][i]
		}
		rows = append(rows, profileRow{chrom: bin.Chrom, start: bin.Start, end: end, values: values})
	}
	return rebinRows(r.Genome, binSize, r.Columns, rows)
}

// ColumnSum returns the summed signal of one column, NaN entries skipped
func (r *BinnedProfile) ColumnSum(col string) float64 {
	return sumf(r.Values[col])
}

// Write writes the binned profile as (chr, chr_bins, genome_bins, columns...)
func (r *BinnedProfile) Write(outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprint(w, "chr\tchr_bins\tgenome_bins")
	for _, col := range r.Columns {
		fmt.Fprintf(w, "\t%s", col)
	}
	fmt.Fprintln(w)
	for i, bin := range r.Bins {
		c := r.Genome.ChromByName(bin.Chrom)
		genomeBin := c.Offset + int64(bin.Start)
		fmt.Fprintf(w, "%s\t%d\t%d", bin.Chrom, bin.Start, genomeBin)
		for _, col := range r.Columns {
			fmt.Fprintf(w, "\t%s", strconv.FormatFloat(r.Values[col][i], 'g', -1, 64))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	log.Noticef("Binned profile (%d bp, %d bins) written to `%s`", r.BinSize, len(r.Bins), outfile)
}

// ExportNpy dumps the value matrix (bins x columns, row major) as a .npy
// file for the external viewer
func (r *BinnedProfile) ExportNpy(outfile string) {
	w, err := gonpy.NewFileWriter(outfile)
	ErrorAbort(err)
	w.Shape = []int{len(r.Bins), len(r.Columns)}
	data := make([]float64, 0, len(r.Bins)*len(r.Columns))
	for i := range r.Bins {
		for _, col := range r.Columns {
			data = append(data, r.Values[col][i])
		}
	}
	ErrorAbort(w.WriteFloat64(data))
	log.Noticef("Binned matrix exported to `%s`", outfile)
}

// ParseProfileTable reads a fragment-resolution profile table back into
// rows; used by the rebin command which starts from the profile file
func ParseProfileTable(filename string, genome *Genome) ([]string, []profileRow) {
	fh := mustOpen(filename)
	header, err := fh.ReadString('\n')
	fh.Close()
	if err != nil && err != io.EOF {
		ErrorAbort(err)
	}
	columns := splitTSVHeader(header)
	if len(columns) < 5 || columns[0] != "chr" || columns[1] != "start" || columns[2] != "sizes" {
		log.Fatalf("%s: unexpected profile header %q: %v", filename, header, ErrInputFormat)
	}
	probeCols := columns[4:]

	var rows []profileRow
	for _, rec := range ReadTableLines(filename) {
		start, err1 := strconv.Atoi(rec[1])
		size, err2 := strconv.Atoi(rec[2])
		if err1 != nil || err2 != nil {
			log.Fatalf("%s: bad profile row: %v", filename, rec)
		}
		values := make([]float64, len(probeCols))
		for i := range probeCols {
			values[i] = parseFloat(rec[4+i])
		}
		rows = append(rows, profileRow{chrom: rec[0], start: start, end: start + size, values: values})
	}
	return probeCols, rows
}

// ParseBinnedProfile reads a binned profile table written by Write
func ParseBinnedProfile(filename string, genome *Genome) *BinnedProfile {
	fh := mustOpen(filename)
	header, err := fh.ReadString('\n')
	fh.Close()
	if err != nil && err != io.EOF {
		ErrorAbort(err)
	}
	columns := splitTSVHeader(header)
	if len(columns) < 4 || columns[0] != "chr" || columns[1] != "chr_bins" {
		log.Fatalf("%s: unexpected binned profile header %q: %v", filename, header, ErrInputFormat)
	}
	probeCols := columns[3:]

	records := ReadTableLines(filename)
	if len(records) < 2 {
		log.Fatalf("%s: binned profile needs at least two rows to infer the resolution", filename)
	}
	first, _ := strconv.Atoi(records[0][1])
	second, _ := strconv.Atoi(records[1][1])
	binSize := second - first
	if binSize <= 0 {
		log.Fatalf("%s: cannot infer bin size from rows %v and %v", filename, records[0], records[1])
	}

	bp := newBinnedTemplate(genome, binSize)
	bp.Columns = probeCols
	for _, col := range probeCols {
		values := make([]float64, len(bp.Bins))
		bp.Values[col] = values
	}
	for _, rec := range records {
		binStart, err := strconv.Atoi(rec[1])
		if err != nil {
			log.Fatalf("%s: bad bin start: %v", filename, rec)
		}
		idx := bp.binIndex(rec[0], binStart)
		if idx < 0 || idx >= len(bp.Bins) || bp.Bins[idx].Chrom != rec[0] {
			log.Warningf("Bin %s:%d outside the genome template, skipped", rec[0], binStart)
			continue
		}
		for i, col := range probeCols {
			bp.Values[col][idx] = parseFloat(rec[3+i])
		}
	}
	log.Noticef("Loaded binned profile (%d bp, %d columns) from `%s`", binSize, len(probeCols), filename)
	return bp
}

// parseFloat parses a float, empty and NA tokens decode to NaN
func parseFloat(s string) float64 {
	if s == "" || s == "NA" || s == "NaN" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("Bad float token `%s`", s)
	}
	return v
}

// splitTSVHeader splits a header line on tabs, trimming the trailing newline
func splitTSVHeader(line string) []string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	var out []string
	start := 0
	for i := 0; i <= len(line); i++ {
		if i == len(line) || line[i] == '\t' {
			out = append(out, line[start:i])
			start = i + 1
		}
	}
	return out
}

// Rebinner runs the rebin step from input files
type Rebinner struct {
	ProfileFile   string
	ChrCoordsFile string
	BinSize       int
	ExportNpy     bool
	// Output file
	OutBinnedFile string
}

// Run resamples a fragment-resolution profile file onto the requested
// resolution
func (r *Rebinner) Run() {
	genome := NewGenome(ParseChrCoords(r.ChrCoordsFile))
	columns, rows := ParseProfileTable(r.ProfileFile, genome)
	bp := rebinRows(genome, r.BinSize, columns, rows)
	if r.OutBinnedFile == "" {
		r.OutBinnedFile = fmt.Sprintf("%s_%dkb.tsv", RemoveExt(r.ProfileFile), r.BinSize/1000)
	}
	bp.Write(r.OutBinnedFile)
	if r.ExportNpy {
		bp.ExportNpy(RemoveExt(r.OutBinnedFile) + ".npy")
	}
	log.Notice("Success")
}
