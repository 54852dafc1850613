/*
 *  filter.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"fmt"
)

// FilterContacts partitions the sparse matrix into the pairs touching at
// least one probe-associated fragment and the pairs touching none. The two
// sets partition the input exactly: every pair lands in one of them, a pair
// with two probe ends appears once in the probe set (probe attribution
// happens later, in the profile builder).
func FilterContacts(m *ContactMatrix, assoc *Association) (probeContacts, hicOnly *ContactMatrix) {
	probeContacts = &ContactMatrix{}
	hicOnly = &ContactMatrix{}
	for _, p := range m.Pairs {
		if assoc.IsProbeFragment(p.A) || assoc.IsProbeFragment(p.B) {
			probeContacts.Pairs = append(probeContacts.Pairs, p)
		} else {
			hicOnly.Pairs = append(hicOnly.Pairs, p)
		}
	}
	log.Noticef("Kept %s probe-associated pairs, %d Hi-C only pairs",
		Percentage(len(probeContacts.Pairs), len(m.Pairs)), len(hicOnly.Pairs))
	return probeContacts, hicOnly
}

// FlankingFragIDs expands a set of fragment ids with their n nearest
// neighbors on each side along the chromosome
func FlankingFragIDs(genome *Genome, fragIDs []int, n int) map[int]bool {
	expanded := make(map[int]bool)
	for _, id := range fragIDs {
		frag := genome.FragmentByID(id)
		if frag == nil {
			continue
		}
		expanded[id] = true
		chromFrags := genome.FragmentsOf(frag.Chrom)
		pos := -1
		for i, f := range chromFrags {
			if f.ID == id {
				pos = i
				break
			}
		}
		if pos < 0 {
			continue
		}
		for i := max(0, pos-n); i <= min(len(chromFrags)-1, pos+n); i++ {
			expanded[chromFrags[i].ID] = true
		}
	}
	return expanded
}

// HicOnlyContacts returns the pairs where neither end is probe-associated.
// With flanking > 0, the n fragments on each side of every dsDNA probe
// fragment are treated as probe-associated too, since capture leakage
// reaches into them.
func HicOnlyContacts(m *ContactMatrix, assoc *Association, genome *Genome, flanking int) *ContactMatrix {
	_, hicOnly := FilterContacts(m, assoc)
	if flanking <= 0 {
		return hicOnly
	}
	banned := FlankingFragIDs(genome, assoc.FragIDsOfType(ProbeDS), flanking)
	kept := &ContactMatrix{}
	for _, p := range hicOnly.Pairs {
		if banned[p.A] || banned[p.B] {
			continue
		}
		kept.Pairs = append(kept.Pairs, p)
	}
	log.Noticef("Removed %d pairs flanking dsDNA probe fragments (n = %d)",
		len(hicOnly.Pairs)-len(kept.Pairs), flanking)
	return kept
}

// Filterer runs the contact filtering step from input files
type Filterer struct {
	MatrixFile    string
	FragmentsFile string
	ChrCoordsFile string
	ProbesFile    string
	Flanking      int
	// Output files
	OutFilteredFile string
	OutHicOnlyFile  string
}

// Run filters the sparse matrix and writes the probe-associated pairs as an
// annotated table plus the Hi-C only complement as a sparse matrix
func (r *Filterer) Run() {
	genome := LoadGenome(r.ChrCoordsFile, r.FragmentsFile)
	assoc := AssociateProbes(genome, ParseProbes(r.ProbesFile))
	m := ParseMatrix(r.MatrixFile)

	probeContacts, _ := FilterContacts(m, assoc)
	if r.OutFilteredFile == "" {
		r.OutFilteredFile = RemoveExt(r.MatrixFile) + "_filtered.tsv"
	}
	WriteFilteredTable(probeContacts, genome, assoc, r.OutFilteredFile)

	hicOnly := HicOnlyContacts(m, assoc, genome, r.Flanking)
	if r.OutHicOnlyFile == "" {
		r.OutHicOnlyFile = RemoveExt(r.MatrixFile) + "_hiconly.txt"
	}
	WriteMatrix(hicOnly, r.OutHicOnlyFile)
	log.Notice("Success")
}

// WriteFilteredTable writes the probe-associated pairs with both ends
// annotated with their fragment coordinates and hosted probe names
func WriteFilteredTable(m *ContactMatrix, genome *Genome, assoc *Association, outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprintln(w, "frag_a\tchr_a\tstart_a\tend_a\tname_a\tfrag_b\tchr_b\tstart_b\tend_b\tname_b\tcontacts")
	written := 0
	for _, p := range m.Pairs {
		fa, fb := genome.FragmentByID(p.A), genome.FragmentByID(p.B)
		if fa == nil || fb == nil {
			log.Warningf("Pair (%d, %d) references an unknown fragment, skipped", p.A, p.B)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%d\t%s\t%d\t%d\t%s\t%d\n",
			fa.ID, fa.Chrom, fa.Start, fa.End, probeNames(assoc, fa.ID),
			fb.ID, fb.Chrom, fb.Start, fb.End, probeNames(assoc, fb.ID),
			p.Count)
		written++
	}
	w.Flush()
	log.Noticef("Filtered table with %d pairs written to `%s`", written, outfile)
}

// probeNames joins the names of probes hosted by a fragment
func probeNames(assoc *Association, fragID int) string {
	probes := assoc.ProbesOf(fragID)
	if len(probes) == 0 {
		return ""
	}
	names := probes[0].Name
	for _, p := range probes[1:] {
		names += "-/-" + p.Name
	}
	return names
}
