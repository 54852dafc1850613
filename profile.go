/*
 *  profile.go
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

	"golang.org/x/sync/errgroup"
)

// ProfileSet holds one 4C-like profile per probe at fragment resolution:
// for each probe, the contact count against every partner fragment
// genome-wide. Built fresh per run, immutable afterward.
type ProfileSet struct {
	Genome *Genome
	Probes []string
	Values map[string]map[int]float64
}

// ProbeGroup sums or averages the profiles of several probes into one column
type ProbeGroup struct {
	Name   string
	Probes []string
	Action string // "sum" or "average"
}

// BuildProfiles computes every probe profile from the probe-associated pair
// set. For a probe on fragment F, each pair (F, G) contributes its count to
// partner fragment G; a self pair (F, F) contributes once to F. Probes are
// independent of each other, so they are computed on a bounded worker pool
// and merged only after all workers complete.
func BuildProfiles(probeContacts *ContactMatrix, assoc *Association, genome *Genome, workers int) *ProfileSet {
	// Read-only pair index shared by all workers
	pairsByFrag := make(map[int][]ContactPair)
	for _, p := range probeContacts.Pairs {
		pairsByFrag[p.A] = append(pairsByFrag[p.A], p)
		if p.A != p.B {
			pairsByFrag[p.B] = append(pairsByFrag[p.B], p)
		}
	}

	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]map[int]float64, len(assoc.Probes))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range assoc.Probes {
		i := i
		probe := assoc.Probes[i]
		g.Go(func() error {
			profile := make(map[int]float64)
			for _, frag := range assoc.FragmentsOf(probe.Name) {
				for _, pair := range pairsByFrag[frag.ID] {
					partner := pair.B
					if partner == frag.ID && pair.A != pair.B {
						partner = pair.A
					}
					profile[partner] += float64(pair.Count)
				}
			}
			results[i] = profile
			return nil
		})
	}
	_ = g.Wait()

	ps := &ProfileSet{Genome: genome, Values: make(map[string]map[int]float64)}
	for i, probe := range assoc.Probes {
		ps.Probes = append(ps.Probes, probe.Name)
		ps.Values[probe.Name] = results[i]
	}
	log.Noticef("Built %d probe profiles", len(ps.Probes))
	return ps
}

// ProbeTotal returns the summed contacts of one probe profile. Values are
// summed in fragment id order so the result is reproducible to the last bit.
func (r *ProfileSet) ProbeTotal(probe string) float64 {
	values := r.Values[probe]
	ids := make([]int, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	total := 0.0
	for _, id := range ids {
		total += values[id]
	}
	return total
}

// Frequencies returns a copy of the set with every probe column divided by
// that probe's total contact count. A zero total is a sentinel: the column
// stays all zero and a warning is emitted, never a crash.
func (r *ProfileSet) Frequencies() *ProfileSet {
	freq := &ProfileSet{Genome: r.Genome, Probes: r.Probes, Values: make(map[string]map[int]float64)}
	for _, probe := range r.Probes {
		total := r.ProbeTotal(probe)
		values := make(map[int]float64, len(r.Values[probe]))
		if total == 0 {
			log.Warningf("Probe `%s` has zero total contacts, frequencies left at zero", probe)
			freq.Values[probe] = values
			continue
		}
		for id, v := range r.Values[probe] {
			values[id] = v / total
		}
		freq.Values[probe] = values
	}
	return freq
}

// AddGroups appends one synthetic column per probe group, summing or
// averaging the member probe profiles. Fragments missing from a member count
// as zero, as in the dense table representation.
func (r *ProfileSet) AddGroups(groups []ProbeGroup) {
	for _, grp := range groups {
		members := []string{}
		for _, name := range grp.Probes {
			if _, ok := r.Values[name]; ok {
				members = append(members, name)
			} else {
				log.Warningf("Group `%s` references unknown probe `%s`, skipped", grp.Name, name)
			}
		}
		if len(members) == 0 {
			log.Warningf("Group `%s` has no usable probes", grp.Name)
			continue
		}
		values := make(map[int]float64)
		for _, name := range members {
			for id, v := range r.Values[name] {
				values[id] += v
			}
		}
		if grp.Action == "average" {
			for id := range values {
				values[id] /= float64(len(members))
			}
		}
		r.Probes = append(r.Probes, grp.Name)
		r.Values[grp.Name] = values
	}
}

// fragmentRows returns the distinct partner fragments touched by any probe,
// in genomic order
func (r *ProfileSet) fragmentRows() []*Fragment {
	seen := make(map[int]bool)
	for _, values := range r.Values {
		for id := range values {
			seen[id] = true
		}
	}
	var frags []*Fragment
	for id := range seen {
		if f := r.Genome.FragmentByID(id); f != nil {
			frags = append(frags, f)
		}
	}
	sort.Slice(frags, func(i, j int) bool {
		ci := r.Genome.ChromByName(frags[i].Chrom).Ordinal
		cj := r.Genome.ChromByName(frags[j].Chrom).Ordinal
		return ci < cj || (ci == cj && frags[i].Start < frags[j].Start)
	})
	return frags
}

// WriteProfile writes the fragment-resolution profile table: one row per
// partner fragment (chr, start, sizes, genome_start) and one column per probe
func (r *ProfileSet) WriteProfile(outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprint(w, "chr\tstart\tsizes\tgenome_start")
	for _, probe := range r.Probes {
		fmt.Fprintf(w, "\t%s", probe)
	}
	fmt.Fprintln(w)

	rows := r.fragmentRows()
	for _, frag := range rows {
		offset, err := r.Genome.GenomeOffset(frag.Chrom, frag.Start)
		if err != nil {
			log.Warningf("Fragment %d skipped: %s", frag.ID, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d", frag.Chrom, frag.Start, frag.Length(), offset)
		for _, probe := range r.Probes {
			fmt.Fprintf(w, "\t%s", strconv.FormatFloat(r.Values[probe][frag.ID], 'g', -1, 64))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	log.Noticef("Profile with %d rows and %d probes written to `%s`", len(rows), len(r.Probes), outfile)
}

// ParseGroups reads the probe groups table (name, probes, action), probes
// being a comma-joined list
func ParseGroups(filename string) []ProbeGroup {
	var groups []ProbeGroup
	for _, rec := range ReadTableLines(filename) {
		if len(rec) < 3 {
			log.Fatalf("%s: group row needs (name, probes, action): %v", filename, rec)
		}
		groups = append(groups, ProbeGroup{
			Name:   rec[0],
			Probes: splitList(rec[1]),
			Action: rec[2],
		})
	}
	log.Noticef("Loaded %d probe groups", len(groups))
	return groups
}

// splitList splits a comma-joined list of names
func splitList(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// Profiler runs the profile step from input files
type Profiler struct {
	FilteredFile  string
	ProbesFile    string
	ChrCoordsFile string
	FragmentsFile string
	GroupsFile    string
	Workers       int
	// Output files
	OutContactsFile    string
	OutFrequenciesFile string
}

// Run rebuilds the probe-associated pair set from the filtered table and
// writes the contact and frequency profiles
func (r *Profiler) Run() {
	genome := LoadGenome(r.ChrCoordsFile, r.FragmentsFile)
	assoc := AssociateProbes(genome, ParseProbes(r.ProbesFile))
	probeContacts := ParseFilteredTable(r.FilteredFile)

	ps := BuildProfiles(probeContacts, assoc, genome, r.Workers)
	freq := ps.Frequencies()
	if r.GroupsFile != "" {
		groups := ParseGroups(r.GroupsFile)
		ps.AddGroups(groups)
		freq.AddGroups(groups)
	}

	prefix := RemoveExt(r.FilteredFile)
	if r.OutContactsFile == "" {
		r.OutContactsFile = prefix + "_profile_contacts.tsv"
	}
	if r.OutFrequenciesFile == "" {
		r.OutFrequenciesFile = prefix + "_profile_frequencies.tsv"
	}
	ps.WriteProfile(r.OutContactsFile)
	freq.WriteProfile(r.OutFrequenciesFile)
	log.Notice("Success")
}

// ParseFilteredTable reads back the annotated filtered table written by the
// filter step into a pair set
func ParseFilteredTable(filename string) *ContactMatrix {
	m := &ContactMatrix{}
	for _, rec := range ReadTableLines(filename) {
		if len(rec) < 11 {
			log.Fatalf("%s: filtered row needs 11 columns: %v", filename, rec)
		}
		a, err1 := strconv.Atoi(rec[0])
		b, err2 := strconv.Atoi(rec[5])
		count, err3 := strconv.Atoi(rec[10])
		if err1 != nil || err2 != nil || err3 != nil {
			log.Fatalf("%s: bad filtered row: %v", filename, rec)
		}
		m.Pairs = append(m.Pairs, ContactPair{A: a, B: b, Count: count})
	}
	log.Noticef("Loaded %d filtered pairs", len(m.Pairs))
	return m
}
