/*
 *  probe.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Probe types as they appear in the capture oligo table
const (
	ProbeSS = "ss"
	ProbeDS = "ds"
)

// Probe is one engineered capture oligo anchored at a known genomic position
type Probe struct {
	Name  string
	Type  string
	Chrom string
	Start int
	End   int
	Group string
}

// Midpoint returns the anchor coordinate used for fragment association
func (r *Probe) Midpoint() int {
	if r.End > r.Start {
		return r.Start + (r.End-r.Start)/2
	}
	return r.Start
}

// Association maps probes to their containing fragments and back. Built once
// by AssociateProbes, read-only afterward.
type Association struct {
	Probes []*Probe

	probeFrag  map[string]*Fragment
	fragProbes map[int][]*Probe
}

// ParseProbes reads the capture oligo table. Columns are located by header
// name so both the minimal (name, chr, start, type) and the extended
// oligo-capture layouts parse; end and group are optional.
func ParseProbes(filename string) []Probe {
	log.Noticef("Parse probe table `%s`", filename)

	fh := mustOpen(filename)
	defer fh.Close()

	headerLine, err := fh.ReadString('\n')
	if err != nil && err != io.EOF {
		ErrorAbort(err)
	}
	delim := detectDelimiter(headerLine)
	cols := map[string]int{}
	for i, name := range strings.Split(strings.TrimSpace(headerLine), string(delim)) {
		cols[strings.ToLower(name)] = i
	}
	for _, required := range []string{"name", "chr", "start", "type"} {
		if _, ok := cols[required]; !ok {
			log.Fatalf("%s: missing required column `%s`: %v", filename, required, errors.Wrap(ErrInputFormat, headerLine))
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var probes []Probe
	r := csv.NewReader(bufio.NewReader(fh))
	r.Comma = delim
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		start, err := strconv.Atoi(field(rec, "start"))
		if err != nil {
			log.Fatalf("%s: bad probe start `%s`", filename, field(rec, "start"))
		}
		p := Probe{
			Name:  field(rec, "name"),
			Type:  field(rec, "type"),
			Chrom: field(rec, "chr"),
			Start: start,
			Group: field(rec, "group"),
		}
		if s := field(rec, "end"); s != "" {
			p.End, _ = strconv.Atoi(s)
		}
		probes = append(probes, p)
	}
	log.Noticef("Loaded %d probes", len(probes))
	return probes
}

// AssociateProbes places each probe on the fragment containing its midpoint.
// Fragments are half-open intervals, so a midpoint that falls exactly on a
// boundary always belongs to the downstream fragment (the one starting
// there); the tie-break is fixed and deterministic. Probes that cannot be
// placed are reported and excluded, never fatal.
func AssociateProbes(genome *Genome, probes []Probe) *Association {
	assoc := &Association{
		probeFrag:  make(map[string]*Fragment),
		fragProbes: make(map[int][]*Probe),
	}
	excluded := 0
	for i := range probes {
		p := &probes[i]
		frag, err := genome.Resolve(p.Chrom, p.Midpoint())
		if err != nil {
			log.Warningf("Probe `%s` excluded: %s: %s", p.Name, ErrUnassociatedProbe, err)
			excluded++
			continue
		}
		assoc.Probes = append(assoc.Probes, p)
		assoc.probeFrag[p.Name] = frag
		assoc.fragProbes[frag.ID] = append(assoc.fragProbes[frag.ID], p)
	}
	log.Noticef("Associated %s probes to fragments", Percentage(len(assoc.Probes), len(probes)))
	if excluded > 0 {
		log.Warningf("%d probes had no containing fragment", excluded)
	}
	return assoc
}

// FragmentOf returns the fragment hosting a probe, nil when the probe was
// excluded during association
func (r *Association) FragmentOf(probe string) *Fragment {
	return r.probeFrag[probe]
}

// FragmentsOf returns the fragments of one probe's locus. Midpoint
// association yields a single fragment; callers treat the slice as one
// logical locus and sum over it.
func (r *Association) FragmentsOf(probe string) []*Fragment {
	if f := r.probeFrag[probe]; f != nil {
		return []*Fragment{f}
	}
	return nil
}

// ProbesOf returns the probes hosted by a fragment
func (r *Association) ProbesOf(fragID int) []*Probe {
	return r.fragProbes[fragID]
}

// IsProbeFragment reports whether a fragment hosts at least one probe
func (r *Association) IsProbeFragment(fragID int) bool {
	return len(r.fragProbes[fragID]) > 0
}

// ProbeFragIDs returns the distinct probe-associated fragment ids, sorted
func (r *Association) ProbeFragIDs() []int {
	ids := make([]int, 0, len(r.fragProbes))
	for id := range r.fragProbes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FragIDsOfType returns the distinct fragment ids hosting probes of the
// given type, sorted
func (r *Association) FragIDsOfType(probeType string) []int {
	seen := map[int]bool{}
	for id, probes := range r.fragProbes {
		for _, p := range probes {
			if p.Type == probeType {
				seen[id] = true
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// WriteAssociation writes the probe table back with the associated fragment
// id appended, mirroring the input the downstream stages consume
func (r *Association) WriteAssociation(outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprintln(w, "name\ttype\tchr\tstart\tend\tgroup\tfragment")
	for _, p := range r.Probes {
		frag := r.probeFrag[p.Name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%d\n",
			p.Name, p.Type, p.Chrom, p.Start, p.End, p.Group, frag.ID)
	}
	w.Flush()
	log.Noticef("Probe-fragment association written to `%s`", outfile)
}
