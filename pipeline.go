/*
 *  pipeline.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"fmt"
	"strings"
)

// Banner prints a framed notice marking the start of a pipeline stage
func Banner(message string) {
	message = "* " + message + " *"
	log.Noticef(strings.Repeat("*", len(message)))
	log.Noticef(message)
	log.Noticef(strings.Repeat("*", len(message)))
}

// Pipeliner chains the whole run for one sample: filter, coverage, profile,
// statistics, rebinning at each requested resolution and anchor aggregation
// around centromeres and telomeres. Every stage writes its artifact before
// the next stage reads it back, so a run can be resumed from any stage's
// output file.
type Pipeliner struct {
	MatrixFile    string
	ChrCoordsFile string
	FragmentsFile string
	ProbesFile    string
	GroupsFile    string

	Flanking     int
	CisRange     int
	BinSizes     []int
	CenWindow    int
	TeloWindow   int
	ExcludedChrs []string
	Workers      int
}

// Run executes every stage in order
func (r *Pipeliner) Run() {
	if r.Workers == 0 {
		r.Workers = DefaultWorkers
	}
	if len(r.BinSizes) == 0 {
		r.BinSizes = []int{DefaultBinSize, DefaultCenBinSize}
	}

	Banner(fmt.Sprintf("Filter started (flanking = %d)", r.Flanking))
	filterer := Filterer{MatrixFile: r.MatrixFile, FragmentsFile: r.FragmentsFile,
		ChrCoordsFile: r.ChrCoordsFile, ProbesFile: r.ProbesFile, Flanking: r.Flanking}
	filterer.Run()

	Banner("Coverage started")
	coverager := Coverager{MatrixFile: r.MatrixFile, FragmentsFile: r.FragmentsFile,
		ChrCoordsFile: r.ChrCoordsFile}
	coverager.Run()

	Banner("Hi-C only coverage started")
	hicCoverager := Coverager{MatrixFile: filterer.OutHicOnlyFile,
		FragmentsFile: r.FragmentsFile, ChrCoordsFile: r.ChrCoordsFile}
	hicCoverager.Run()

	Banner(fmt.Sprintf("Profile started (%d workers)", r.Workers))
	profiler := Profiler{FilteredFile: filterer.OutFilteredFile, ProbesFile: r.ProbesFile,
		ChrCoordsFile: r.ChrCoordsFile, FragmentsFile: r.FragmentsFile,
		GroupsFile: r.GroupsFile, Workers: r.Workers}
	profiler.Run()

	Banner(fmt.Sprintf("Statistics started (cis range = %d)", r.CisRange))
	statser := Statser{ProfileFile: filterer.OutFilteredFile, MatrixFile: r.MatrixFile,
		ChrCoordsFile: r.ChrCoordsFile, FragmentsFile: r.FragmentsFile,
		ProbesFile: r.ProbesFile, CisRange: r.CisRange}
	statser.Run()

	binnedFiles := make(map[int]string)
	for _, binSize := range r.BinSizes {
		Banner(fmt.Sprintf("Rebin at %d bp started", binSize))
		rebinner := Rebinner{ProfileFile: profiler.OutFrequenciesFile,
			ChrCoordsFile: r.ChrCoordsFile, BinSize: binSize}
		rebinner.Run()
		binnedFiles[binSize] = rebinner.OutBinnedFile
	}

	cenFile, ok := binnedFiles[DefaultCenBinSize]
	if !ok {
		Banner(fmt.Sprintf("Rebin at %d bp started (for centromere aggregation)", DefaultCenBinSize))
		rebinner := Rebinner{ProfileFile: profiler.OutFrequenciesFile,
			ChrCoordsFile: r.ChrCoordsFile, BinSize: DefaultCenBinSize}
		rebinner.Run()
		cenFile = rebinner.OutBinnedFile
	}
	Banner(fmt.Sprintf("Aggregate around centromeres started (window = %d)", r.CenWindow))
	cenAggregator := Aggregator{ProfileFile: cenFile, ChrCoordsFile: r.ChrCoordsFile,
		ProbesFile: r.ProbesFile, On: "centromeres", Window: r.CenWindow,
		Policy: WindowClip, ExcludedChrs: r.ExcludedChrs,
		ExcludeProbeChr: true, InterNorm: true}
	cenAggregator.Run()

	teloFile, ok := binnedFiles[DefaultTeloBinSize]
	if !ok {
		Banner(fmt.Sprintf("Rebin at %d bp started (for telomere aggregation)", DefaultTeloBinSize))
		rebinner := Rebinner{ProfileFile: profiler.OutFrequenciesFile,
			ChrCoordsFile: r.ChrCoordsFile, BinSize: DefaultTeloBinSize}
		rebinner.Run()
		teloFile = rebinner.OutBinnedFile
	}
	Banner(fmt.Sprintf("Aggregate around telomeres started (window = %d)", r.TeloWindow))
	teloAggregator := Aggregator{ProfileFile: teloFile, ChrCoordsFile: r.ChrCoordsFile,
		ProbesFile: r.ProbesFile, On: "telomeres", Window: r.TeloWindow,
		Policy: WindowClip, ExcludedChrs: r.ExcludedChrs,
		ExcludeProbeChr: true, InterNorm: true, ArmSizes: true}
	teloAggregator.Run()

	log.Notice("Pipeline finished")
}
