package channelmap

import (
	"cmp"
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Mismatch records an offline channel that did not survive the round trip
// to its hardware address and back.
type Mismatch struct {
	OfflChan uint32
	Fields   []string
	Err      error
}

func (m Mismatch) String() string {
	if m.Err != nil {
		return fmt.Sprintf("offline channel %d: %v", m.OfflChan, m.Err)
	}
	return fmt.Sprintf("offline channel %d: mismatched %v", m.OfflChan, m.Fields)
}

type SelfTestReport struct {
	Checked    int
	Mismatches []Mismatch
}

func (r SelfTestReport) OK() bool {
	return len(r.Mismatches) == 0
}

// diffChannelInfo names the fields that differ between two records.
func diffChannelInfo(a, b ChannelInfo) []string {
	var fields []string
	check := func(name string, equal bool) {
		if !equal {
			fields = append(fields, name)
		}
	}
	check("offlchan", a.OfflChan == b.OfflChan)
	check("crate", a.Crate == b.Crate)
	check("APAName", a.APAName == b.APAName)
	check("upright", a.Upright == b.Upright)
	check("wib", a.WIB == b.WIB)
	check("link", a.Link == b.Link)
	check("femb_on_link", a.FEMBOnLink == b.FEMBOnLink)
	check("cebchan", a.CEBChan == b.CEBChan)
	check("plane", a.Plane == b.Plane)
	check("chan_in_plane", a.ChanInPlane == b.ChanInPlane)
	check("femb", a.FEMB == b.FEMB)
	check("asic", a.ASIC == b.ASIC)
	check("asicchan", a.ASICChan == b.ASICChan)
	check("wibframechan", a.WIBFrameChan == b.WIBFrameChan)
	check("valid", a.Valid == b.Valid)
	return fields
}

// CheckRoundTrip looks up the hardware of an offline channel, looks that
// address up again and compares both records.
func CheckRoundTrip(m *FDHDMap, offlChan uint32) (Mismatch, bool) {
	info, err := m.GetChanInfoFromOfflChan(offlChan)
	if err != nil {
		return Mismatch{OfflChan: offlChan, Err: err}, false
	}
	addr := info.Address()
	back := m.GetChanInfoFromWIBElements(addr.Crate, addr.Slot, addr.Link, addr.WIBFrameChan)
	if fields := diffChannelInfo(info, back); len(fields) > 0 {
		return Mismatch{OfflChan: offlChan, Fields: fields}, false
	}
	return Mismatch{}, true
}

type selfTestJob struct {
	first uint32
	last  uint32
}

type selfTestResult struct {
	checked    int
	mismatches []Mismatch
}

func selfTestWorker(ctx context.Context, id int, m *FDHDMap, jobs <-chan selfTestJob, results chan<- selfTestResult) {
	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprintf("Worker %d recovered from panic: %v", id, r)
			logger.Error(message)
			results <- selfTestResult{mismatches: []Mismatch{{Err: fmt.Errorf("worker %d: %v", id, r)}}}
		}
	}()

	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		if configuration.Verbosity > 2 {
			message := fmt.Sprintf("Worker %d checking channels %d to %d", id, job.first, job.last)
			logger.Info(message, "selftest")
		}
		result := selfTestResult{}
		for c := job.first; c < job.last; c++ {
			if mismatch, ok := CheckRoundTrip(m, c); !ok {
				result.mismatches = append(result.mismatches, mismatch)
			}
			result.checked++
		}
		results <- result
	}
}

// SelfTest checks every offline channel of the map with numWorkers
// goroutines, one APA per job. Cancelling ctx skips the jobs not yet
// started.
func SelfTest(ctx context.Context, m *FDHDMap, numWorkers int) (SelfTestReport, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	nJobs := int(m.nAPAs)
	jobs := make(chan selfTestJob, nJobs)
	results := make(chan selfTestResult, nJobs)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			selfTestWorker(ctx, id, m, jobs, results)
		}(w)
	}

	go func() {
		defer close(jobs)
		for apa := uint32(0); apa < m.nAPAs; apa++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- selfTestJob{first: apa * ChannelsPerAPA, last: (apa + 1) * ChannelsPerAPA}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	report := SelfTestReport{}
	for result := range results {
		report.Checked += result.checked
		report.Mismatches = append(report.Mismatches, result.mismatches...)
	}
	slices.SortFunc(report.Mismatches, func(a, b Mismatch) int {
		return cmp.Compare(a.OfflChan, b.OfflChan)
	})

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Self test checked %d channels, %d mismatches", report.Checked, len(report.Mismatches))
		logger.Info(message, "selftest")
	}
	return report, ctx.Err()
}
