package job

// Progress tracks one install/uninstall batch.
// Invariant: Completed == Succeeded + Failed and Completed <= Total.
type Progress struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
}

// NewProgress returns zeroed counters for a batch of total jobs.
func NewProgress(total int) Progress {
	if total < 0 {
		total = 0
	}
	return Progress{Total: total}
}

// Record counts one finished job. Records past Total are ignored.
func (p *Progress) Record(ok bool) {
	if p.Completed >= p.Total {
		return
	}
	p.Completed++
	if ok {
		p.Succeeded++
	} else {
		p.Failed++
	}
}

// Percent is Completed*100/Total, or 0 for an empty batch.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}

// Done reports whether every job of the batch has been counted.
func (p Progress) Done() bool { return p.Completed == p.Total }
