package thumbnail

import "math"

// Progress is reported at coarse milestones of a generation.
type Progress struct {
	Current    int
	Total      int
	Percentage int
	Message    string
	PageID     string
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// report calls fn, containing any panic so a faulty callback never aborts
// generation.
func report(fn ProgressFunc, current, total int, message, pageID string) {
	if fn == nil {
		return
	}
	p := Progress{Current: current, Total: total, Message: message, PageID: pageID}
	if total > 0 {
		p.Percentage = int(math.Round(float64(current) * 100 / float64(total)))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("progress callback panicked: %v", r)
		}
	}()
	fn(p)
}
