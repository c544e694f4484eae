package models

// Outcome is the result of processing one selected dataset during a run.
// Skipped datasets (overwrite declined) count as neither success nor failure.
type Outcome struct {
	Dataset   Dataset
	Succeeded bool
	Skipped   bool
	Bytes     int64
}

// Summary collects the outcomes of a single run in processing order.
type Summary struct {
	RunID    string
	Outcomes []Outcome
}

// Add appends an outcome to the summary.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Succeeded returns the datasets that were downloaded and verified.
func (s *Summary) Succeeded() []Dataset {
	return s.filter(func(o Outcome) bool { return o.Succeeded })
}

// Failed returns the datasets whose retries were exhausted.
func (s *Summary) Failed() []Dataset {
	return s.filter(func(o Outcome) bool { return !o.Succeeded && !o.Skipped })
}

// Skipped returns the datasets the user chose not to overwrite.
func (s *Summary) Skipped() []Dataset {
	return s.filter(func(o Outcome) bool { return o.Skipped })
}

// HasFailures reports whether any attempted dataset failed.
func (s *Summary) HasFailures() bool {
	return len(s.Failed()) > 0
}

func (s *Summary) filter(keep func(Outcome) bool) []Dataset {
	var out []Dataset
	for _, o := range s.Outcomes {
		if keep(o) {
			out = append(out, o.Dataset)
		}
	}
	return out
}
