// Package models defines the core data structures shared by the downloader.
// It contains the manifest entries read from disk and the per-dataset outcomes
// collected while a run is in progress.
package models

// Dataset describes one downloadable archive listed in the manifest.
// Name doubles as the output file name inside the data directory.
type Dataset struct {
	Name        string  `json:"name"`
	SizeGB      float64 `json:"size_gb"`
	Description string  `json:"description"`
	FileID      string  `json:"file_id"`
}

// Manifest is the ordered list of datasets. Order is declaration order and is
// what the numbered menu shows.
type Manifest struct {
	Datasets []Dataset `json:"datasets"`
}

// Len returns the number of datasets in the manifest.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Datasets)
}

// Names returns dataset names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, m.Len())
	for _, d := range m.Datasets {
		names = append(names, d.Name)
	}
	return names
}

// At returns the dataset at the given 1-based position.
func (m *Manifest) At(pos int) (Dataset, bool) {
	if pos < 1 || pos > m.Len() {
		return Dataset{}, false
	}
	return m.Datasets[pos-1], true
}
