// Package manifest loads and validates the dataset manifest, a small JSON
// document of the form {"datasets": [{"name", "size_gb", "description", "file_id"}]}.
package manifest

import (
	"bytes"
	"dataset_downloader/internal/utils"
	"dataset_downloader/models"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// DefaultPath is where the manifest is looked up when no path is configured.
const DefaultPath = "dataset_metadata.json"

var (
	ErrManifestMissing   = errors.New("manifest not found")
	ErrManifestMalformed = errors.New("manifest is malformed")
)

// rawDataset uses pointers so that absent keys can be told apart from zero values.
type rawDataset struct {
	Name        *string  `json:"name"`
	SizeGB      *float64 `json:"size_gb"`
	Description *string  `json:"description"`
	FileID      *string  `json:"file_id"`
}

type rawManifest struct {
	Datasets *[]rawDataset `json:"datasets"`
}

// Load reads the manifest at path from fs.
func Load(fs afero.Fs, path string) (*models.Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	utils.Debug("Loaded manifest %s with %d datasets", path, m.Len())
	return m, nil
}

// Parse decodes and validates manifest content.
func Parse(data []byte) (*models.Manifest, error) {
	var raw rawManifest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	if raw.Datasets == nil {
		return nil, fmt.Errorf("%w: missing \"datasets\" list", ErrManifestMalformed)
	}

	m := &models.Manifest{Datasets: make([]models.Dataset, 0, len(*raw.Datasets))}
	seen := make(map[string]bool, len(*raw.Datasets))

	for i, rd := range *raw.Datasets {
		pos := i + 1
		if rd.Name == nil {
			return nil, fmt.Errorf("%w: dataset %d: missing \"name\"", ErrManifestMalformed, pos)
		}
		if rd.FileID == nil || *rd.FileID == "" {
			return nil, fmt.Errorf("%w: dataset %d (%s): missing \"file_id\"", ErrManifestMalformed, pos, *rd.Name)
		}
		if rd.SizeGB == nil {
			return nil, fmt.Errorf("%w: dataset %d (%s): missing \"size_gb\"", ErrManifestMalformed, pos, *rd.Name)
		}
		if *rd.SizeGB < 0 {
			return nil, fmt.Errorf("%w: dataset %d (%s): negative \"size_gb\"", ErrManifestMalformed, pos, *rd.Name)
		}
		if !utils.IsSafeFilename(*rd.Name) {
			return nil, fmt.Errorf("%w: dataset %d: %q is not a usable file name", ErrManifestMalformed, pos, *rd.Name)
		}
		if seen[*rd.Name] {
			return nil, fmt.Errorf("%w: duplicate dataset name %q", ErrManifestMalformed, *rd.Name)
		}
		seen[*rd.Name] = true

		d := models.Dataset{
			Name:   *rd.Name,
			SizeGB: *rd.SizeGB,
			FileID: *rd.FileID,
		}
		if rd.Description != nil {
			d.Description = *rd.Description
		}
		m.Datasets = append(m.Datasets, d)
	}

	return m, nil
}
