// Package selector presents the manifest as a numbered menu and resolves the
// user's choice into the list of datasets to download.
package selector

import (
	"dataset_downloader/internal/prompt"
	"dataset_downloader/internal/utils"
	"dataset_downloader/models"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrAborted          = errors.New("selection aborted")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrIndexOutOfRange  = errors.New("selection index out of range")
)

// Menu choices.
const (
	ChoiceAll      = "1"
	ChoiceSpecific = "2"
	ChoiceExit     = "3"
)

// Options tunes how specific selections are interpreted.
type Options struct {
	// StrictIndices rejects indices outside the manifest instead of dropping them.
	StrictIndices bool
}

// Select runs the interactive menu. It returns ErrAborted when the user picks
// exit (or anything that is not a known choice).
func Select(m *models.Manifest, p *prompt.Prompter, opts Options) ([]models.Dataset, error) {
	p.Println("Which datasets would you like to download?")
	p.Println("1. Download all datasets")
	p.Println("2. Download specific datasets")
	p.Println("3. Exit")

	choice, err := p.Ask("Enter choice (1-3): ")
	if err != nil {
		return nil, err
	}

	switch choice {
	case ChoiceAll:
		p.Println("Downloading all datasets...")
		return All(m), nil
	case ChoiceSpecific:
		p.Println()
		p.Println("Available datasets:")
		for i, d := range m.Datasets {
			p.Printf("  %d. %s\n", i+1, d.Name)
		}
		input, err := p.Ask("Enter dataset numbers (comma-separated, e.g., '1,2'): ")
		if err != nil {
			return nil, err
		}
		return Specific(m, input, opts)
	default:
		utils.Debug("Selection aborted with choice %q", choice)
		return nil, ErrAborted
	}
}

// All returns every dataset in manifest order.
func All(m *models.Manifest) []models.Dataset {
	out := make([]models.Dataset, m.Len())
	copy(out, m.Datasets)
	return out
}

// Specific resolves a comma-separated list of 1-based indices against m.
func Specific(m *models.Manifest, input string, opts Options) ([]models.Dataset, error) {
	positions, err := ParseIndices(input, m.Len(), opts.StrictIndices)
	if err != nil {
		return nil, err
	}
	out := make([]models.Dataset, 0, len(positions))
	for _, pos := range positions {
		d, _ := m.At(pos)
		out = append(out, d)
	}
	return out, nil
}

// ParseIndices parses input such as "1, 3" into sorted, de-duplicated 1-based
// positions within [1, n]. Out-of-range positions are dropped unless strict is
// set, in which case they fail with ErrIndexOutOfRange.
func ParseIndices(input string, n int, strict bool) ([]int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: no dataset numbers given", ErrInvalidSelection)
	}

	seen := make(map[int]bool)
	var positions []int
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		pos, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, token)
		}
		if pos < 1 || pos > n {
			if strict {
				return nil, fmt.Errorf("%w: %d (valid range is 1-%d)", ErrIndexOutOfRange, pos, n)
			}
			utils.Debug("Dropping out-of-range selection %d (manifest has %d datasets)", pos, n)
			continue
		}
		if seen[pos] {
			continue
		}
		seen[pos] = true
		positions = append(positions, pos)
	}

	sort.Ints(positions)
	return positions, nil
}
