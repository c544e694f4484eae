package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestAt(t *testing.T) {
	m := &Manifest{Datasets: []Dataset{{Name: "a"}, {Name: "b"}}}

	d, ok := m.At(2)
	require.True(t, ok)
	assert.Equal(t, "b", d.Name)

	_, ok = m.At(0)
	assert.False(t, ok)
	_, ok = m.At(3)
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, m.Names())

	var empty *Manifest
	assert.Equal(t, 0, empty.Len())
}

func TestSummaryPartitions(t *testing.T) {
	s := &Summary{}
	s.Add(Outcome{Dataset: Dataset{Name: "ok"}, Succeeded: true, Bytes: 10})
	s.Add(Outcome{Dataset: Dataset{Name: "bad"}})
	s.Add(Outcome{Dataset: Dataset{Name: "kept"}, Skipped: true})

	assert.Equal(t, []Dataset{{Name: "ok"}}, s.Succeeded())
	assert.Equal(t, []Dataset{{Name: "bad"}}, s.Failed())
	assert.Equal(t, []Dataset{{Name: "kept"}}, s.Skipped())
	assert.True(t, s.HasFailures())

	clean := &Summary{}
	clean.Add(Outcome{Dataset: Dataset{Name: "kept"}, Skipped: true})
	assert.False(t, clean.HasFailures())
	assert.Empty(t, clean.Succeeded())
}
