package analytics

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/api/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestSampleReport_Shape(t *testing.T) {
	gen := NewSampleGenerator(rand.New(rand.NewSource(1)), fixedClock{t: now})

	report := gen.Report(models.SourceDemo)
	assert.Equal(t, models.SourceDemo, report.Source)
	require.Len(t, report.ChartData, 7)
	assert.Equal(t, "2025-03-08", report.ChartData[0].Day)
	assert.Equal(t, "Mar 14", report.ChartData[6].Date)

	sum := 0
	for _, p := range report.ChartData {
		assert.GreaterOrEqual(t, p.PageViews, 2000)
		assert.Less(t, p.PageViews, 5000)
		assert.GreaterOrEqual(t, p.Visitors, 800)
		assert.Less(t, p.Visitors, 1800)
		sum += p.PageViews
	}
	assert.Equal(t, sum, report.Overview.TotalPageViews)

	assert.NotEmpty(t, report.TopPages)
	assert.LessOrEqual(t, len(report.TopPages), 10)
	assert.LessOrEqual(t, len(report.Referrers), 5)
	assert.Len(t, report.Devices, 3)
	assert.Len(t, report.Retention, 4)
	for i := 1; i < len(report.TopPages); i++ {
		assert.GreaterOrEqual(t, report.TopPages[i-1].Views, report.TopPages[i].Views)
	}

	total := 0
	for _, d := range report.Devices {
		total += d.Value
	}
	assert.Equal(t, 100, total)
}

func TestSampleReport_DeviceSharesStayPositive(t *testing.T) {
	for seed := int64(0); seed < 2000; seed++ {
		report := NewSampleGenerator(rand.New(rand.NewSource(seed)), fixedClock{t: now}).Report(models.SourceDemo)

		total := 0
		for _, d := range report.Devices {
			require.Positive(t, d.Value, "seed %d: %s share", seed, d.Name)
			total += d.Value
		}
		require.Equal(t, 100, total, "seed %d", seed)
	}
}

func TestSampleReport_Seeded(t *testing.T) {
	a := NewSampleGenerator(rand.New(rand.NewSource(42)), fixedClock{t: now}).Report(models.SourceFallback)
	b := NewSampleGenerator(rand.New(rand.NewSource(42)), fixedClock{t: now}).Report(models.SourceFallback)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestSampleExportRecords(t *testing.T) {
	gen := NewSampleGenerator(rand.New(rand.NewSource(7)), fixedClock{t: now})

	records := gen.ExportRecords()
	require.Len(t, records.PageViews, 100)
	require.Len(t, records.Events, 50)

	oldest := now.Add(-168 * time.Hour)
	for i, row := range records.PageViews {
		assert.False(t, row.Timestamp.Before(oldest))
		assert.False(t, row.Timestamp.After(now))
		if i > 0 {
			assert.False(t, row.Timestamp.After(records.PageViews[i-1].Timestamp))
		}
	}
}

func TestSampleGenerator_ConcurrentUse(t *testing.T) {
	gen := NewSampleGenerator(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, gen.Report(models.SourceDemo).ChartData, 7)
			assert.Len(t, gen.ExportRecords().Events, 50)
		}()
	}
	wg.Wait()
}
