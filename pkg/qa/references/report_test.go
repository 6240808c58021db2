package references_test

import (
	"testing"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/references"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	t.Run("creates buckets only where findings land", func(t *testing.T) {
		report := make(references.Report)
		require.True(t, report.Empty())

		report.Add("node", 1, "field_topic", 0, 99)
		report.Add("node", 1, "field_topic", 2, 100)
		report.Add("node", 5, "field_author", 0, 3)
		report.Add("comment", 2, "field_author", 0, 3)

		require.False(t, report.Empty())
		require.Equal(t, references.Report{
			"node": {
				1: {"field_topic": {0: 99, 2: 100}},
				5: {"field_author": {0: 3}},
			},
			"comment": {
				2: {"field_author": {0: 3}},
			},
		}, report)
	})

	t.Run("stays leafless when nothing is added", func(t *testing.T) {
		report := make(references.Report)
		require.True(t, report.Empty())
		require.Len(t, report, 0)
	})
}
