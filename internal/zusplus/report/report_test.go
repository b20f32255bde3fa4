package report

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotCountsConcurrentIncrements(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddProjection()
			c.AddLogin()
			c.AddVerification()
			c.AddRecommendation()
			c.AddChatMessage()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.EqualValues(t, 50, snap.Projections)
	require.EqualValues(t, 50, snap.Logins)
	require.EqualValues(t, 50, snap.Verifications)
	require.EqualValues(t, 50, snap.Recommendations)
	require.EqualValues(t, 50, snap.ChatMessages)
	require.False(t, snap.GeneratedAt.Before(snap.Since))
}
