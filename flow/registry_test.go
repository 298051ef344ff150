package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/auth"
)

func testRecord(id string, startedAt time.Time) Record {
	return Record{
		ID:             id,
		Kind:           KindDeposit,
		Asset:          asset.Asset{Code: "SRT", Issuer: "GISSUER"},
		Amount:         "5",
		AnchorDomain:   "testanchor.stellar.org",
		InteractiveURL: "https://testanchor.stellar.org/sep24/interactive?id=" + id,
		Status:         StatusPendingUserTransferStart,
		StartedAt:      startedAt,
		authToken:      &auth.Token{Value: "tok-" + id, AnchorDomain: "testanchor.stellar.org", Address: "GABC"},
	}
}

func TestRegistry_AddAndGet(t *testing.T) {
	g := NewRegistry()
	rec := testRecord("tx1", time.Now())
	require.NoError(t, g.Add(rec))

	got, ok := g.Get("tx1")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok = g.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateID(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Add(testRecord("tx1", time.Now())))
	require.ErrorIs(t, g.Add(testRecord("tx1", time.Now())), ErrDuplicateFlow)
}

func TestRegistry_ListNewestFirst(t *testing.T) {
	g := NewRegistry()
	base := time.Now()
	require.NoError(t, g.Add(testRecord("old", base.Add(-time.Minute))))
	require.NoError(t, g.Add(testRecord("new", base)))
	require.NoError(t, g.Add(testRecord("mid", base.Add(-30*time.Second))))

	list := g.List()
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
}

func TestRegistry_Dismiss(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Add(testRecord("tx1", time.Now())))

	assert.True(t, g.Dismiss("tx1"))
	_, ok := g.Get("tx1")
	assert.False(t, ok)

	// Absent ids are a no-op, not an error.
	assert.False(t, g.Dismiss("tx1"))
	assert.False(t, g.Dismiss("never-existed"))
}

func TestRegistry_UpdateStatusPresenceGated(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Add(testRecord("tx1", time.Now())))

	assert.True(t, g.updateStatus("tx1", "pending_anchor"))
	got, _ := g.Get("tx1")
	assert.Equal(t, "pending_anchor", got.Status)

	// A late poll result for a dismissed flow is dropped.
	g.Dismiss("tx1")
	assert.False(t, g.updateStatus("tx1", StatusCompleted))
	_, ok := g.Get("tx1")
	assert.False(t, ok, "a stale update must not resurrect the record")
}
