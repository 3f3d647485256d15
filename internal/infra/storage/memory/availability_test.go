package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "staybook/internal/domain/availability"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

func mkRange(t *testing.T, inDay, outDay int) domainrange.DateRange {
	t.Helper()
	dr, err := domainrange.New(
		time.Date(2026, 8, inDay, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, outDay, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func mkBlock(t *testing.T, id string, inDay, outDay int, reason domainavailability.BlockReason, source domainavailability.BlockSource, sourceID string) domainavailability.Block {
	t.Helper()
	b, err := domainavailability.NewBlock(
		domainavailability.BlockID(id),
		"lst-1",
		mkRange(t, inDay, outDay),
		reason,
		source,
		sourceID,
		time.Now(),
	)
	require.NoError(t, err)
	return b
}

func TestAddBlock_BookingRejectsAnyOverlap(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "b1", 10, 13, domainavailability.ReasonHostBlocked, domainavailability.SourceInternal, "host-1")))

	err := repo.AddBlock(ctx, mkBlock(t, "b2", 12, 15, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-1"))
	assert.True(t, fault.IsKind(err, fault.KindConflict))

	ok, err := repo.IsRangeAvailable(ctx, "lst-1", mkRange(t, 13, 16))
	require.NoError(t, err)
	assert.True(t, ok, "back-to-back with the host block")
	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "b3", 13, 16, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-2")))
}

func TestAddBlock_ImportedMayOverlapHostBlock(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "h1", 10, 14, domainavailability.ReasonHostBlocked, domainavailability.SourceInternal, "host-1")))
	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "i1", 12, 16, domainavailability.ReasonICalBlocked, domainavailability.SourceICal, "cal-9")),
		"imported blocks may overlap host blocks")

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "bk1", 20, 22, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-1")))
	err := repo.AddBlock(ctx, mkBlock(t, "h2", 21, 23, domainavailability.ReasonHostBlocked, domainavailability.SourceInternal, "host-1"))
	assert.True(t, fault.IsKind(err, fault.KindConflict), "host blocks may not cover reservations")
}

func TestRemoveBlock_GuardsBookingBlocks(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "bk1", 10, 12, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-1")))
	err := repo.RemoveBlock(ctx, "lst-1", "bk1")
	assert.True(t, fault.IsKind(err, fault.KindForbidden))

	assert.True(t, fault.IsKind(repo.RemoveBlock(ctx, "lst-1", "missing"), fault.KindNotFound))

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "h1", 20, 22, domainavailability.ReasonHostBlocked, domainavailability.SourceInternal, "host-1")))
	require.NoError(t, repo.RemoveBlock(ctx, "lst-1", "h1"))
}

func TestRemoveBlocksBySource_FreesBookingRange(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "bk1", 10, 13, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-1")))
	require.NoError(t, repo.RemoveBlocksBySource(ctx, "lst-1", domainavailability.SourceInternal, "bk-1"))

	ok, err := repo.IsRangeAvailable(ctx, "lst-1", mkRange(t, 10, 13))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplaceSourceBlocks_ScopedSwap(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	require.NoError(t, repo.AddBlock(ctx, mkBlock(t, "bk1", 1, 3, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-1")))
	require.NoError(t, repo.ReplaceSourceBlocks(ctx, "lst-1", domainavailability.SourceICal, "cal-9", []domainavailability.Block{
		mkBlock(t, "i1", 10, 12, domainavailability.ReasonICalBlocked, domainavailability.SourceICal, "cal-9"),
		mkBlock(t, "i2", 14, 16, domainavailability.ReasonICalBlocked, domainavailability.SourceICal, "cal-9"),
	}))

	// Second sync with a different remote state replaces only cal-9 blocks.
	require.NoError(t, repo.ReplaceSourceBlocks(ctx, "lst-1", domainavailability.SourceICal, "cal-9", []domainavailability.Block{
		mkBlock(t, "i3", 20, 22, domainavailability.ReasonICalBlocked, domainavailability.SourceICal, "cal-9"),
	}))

	blocks, err := repo.Blocks(ctx, "lst-1")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, domainavailability.BlockID("bk1"), blocks[0].ID, "booking block untouched")
	assert.Equal(t, domainavailability.BlockID("i3"), blocks[1].ID)
}

func TestReplaceSourceBlocks_RejectsOutOfScope(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	err := repo.ReplaceSourceBlocks(ctx, "lst-1", domainavailability.SourceICal, "cal-9", []domainavailability.Block{
		mkBlock(t, "x1", 10, 12, domainavailability.ReasonICalBlocked, domainavailability.SourceICal, "other-cal"),
	})
	assert.True(t, fault.IsKind(err, fault.KindValidation))

	err = repo.ReplaceSourceBlocks(ctx, "lst-1", domainavailability.SourceInternal, "bk-1", []domainavailability.Block{
		mkBlock(t, "x2", 10, 12, domainavailability.ReasonBooking, domainavailability.SourceInternal, "bk-1"),
	})
	assert.True(t, fault.IsKind(err, fault.KindForbidden), "sync cannot write booking blocks")
}

func TestAddBlock_ConcurrentRequestsOneWinner(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()

	const workers = 32
	blocks := make([]domainavailability.Block, workers)
	for i := range blocks {
		blocks[i] = mkBlock(t, fmt.Sprintf("bk-%d", i), 10, 13, domainavailability.ReasonBooking, domainavailability.SourceInternal, fmt.Sprintf("booking-%d", i))
	}

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for _, block := range blocks {
		wg.Add(1)
		go func(block domainavailability.Block) {
			defer wg.Done()
			results <- repo.AddBlock(ctx, block)
		}(block)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.True(t, fault.IsKind(err, fault.KindConflict))
		conflicts++
	}
	assert.Equal(t, 1, wins, "exactly one concurrent reservation commits")
	assert.Equal(t, workers-1, conflicts)
}

func TestOverrides_Lifecycle(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()
	day := time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetOverride(ctx, domainavailability.PriceOverride{
		ListingID:    "lst-1",
		Date:         day,
		NightlyCents: 20000,
		Reason:       "peak weekend",
	}))

	got, err := repo.OverridesInRange(ctx, "lst-1", mkRange(t, 10, 13))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(20000), got["2026-08-11"].NightlyCents)

	outside, err := repo.OverridesInRange(ctx, "lst-1", mkRange(t, 12, 14))
	require.NoError(t, err)
	assert.Empty(t, outside)

	require.NoError(t, repo.RemoveOverride(ctx, "lst-1", "2026-08-11"))
	got, err = repo.OverridesInRange(ctx, "lst-1", mkRange(t, 10, 13))
	require.NoError(t, err)
	assert.Empty(t, got)
}
