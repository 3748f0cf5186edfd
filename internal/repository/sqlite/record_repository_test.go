package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-tracker/internal/domain"
)

var (
	alice = domain.OwnerRef{ID: "u-alice", Name: "alice"}
	bob   = domain.OwnerRef{ID: "u-bob", Name: "bob"}
)

func ts(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, time.UTC)
}

func window(start time.Time, d time.Duration) domain.Window {
	return domain.Window{Start: start, End: start.Add(d)}
}

func overtime(owner domain.OwnerRef, start time.Time, d time.Duration) *domain.OvertimeRecord {
	w := window(start, d)
	return &domain.OvertimeRecord{Window: w, Hours: w.Hours(), Owner: owner, Shift: "night", Room: "B-201"}
}

func january() domain.DateRange {
	return domain.DateRange{From: ts(time.January, 1, 0, 0), To: ts(time.January, 31, 0, 0)}
}

func insertVerified(t *testing.T, repo *RecordRepository, rec domain.Record) string {
	t.Helper()
	ctx := context.Background()
	id, err := repo.Insert(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, repo.SetVerified(ctx, rec.Kind(), id))
	return id
}

func newRecordRepo(t *testing.T) *RecordRepository {
	return NewRecordRepository(openTestDB(t), time.UTC).(*RecordRepository)
}

func TestRecordRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	rec := overtime(alice, ts(time.January, 5, 18, 0), 150*time.Minute)
	id := insertVerified(t, repo, rec)
	assert.Equal(t, id, rec.ID)

	got, err := repo.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{Range: january(), Hours: domain.AnyHours, Sort: domain.SortAscending})
	require.NoError(t, err)
	require.Len(t, got, 1)

	back, ok := got[0].(*domain.OvertimeRecord)
	require.True(t, ok)
	assert.Equal(t, id, back.ID)
	assert.True(t, back.Window.Start.Equal(rec.Window.Start))
	assert.True(t, back.Window.End.Equal(rec.Window.End))
	assert.Equal(t, 2.5, back.Hours)
	assert.Equal(t, alice, back.Owner)
	assert.Equal(t, "night", back.Shift)
	assert.Equal(t, "B-201", back.Room)
	assert.True(t, back.Verified)
}

func TestRecordRepository_WriteOffRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	rec := &domain.WriteOffRecord{Date: ts(time.January, 31, 0, 0), Hours: 1.5, Owner: bob}
	insertVerified(t, repo, rec)

	got, err := repo.QueryFiltered(ctx, domain.KindWriteOff, domain.RecordFilter{Range: january(), Hours: domain.AnyHours})
	require.NoError(t, err)
	require.Len(t, got, 1, "the last day of the range is included")
	w := got[0].(*domain.WriteOffRecord)
	assert.True(t, w.Date.Equal(rec.Date))
	assert.Equal(t, 1.5, w.Hours)
}

func TestRecordRepository_UnverifiedExcludedFromFilteredQuery(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	_, err := repo.Insert(ctx, overtime(alice, ts(time.January, 5, 18, 0), time.Hour))
	require.NoError(t, err)

	got, err := repo.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{Range: january(), Hours: domain.AnyHours})
	require.NoError(t, err)
	assert.Empty(t, got)

	pending, err := repo.QueryUnverified(ctx, domain.KindOvertime)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRecordRepository_SetVerifiedIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	id, err := repo.Insert(ctx, &domain.CompensationRecord{Window: window(ts(time.January, 3, 9, 0), 2*time.Hour), Hours: 2, Owner: alice})
	require.NoError(t, err)

	require.NoError(t, repo.SetVerified(ctx, domain.KindCompensation, id))
	require.NoError(t, repo.SetVerified(ctx, domain.KindCompensation, id))
	require.NoError(t, repo.SetVerified(ctx, domain.KindCompensation, "missing"))

	rec, err := repo.Get(ctx, domain.KindCompensation, id)
	require.NoError(t, err)
	assert.True(t, rec.IsVerified())
}

func TestRecordRepository_DeleteAbsentIsNoError(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	id, err := repo.Insert(ctx, overtime(alice, ts(time.January, 5, 18, 0), time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, domain.KindOvertime, id))
	require.NoError(t, repo.Delete(ctx, domain.KindOvertime, id))

	_, err = repo.Get(ctx, domain.KindOvertime, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRecordRepository_QueryFilters(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	insertVerified(t, repo, overtime(alice, ts(time.January, 2, 18, 0), 1*time.Hour))
	insertVerified(t, repo, overtime(alice, ts(time.January, 3, 18, 0), 3*time.Hour))
	insertVerified(t, repo, overtime(bob, ts(time.January, 4, 18, 0), 2*time.Hour))
	insertVerified(t, repo, overtime(bob, ts(time.February, 1, 18, 0), 4*time.Hour))

	all, err := repo.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{Range: january(), Hours: domain.AnyHours, Sort: domain.SortDescending})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{3, 2, 1}, hoursOf(all))

	onlyAlice, err := repo.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{Range: january(), OwnerName: alice.Name, Hours: domain.AnyHours, Sort: domain.SortAscending})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, hoursOf(onlyAlice))

	bounded, err := repo.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{Range: january(), Hours: domain.HoursRange{Min: 2, Max: 3}, Sort: domain.SortAscending})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, hoursOf(bounded))

	unset, err := domain.ParseHoursRange("", "")
	require.NoError(t, err)
	viaEmpty, err := repo.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{Range: january(), Hours: unset, Sort: domain.SortDescending})
	require.NoError(t, err)
	assert.Equal(t, hoursOf(all), hoursOf(viaEmpty))
}

func TestRecordRepository_SumHoursByOwner(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	insertVerified(t, repo, overtime(alice, ts(time.January, 2, 18, 0), 1*time.Hour))
	insertVerified(t, repo, overtime(alice, ts(time.January, 3, 18, 0), 90*time.Minute))
	insertVerified(t, repo, overtime(bob, ts(time.January, 4, 18, 0), 2*time.Hour))
	_, err := repo.Insert(ctx, overtime(bob, ts(time.January, 5, 18, 0), 5*time.Hour))
	require.NoError(t, err)

	totals, err := repo.SumHoursByOwner(ctx, domain.KindOvertime, january())
	require.NoError(t, err)

	byOwner := map[string]float64{}
	for _, tot := range totals {
		byOwner[tot.Owner.Name] = tot.Hours
	}
	assert.Equal(t, map[string]float64{"alice": 2.5, "bob": 2}, byOwner)
}

func hoursOf(records []domain.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.RecordHours()
	}
	return out
}
