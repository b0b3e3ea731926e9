package escalation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"go-permit/internal/directory"
	"go-permit/internal/escalation"
	"go-permit/internal/notify"
	"go-permit/internal/request"
)

type fakeLedger struct {
	rows      []request.Request
	rowsErr   error
	advances  []string
	advanceFn func(id string, from *string, to string) (bool, error)
}

func (f *fakeLedger) FindAllByCategory(ctx context.Context, category string) ([]request.Request, error) {
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	return f.rows, nil
}

func (f *fakeLedger) AdvanceEscalationMark(ctx context.Context, id string, from *string, to string) (bool, error) {
	f.advances = append(f.advances, id+":"+to)
	if f.advanceFn != nil {
		return f.advanceFn(id, from, to)
	}
	return true, nil
}

type fakeScanDirectory struct {
	entries map[string]directory.Entry
}

func (f *fakeScanDirectory) Resolve(ctx context.Context, employeeID string) (directory.Entry, bool, error) {
	entry, found := f.entries[employeeID]
	return entry, found, nil
}

func (f *fakeScanDirectory) IsEligible(ctx context.Context, employeeID string) (bool, error) {
	return true, nil
}

func (f *fakeScanDirectory) Invalidate(ctx context.Context) {}

type fakeScanRouter struct {
	escalations []notify.EscalationEvent
	health      []string
}

func (f *fakeScanRouter) RequestSubmitted(ctx context.Context, ev notify.RequestEvent, stats notify.MonthlySummary) {
}
func (f *fakeScanRouter) RequestDecided(ctx context.Context, ev notify.RequestEvent)     {}
func (f *fakeScanRouter) RequestResubmitted(ctx context.Context, ev notify.RequestEvent) {}
func (f *fakeScanRouter) RequestCheckedIn(ctx context.Context, ev notify.RequestEvent)   {}
func (f *fakeScanRouter) EscalationRaised(ctx context.Context, ev notify.EscalationEvent) {
	f.escalations = append(f.escalations, ev)
}
func (f *fakeScanRouter) SystemHealth(ctx context.Context, component string, err error) {
	f.health = append(f.health, component)
}
func (f *fakeScanRouter) EditMessage(ctx context.Context, ref, newText string) {}

type fakeLocker struct {
	held     bool
	acquired int
}

func (f *fakeLocker) TryLock(ctx context.Context) (func(), bool) {
	if f.held {
		return nil, false
	}
	f.acquired++
	return func() {}, true
}

func approvedPermission(id string, approvedAt time.Time, duration string) request.Request {
	return request.Request{
		ID:           id,
		EmployeeID:   "EMP-007",
		EmployeeName: "Budi Santoso",
		Category:     request.CategoryPermission,
		StartDate:    day,
		EndDate:      day,
		Duration:     request.ParseDuration(duration),
		RawDuration:  duration,
		Status:       request.StatusApproved,
		ApprovedAt:   &approvedAt,
	}
}

func newTestScanner(ledger *fakeLedger, dir *fakeScanDirectory, router *fakeScanRouter, locker *fakeLocker) *escalation.Scanner {
	if dir == nil {
		dir = &fakeScanDirectory{}
	}
	return escalation.NewScanner(ledger, dir, router, locker, "https://static.local/placeholder.png", zap.NewNop())
}

func TestScanner_Scan(t *testing.T) {
	ctx := context.Background()

	t.Run("overdue request escalates exactly once", func(t *testing.T) {
		ledger := &fakeLedger{rows: []request.Request{
			approvedPermission("REQ-1", clock(0, 9, 0), "1"),
		}}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, nil, router, &fakeLocker{})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.NoError(t, err)
		assert.Equal(t, []string{"REQ-1:OVERDUE_TIME"}, ledger.advances)
		assert.Len(t, router.escalations, 1)
		assert.Equal(t, escalation.TierOverdueTime, router.escalations[0].Tier)

		// second pass with the mark set stays quiet until the next threshold
		ledger.rows[0].EscalationMark = ptr(escalation.TierOverdueTime)
		err = scanner.Scan(ctx, clock(0, 19, 30))
		assert.NoError(t, err)
		assert.Len(t, router.escalations, 1)

		// next morning the day tier fires once
		err = scanner.Scan(ctx, clock(1, 6, 0))
		assert.NoError(t, err)
		assert.Len(t, router.escalations, 2)
		assert.Equal(t, escalation.TierOverdueDay, router.escalations[1].Tier)
	})

	t.Run("checked-in and undecided rows are skipped", func(t *testing.T) {
		checkedIn := approvedPermission("REQ-1", clock(0, 9, 0), "1")
		now := clock(0, 12, 0)
		checkedIn.CheckInAt = &now

		pending := approvedPermission("REQ-2", clock(0, 9, 0), "1")
		pending.Status = request.StatusPending

		ledger := &fakeLedger{rows: []request.Request{checkedIn, pending}}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, nil, router, &fakeLocker{})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.NoError(t, err)
		assert.Empty(t, ledger.advances)
		assert.Empty(t, router.escalations)
	})

	t.Run("lost mark advance suppresses the notification", func(t *testing.T) {
		ledger := &fakeLedger{
			rows: []request.Request{approvedPermission("REQ-1", clock(0, 9, 0), "1")},
			advanceFn: func(id string, from *string, to string) (bool, error) {
				return false, nil
			},
		}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, nil, router, &fakeLocker{})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.NoError(t, err)
		assert.Empty(t, router.escalations)
	})

	t.Run("row failure does not stall the sweep", func(t *testing.T) {
		ledger := &fakeLedger{
			rows: []request.Request{
				approvedPermission("REQ-1", clock(0, 9, 0), "1"),
				approvedPermission("REQ-2", clock(0, 9, 0), "1"),
			},
			advanceFn: func(id string, from *string, to string) (bool, error) {
				if id == "REQ-1" {
					return false, errors.New("connection reset")
				}
				return true, nil
			},
		}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, nil, router, &fakeLocker{})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.NoError(t, err)
		assert.Len(t, router.escalations, 1)
		assert.Equal(t, "REQ-2", router.escalations[0].ID)
	})

	t.Run("ledger read failure reports system health", func(t *testing.T) {
		ledger := &fakeLedger{rowsErr: errors.New("db down")}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, nil, router, &fakeLocker{})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.Error(t, err)
		assert.Equal(t, []string{"escalation scanner"}, router.health)
	})

	t.Run("held lock skips the run", func(t *testing.T) {
		ledger := &fakeLedger{rows: []request.Request{
			approvedPermission("REQ-1", clock(0, 9, 0), "1"),
		}}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, nil, router, &fakeLocker{held: true})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.NoError(t, err)
		assert.Empty(t, ledger.advances)
	})

	t.Run("directory photo is used when known, placeholder otherwise", func(t *testing.T) {
		ledger := &fakeLedger{rows: []request.Request{
			approvedPermission("REQ-1", clock(0, 9, 0), "1"),
		}}
		dir := &fakeScanDirectory{entries: map[string]directory.Entry{
			"EMP-007": {Name: "Budi S.", PhotoURL: "https://photos.local/budi.png"},
		}}
		router := &fakeScanRouter{}
		scanner := newTestScanner(ledger, dir, router, &fakeLocker{})

		err := scanner.Scan(ctx, clock(0, 19, 0))
		assert.NoError(t, err)
		assert.Equal(t, "https://photos.local/budi.png", router.escalations[0].PhotoURL)
		assert.Equal(t, "Budi S.", router.escalations[0].EmployeeName)

		dir.entries = nil
		ledger.rows[0].EscalationMark = ptr(escalation.TierOverdueTime)
		err = scanner.Scan(ctx, clock(1, 6, 0))
		assert.NoError(t, err)
		assert.Equal(t, "https://static.local/placeholder.png", router.escalations[1].PhotoURL)
	})
}
