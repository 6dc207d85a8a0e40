package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "registrar/pkg/domain"
)

func entryAt(action Action, actor id.ActorID, at time.Time) Entry {
	return Entry{
		ID:          id.NewAuditEntryID(),
		RegistryID:  id.NewRegistryID(),
		TypeCode:    "PO",
		Action:      action,
		PerformedBy: actor,
		PerformedAt: at,
	}
}

func TestSameActorCreateAndVoid(t *testing.T) {
	noon := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	clerk := id.NewActorID()
	manager := id.NewActorID()

	t.Run("same actor flags", func(t *testing.T) {
		entries := []Entry{
			entryAt(ActionCreate, clerk, noon),
			entryAt(ActionStatusChange, manager, noon),
			entryAt(ActionVoid, clerk, noon),
		}
		assert.True(t, SameActorCreateAndVoid(entries))
	})

	t.Run("different actors pass", func(t *testing.T) {
		entries := []Entry{
			entryAt(ActionCreate, clerk, noon),
			entryAt(ActionVoid, manager, noon),
		}
		assert.False(t, SameActorCreateAndVoid(entries))
	})

	t.Run("no void passes", func(t *testing.T) {
		entries := []Entry{entryAt(ActionCreate, clerk, noon)}
		assert.False(t, SameActorCreateAndVoid(entries))
	})
}

func TestExcessiveStatusChanges(t *testing.T) {
	noon := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	clerk := id.NewActorID()

	changes := func(actor id.ActorID, n int) []Entry {
		entries := make([]Entry, 0, n)
		for i := 0; i < n; i++ {
			entries = append(entries, entryAt(ActionStatusChange, actor, noon))
		}
		return entries
	}

	assert.False(t, ExcessiveStatusChanges(changes(clerk, 5)), "at the threshold")
	assert.True(t, ExcessiveStatusChanges(changes(clerk, 6)), "over the threshold")

	t.Run("counted per actor, not per trail", func(t *testing.T) {
		entries := append(changes(id.NewActorID(), 4), changes(id.NewActorID(), 4)...)
		assert.False(t, ExcessiveStatusChanges(entries))
	})

	t.Run("other actions do not count", func(t *testing.T) {
		entries := changes(clerk, 5)
		entries = append(entries, entryAt(ActionAccess, clerk, noon), entryAt(ActionPrint, clerk, noon))
		assert.False(t, ExcessiveStatusChanges(entries))
	})
}

func TestManyDistinctIPs(t *testing.T) {
	noon := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	clerk := id.NewActorID()

	fromIPs := func(n int) []Entry {
		entries := make([]Entry, 0, n)
		for i := 0; i < n; i++ {
			e := entryAt(ActionAccess, clerk, noon)
			e.IPAddress = fmt.Sprintf("192.0.2.%d", i+1)
			entries = append(entries, e)
		}
		return entries
	}

	assert.False(t, ManyDistinctIPs(fromIPs(10)), "at the threshold")
	assert.True(t, ManyDistinctIPs(fromIPs(11)), "over the threshold")

	t.Run("repeat addresses count once", func(t *testing.T) {
		entries := append(fromIPs(10), fromIPs(10)...)
		assert.False(t, ManyDistinctIPs(entries))
	})

	t.Run("blank addresses are skipped", func(t *testing.T) {
		entries := fromIPs(10)
		entries = append(entries, entryAt(ActionAccess, clerk, noon))
		assert.False(t, ManyDistinctIPs(entries))
	})
}

func TestHasActivityOutsideHours(t *testing.T) {
	clerk := id.NewActorID()
	at := func(hour int) []Entry {
		return []Entry{entryAt(ActionAccess, clerk, time.Date(2026, 4, 15, hour, 30, 0, 0, time.UTC))}
	}

	assert.True(t, HasActivityOutsideHours(at(6), DefaultBusinessHours), "before opening")
	assert.False(t, HasActivityOutsideHours(at(7), DefaultBusinessHours), "opening hour is inside")
	assert.False(t, HasActivityOutsideHours(at(18), DefaultBusinessHours), "last working hour")
	assert.True(t, HasActivityOutsideHours(at(19), DefaultBusinessHours), "closing hour is outside")
	assert.False(t, HasActivityOutsideHours(nil, DefaultBusinessHours))
}

func TestAnalyzeCollectsFlags(t *testing.T) {
	clerk := id.NewActorID()
	night := time.Date(2026, 4, 15, 2, 0, 0, 0, time.UTC)

	entries := []Entry{
		entryAt(ActionCreate, clerk, night),
		entryAt(ActionVoid, clerk, night),
	}

	report := Analyze("reg-1", entries, DefaultBusinessHours)
	assert.Equal(t, "reg-1", report.RegistryID)
	assert.Equal(t, []string{FlagSameActorCreateVoid, FlagOutsideBusinessHours}, report.Flags)

	t.Run("clean trail has no flags", func(t *testing.T) {
		clean := []Entry{entryAt(ActionCreate, clerk, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC))}
		assert.Empty(t, Analyze("reg-2", clean, DefaultBusinessHours).Flags)
	})
}
