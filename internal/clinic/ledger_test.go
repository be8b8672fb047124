package clinic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerBooksMostRecentlyAddedFirst(t *testing.T) {
	l := NewSlotLedger()
	require.True(t, l.AddSlot(101, "09:00", "09:15"))
	require.True(t, l.AddSlot(102, "09:15", "09:30"))

	first := l.BookNextFree()
	require.NotNil(t, first)
	assert.Equal(t, 102, first.ID, "most recently added slot is checked first")
	assert.Equal(t, SlotBooked, first.Status)

	second := l.BookNextFree()
	require.NotNil(t, second)
	assert.Equal(t, 101, second.ID)

	assert.Nil(t, l.BookNextFree(), "no free slot left")
}

func TestLedgerRejectsDuplicateSlot(t *testing.T) {
	l := NewSlotLedger()
	require.True(t, l.AddSlot(101, "09:00", "09:15"))
	assert.False(t, l.AddSlot(101, "10:00", "10:15"))

	s := l.FindSlot(101)
	require.NotNil(t, s)
	assert.Equal(t, "09:00", s.Start)
}

func TestLedgerCancelSlot(t *testing.T) {
	l := NewSlotLedger()
	require.True(t, l.AddSlot(101, "09:00", "09:15"))

	assert.False(t, l.CancelSlot(101), "cancel of a FREE slot is a no-op")
	assert.False(t, l.CancelSlot(999), "cancel of a missing slot is a no-op")

	booked := l.BookNextFree()
	require.NotNil(t, booked)

	assert.True(t, l.CancelSlot(101))
	assert.Equal(t, SlotFree, l.FindSlot(101).Status)
	assert.False(t, l.CancelSlot(101), "already FREE again")
}

func TestLedgerPendingCountAndNextFree(t *testing.T) {
	l := NewSlotLedger()
	require.True(t, l.AddSlot(101, "09:00", "09:15"))
	require.True(t, l.AddSlot(102, "09:15", "09:30"))
	require.True(t, l.AddSlot(103, "09:30", "09:45"))

	assert.Equal(t, 0, l.PendingCount())
	assert.Equal(t, 103, l.NextFreeSlot().ID)

	l.BookNextFree() // 103
	l.BookNextFree() // 102

	assert.Equal(t, 2, l.PendingCount())
	assert.Equal(t, 101, l.NextFreeSlot().ID)

	l.BookNextFree() // 101
	assert.Equal(t, 3, l.PendingCount())
	assert.Nil(t, l.NextFreeSlot())
}
