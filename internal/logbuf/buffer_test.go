package logbuf

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	changes []Change
	clears  int
}

func (o *recordingObserver) RecordAppended(c Change) { o.changes = append(o.changes, c) }
func (o *recordingObserver) Cleared()                { o.clears++ }

func rec(i int) Record {
	return Record{Timestamp: "00:00:00", Message: fmt.Sprintf("event %d", i), Level: LevelInfo}
}

func TestBuffer_LengthAndContentsProperty(t *testing.T) {
	for _, capacity := range []int{1, 2, 7, 100} {
		for _, n := range []int{0, 1, capacity - 1, capacity, capacity + 1, 3*capacity + 2} {
			if n < 0 {
				continue
			}
			t.Run(fmt.Sprintf("C=%d/N=%d", capacity, n), func(t *testing.T) {
				b := New(capacity)
				for i := 1; i <= n; i++ {
					b.Append(rec(i))
				}

				want := min(n, capacity)
				require.Equal(t, want, b.Len())

				got := b.Records()
				require.Len(t, got, want)
				first := n - want + 1
				for i, r := range got {
					assert.Equal(t, rec(first+i), r)
				}
			})
		}
	}
}

func TestBuffer_1500EventsCapacity1000(t *testing.T) {
	b := New(1000)
	for i := 1; i <= 1500; i++ {
		b.Append(rec(i))
	}

	got := b.Records()
	require.Len(t, got, 1000)
	assert.Equal(t, "event 501", got[0].Message)
	assert.Equal(t, "event 1500", got[999].Message)
}

func TestBuffer_AppendReportsEviction(t *testing.T) {
	b := New(2)
	obs := &recordingObserver{}
	b.SetObserver(obs)

	c1 := b.Append(rec(1))
	c2 := b.Append(rec(2))
	c3 := b.Append(rec(3))

	assert.Nil(t, c1.Evicted)
	assert.Nil(t, c2.Evicted)
	require.NotNil(t, c3.Evicted)
	assert.Equal(t, rec(1), *c3.Evicted)
	assert.Equal(t, rec(3), c3.Inserted)

	require.Len(t, obs.changes, 3)
	assert.Equal(t, c3, obs.changes[2])
}

func TestBuffer_ClearLeavesOnlyNotice(t *testing.T) {
	b := New(5)
	b.now = func() time.Time { return time.Date(2026, 1, 2, 13, 4, 5, 0, time.UTC) }
	obs := &recordingObserver{}
	b.SetObserver(obs)

	for i := 0; i < 8; i++ {
		b.Append(rec(i))
	}
	b.Clear()

	got := b.Records()
	require.Len(t, got, 1)
	assert.Equal(t, Record{Timestamp: "13:04:05", Message: "logs cleared", Level: LevelInfo}, got[0])
	assert.Equal(t, 1, obs.clears)

	last := obs.changes[len(obs.changes)-1]
	assert.Nil(t, last.Evicted)
	assert.Equal(t, "logs cleared", last.Inserted.Message)
}

func TestBuffer_ClearOnEmpty(t *testing.T) {
	b := New(3)
	b.Clear()
	b.Clear()
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_RecordsIsACopy(t *testing.T) {
	b := New(3)
	b.Append(rec(1))
	got := b.Records()
	got[0].Message = "mutated"
	assert.Equal(t, "event 1", b.Records()[0].Message)
}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-4).Capacity())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"info", LevelInfo, false},
		{"SUCCESS", LevelSuccess, false},
		{"warning", LevelWarning, false},
		{"warn", LevelWarning, false},
		{" error ", LevelError, false},
		{"fatal", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRecordString(t *testing.T) {
	r := Record{Timestamp: "12:00:00", Message: "Done", Level: LevelWarning}
	assert.Equal(t, "[12:00:00] [WARNING] Done", r.String())
}
