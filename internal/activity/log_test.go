package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"tweetdash/internal/models"
)

func fixedClock() func() time.Time {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestHeadSinkEvictsOldestFromTail(t *testing.T) {
	sink := NewSink(SinkSpec{Name: "feed", Capacity: 3, Insertion: InsertHead})
	for i := 1; i <= 5; i++ {
		evicted := sink.Add(models.ActivityEntry{Message: fmt.Sprintf("m%d", i)})
		if i <= 3 && evicted != nil {
			t.Fatalf("unexpected eviction at %d", i)
		}
		if i > 3 {
			want := fmt.Sprintf("m%d", i-3)
			if evicted == nil || evicted.Message != want {
				t.Fatalf("expected %s evicted, got %+v", want, evicted)
			}
		}
	}
	got := sink.Entries()
	want := []string{"m5", "m4", "m3"}
	for i := range want {
		if got[i].Message != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i].Message, want[i])
		}
	}
}

func TestTailSinkEvictsOldestFromHead(t *testing.T) {
	sink := NewSink(SinkSpec{Name: "feed", Capacity: 2, Insertion: InsertTail})
	sink.Add(models.ActivityEntry{Message: "a"})
	sink.Add(models.ActivityEntry{Message: "b"})
	evicted := sink.Add(models.ActivityEntry{Message: "c"})
	if evicted == nil || evicted.Message != "a" {
		t.Fatalf("expected a evicted, got %+v", evicted)
	}
	got := sink.Entries()
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestSinksNeverExceedCapacity(t *testing.T) {
	specs := append(append([]SinkSpec{}, AdminSinks...), UserSinks...)
	for _, spec := range specs {
		sink := NewSink(spec)
		for i := 0; i < spec.Capacity*3+1; i++ {
			sink.Add(models.ActivityEntry{Message: fmt.Sprintf("%d", i)})
			if sink.Len() > spec.Capacity {
				t.Fatalf("%s exceeded capacity %d", spec.Name, spec.Capacity)
			}
		}
	}
}

func TestRecordFansOutExceptExplicitSinks(t *testing.T) {
	l := NewLog(fixedClock(), UserSinks...)
	var changed []string
	l.OnChange(func(name string) { changed = append(changed, name) })

	l.Record("", "Connected to real-time updates", models.SeveritySuccess)
	if n := len(l.Entries(SinkUserFeed)); n != 1 {
		t.Fatalf("expected feed to receive entry, got %d", n)
	}
	if n := len(l.Entries(SinkUserRecent)); n != 0 {
		t.Fatalf("explicit sink must not receive fan-out entries, got %d", n)
	}

	entry := l.RecordTo(SinkUserRecent, "alice", "Logged in", models.SeverityInfo)
	recent := l.Entries(SinkUserRecent)
	if len(recent) != 1 || recent[0] != entry {
		t.Fatalf("unexpected recent entries: %+v", recent)
	}
	if len(changed) != 2 || changed[0] != SinkUserFeed || changed[1] != SinkUserRecent {
		t.Fatalf("unexpected change notifications: %v", changed)
	}
}

func TestRecordPreservesArrivalOrder(t *testing.T) {
	l := NewLog(fixedClock(), AdminSinks...)
	for i := 0; i < 5; i++ {
		l.Record("system", fmt.Sprintf("event %d", i), models.SeverityInfo)
	}
	realtime := l.Entries(SinkAdminRealtime)
	feed := l.Entries(SinkAdminActivity)
	for i := 0; i < 5; i++ {
		if feed[i].Message != fmt.Sprintf("event %d", i) {
			t.Fatalf("chronological feed out of order at %d: %s", i, feed[i].Message)
		}
		if realtime[i].Message != fmt.Sprintf("event %d", 4-i) {
			t.Fatalf("realtime feed out of order at %d: %s", i, realtime[i].Message)
		}
	}
	if !feed[0].Timestamp.Before(feed[4].Timestamp) {
		t.Fatalf("expected increasing timestamps")
	}
}

func TestRecordToUnknownSinkIsIgnored(t *testing.T) {
	l := NewLog(nil, AdminSinks...)
	l.RecordTo("nope", "", "x", models.SeverityInfo)
	if l.Entries("nope") != nil {
		t.Fatalf("expected nil entries for unknown sink")
	}
	if got := l.SinkNames(); len(got) != 2 || got[0] != SinkAdminRealtime {
		t.Fatalf("unexpected sink names %v", got)
	}
}

func TestConcurrentRecordersAgreeAcrossSinks(t *testing.T) {
	var mu sync.Mutex
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
	l := NewLog(clock, AdminSinks...)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				l.Record("system", fmt.Sprintf("w%d-%d", w, i), models.SeverityInfo)
			}
		}(w)
	}
	wg.Wait()

	feed := l.Entries(SinkAdminActivity)
	realtime := l.Entries(SinkAdminRealtime)
	if len(feed) != 50 || len(realtime) != 20 {
		t.Fatalf("unexpected sizes feed=%d realtime=%d", len(feed), len(realtime))
	}
	for i := 1; i < len(feed); i++ {
		if feed[i].Timestamp.Before(feed[i-1].Timestamp) {
			t.Fatalf("timestamps went backwards at %d", i)
		}
	}
	for i, e := range realtime {
		if want := feed[len(feed)-1-i]; e != want {
			t.Fatalf("sinks disagree at %d: %+v vs %+v", i, e, want)
		}
	}
}

func TestRecordNeverStampsBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 1, 12, 0, 5, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 0, 1, 0, time.UTC),
	}
	i := 0
	l := NewLog(func() time.Time { at := times[i]; i++; return at }, AdminSinks...)
	first := l.Record("", "first", models.SeverityInfo)
	second := l.Record("", "second", models.SeverityInfo)
	if second.Timestamp.Before(first.Timestamp) {
		t.Fatalf("second entry stamped %v before %v", second.Timestamp, first.Timestamp)
	}
}
