package mirror_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"jobmirror/internal/logging"
	"jobmirror/internal/mirror"
	"jobmirror/internal/sched"
	"jobmirror/internal/testsupport"
)

func newSession(t *testing.T, fake *testsupport.Scheduler) *mirror.Session {
	t.Helper()
	cfg := testsupport.NewConfig(t, fake)
	session := mirror.New(cfg, logging.NewNop())
	t.Cleanup(session.Close)
	return session
}

func startSession(t *testing.T, fake *testsupport.Scheduler) *mirror.Session {
	t.Helper()
	session := newSession(t, fake)
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if !fake.WaitForClient(3 * time.Second) {
		t.Fatal("session never connected to the fake scheduler")
	}
	return session
}

// changeCounter tracks OnChange notifications so tests can wait for push
// events to fold in.
type changeCounter struct {
	mu sync.Mutex
	n  int
}

func (c *changeCounter) bump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *changeCounter) waitPast(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		current := c.n
		c.mu.Unlock()
		if current > n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no change notification past %d", n)
}

func (c *changeCounter) current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func queuedJob(id string, status sched.Status) sched.Job {
	now := time.Now().UTC()
	return sched.Job{
		ID:          id,
		Description: "job " + id,
		CodeType:    sched.CodeTypeShell,
		CodeContent: "true",
		Status:      status,
		StartTime:   now.Add(time.Hour),
		CreatedAt:   now,
	}
}

func TestStartPopulatesMirror(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(queuedJob("a", sched.StatusQueued))
	fake.SeedJob(queuedJob("b", sched.StatusSuccess))

	session := startSession(t, fake)

	snap := session.Snapshot()
	if len(snap.Queued) != 1 || len(snap.Done) != 1 {
		t.Fatalf("snapshot partitions = %d queued, %d done; want 1 and 1",
			len(snap.Queued), len(snap.Done))
	}
	if snap.Queued[0].ID != "a" || snap.Done[0].ID != "b" {
		t.Fatalf("snapshot ids = %q queued, %q done", snap.Queued[0].ID, snap.Done[0].ID)
	}
}

func TestStartIdempotent(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	session := startSession(t, fake)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := fake.ClientCount(); n != 1 {
		t.Fatalf("expected one connection, found %d", n)
	}
}

func TestJobLifecycleMigration(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(queuedJob("a", sched.StatusQueued))
	session := startSession(t, fake)

	var changes changeCounter
	session.OnChange(changes.bump)

	// The job starts executing, then completes; each event must fold in and
	// migrate the job between partitions at the right moment.
	running := queuedJob("a", sched.StatusRunning)
	fake.Broadcast("job_updated", map[string]any{"job": running})
	changes.waitPast(t, 0)

	snap := session.Snapshot()
	if len(snap.Queued) != 1 || snap.Queued[0].Status != sched.StatusRunning {
		t.Fatal("running job must stay in the queued partition")
	}

	before := changes.current()
	succeeded := queuedJob("a", sched.StatusSuccess)
	done := time.Now().UTC()
	succeeded.CompletedAt = &done
	fake.Broadcast("job_updated", map[string]any{"job": succeeded})
	changes.waitPast(t, before)

	snap = session.Snapshot()
	if len(snap.Queued) != 0 {
		t.Fatal("completed job must leave the queued partition")
	}
	if len(snap.Done) != 1 || snap.Done[0].ID != "a" {
		t.Fatal("completed job must appear in the done partition")
	}
}

func TestJobDeletedEvent(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(queuedJob("a", sched.StatusQueued))
	session := startSession(t, fake)

	var changes changeCounter
	session.OnChange(changes.bump)

	fake.Broadcast("job_deleted", map[string]any{"jobId": "a"})
	changes.waitPast(t, 0)

	if _, ok := session.Job("a"); ok {
		t.Fatal("deleted job still present in the mirror")
	}
}

func TestJobListsReplaced(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(queuedJob("a", sched.StatusQueued))
	session := startSession(t, fake)

	var changes changeCounter
	session.OnChange(changes.bump)

	fake.Broadcast("job_lists_updated", map[string]any{
		"data": map[string]any{
			"queued": []sched.Job{queuedJob("x", sched.StatusQueued)},
			"done":   []sched.Job{queuedJob("y", sched.StatusFailed)},
		},
	})
	changes.waitPast(t, 0)

	snap := session.Snapshot()
	if _, ok := session.Job("a"); ok {
		t.Fatal("replaced list must not retain previous jobs")
	}
	if len(snap.Queued) != 1 || snap.Queued[0].ID != "x" {
		t.Fatal("queued partition not replaced")
	}
	if len(snap.Done) != 1 || snap.Done[0].ID != "y" {
		t.Fatal("done partition not replaced")
	}
}

func TestCreateJobValidatesBeforeNetwork(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	session := startSession(t, fake)

	_, fieldErrs := session.CreateJob(context.Background(), sched.Input{})
	if len(fieldErrs) == 0 {
		t.Fatal("empty input must produce field errors")
	}
	if fake.JobCount() != 0 {
		t.Fatal("invalid input must not reach the scheduler")
	}
}

func TestCreateJobRefreshesMirror(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	session := startSession(t, fake)

	start := session.Policy().Zone.InputValue(time.Now().Add(2 * time.Hour))
	res, fieldErrs := session.CreateJob(context.Background(), sched.Input{
		Description: "nightly export",
		CodeType:    "shell",
		CodeContent: "run-export.sh",
		Priority:    1,
		StartTime:   start,
	})
	if len(fieldErrs) != 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}
	if !res.OK {
		t.Fatalf("create failed: %s", res.Message)
	}
	if res.Job.ID == "" {
		t.Fatal("created job has no id")
	}
	if _, ok := session.Job(res.Job.ID); !ok {
		t.Fatal("mirror not refreshed after create")
	}
}

func TestDeleteJobRemovesLocally(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(queuedJob("a", sched.StatusQueued))
	session := startSession(t, fake)

	res := session.DeleteJob(context.Background(), "a")
	if !res.OK {
		t.Fatalf("delete failed: %s", res.Message)
	}
	if _, ok := session.Job("a"); ok {
		t.Fatal("job still in the mirror after delete")
	}

	res = session.DeleteJob(context.Background(), "a")
	if res.OK {
		t.Fatal("deleting a missing job must fail")
	}
}

func TestSystemEventsUpdateCachedState(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	session := startSession(t, fake)

	errCh := make(chan string, 1)
	session.OnSystemError(func(msg string) { errCh <- msg })

	fake.Broadcast("system_status_updated", map[string]any{
		"status": sched.SystemStatus{Status: "degraded", Message: "worker pool shrinking"},
	})
	fake.Broadcast("worker_stats_updated", map[string]any{
		"stats": sched.WorkerStats{Total: 4, Busy: 3, Idle: 1},
	})
	fake.Broadcast("system_error", map[string]any{"error": "scheduler overloaded"})

	select {
	case msg := <-errCh:
		if msg != "scheduler overloaded" {
			t.Fatalf("system error = %q", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("system error observer never fired")
	}

	if status := session.SystemStatus(); status.Status != "degraded" {
		t.Fatalf("system status = %q, want degraded", status.Status)
	}
	if stats := session.WorkerStats(); stats.Total != 4 || stats.Busy != 3 {
		t.Fatalf("worker stats = %+v", stats)
	}
}

func TestConnectionObserver(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	session := newSession(t, fake)

	transitions := make(chan bool, 8)
	session.OnConnection(func(up bool) { transitions <- up })

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitTransition := func(want bool) {
		t.Helper()
		select {
		case got := <-transitions:
			if got != want {
				t.Fatalf("connection transition = %v, want %v", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no %v transition", want)
		}
	}

	waitTransition(true)
	fake.DropClients()
	waitTransition(false)
	waitTransition(true)
}

func TestObserverPanicIsolated(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(queuedJob("a", sched.StatusQueued))
	session := startSession(t, fake)

	var changes changeCounter
	session.OnChange(func() { panic("observer exploded") })
	session.OnChange(changes.bump)

	fake.Broadcast("job_deleted", map[string]any{"jobId": "a"})
	changes.waitPast(t, 0)

	if !session.Connected() {
		t.Fatal("session must survive a panicking observer")
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	session := startSession(t, fake)
	session.Close()
	session.Close() // idempotent

	if res := session.Refresh(context.Background()); res.OK {
		t.Fatal("refresh on a closed session must fail")
	}
	if res := session.DeleteJob(context.Background(), "a"); res.OK {
		t.Fatal("delete on a closed session must fail")
	}
	if res, _ := session.CreateJob(context.Background(), sched.Input{}); res.OK {
		t.Fatal("create on a closed session must fail")
	}
	if err := session.Start(context.Background()); err == nil {
		t.Fatal("starting a closed session must error")
	}
}

func TestStartFailsWhenSchedulerUnreachable(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	cfg := testsupport.NewConfig(t, fake)
	fake.Close()

	session := mirror.New(cfg, logging.NewNop())
	t.Cleanup(session.Close)
	if err := session.Start(context.Background()); err == nil {
		t.Fatal("start must fail when the initial fetch cannot reach the scheduler")
	}
}
