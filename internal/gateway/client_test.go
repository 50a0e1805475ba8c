package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobmirror/internal/gateway"
	"jobmirror/internal/sched"
	"jobmirror/internal/testsupport"
)

func newClient(t *testing.T, baseURL string) *gateway.Client {
	t.Helper()
	return gateway.New(baseURL, 5*time.Second, nil)
}

func TestListJobsDecodesPartitions(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SeedJob(sched.Job{ID: "a", Status: sched.StatusQueued})
	fake.SeedJob(sched.Job{ID: "b", Status: sched.StatusSuccess})

	client := newClient(t, fake.URL())
	res := client.ListJobs(context.Background())
	if !res.OK {
		t.Fatalf("ListJobs failed: %s", res.Message)
	}
	if len(res.Jobs.Queued) != 1 || res.Jobs.Queued[0].ID != "a" {
		t.Fatalf("queued = %+v", res.Jobs.Queued)
	}
	if len(res.Jobs.Done) != 1 || res.Jobs.Done[0].ID != "b" {
		t.Fatalf("done = %+v", res.Jobs.Done)
	}
}

func TestCreateThenGetThenDelete(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	client := newClient(t, fake.URL())
	ctx := context.Background()

	created := client.CreateJob(ctx, sched.Submission{
		Description: "hourly sync",
		CodeType:    sched.CodeTypeShell,
		CodeContent: "sync.sh",
		Priority:    sched.PriorityHigh,
		StartTime:   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	if !created.OK {
		t.Fatalf("CreateJob failed: %s", created.Message)
	}
	if created.Job.ID == "" || created.Job.Status != sched.StatusQueued {
		t.Fatalf("unexpected created job: %+v", created.Job)
	}

	got := client.GetJob(ctx, created.Job.ID)
	if !got.OK || got.Job.Description != "hourly sync" {
		t.Fatalf("GetJob = %+v (%s)", got.Job, got.Message)
	}

	deleted := client.DeleteJob(ctx, created.Job.ID)
	if !deleted.OK {
		t.Fatalf("DeleteJob failed: %s", deleted.Message)
	}
	if fake.JobCount() != 0 {
		t.Fatalf("job not removed from backend, count=%d", fake.JobCount())
	}
}

func TestFailureEnvelopeSurfacesMessage(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.FailNext("dependency cycle detected")

	client := newClient(t, fake.URL())
	res := client.ListJobs(context.Background())
	if res.OK {
		t.Fatal("expected failure result")
	}
	if res.Message != "dependency cycle detected" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestNotFoundIsFailureNotPanic(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	client := newClient(t, fake.URL())
	res := client.GetJob(context.Background(), "ghost")
	if res.OK {
		t.Fatal("expected failure for unknown id")
	}
	if !strings.Contains(res.Message, "ghost") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestNetworkErrorNormalized(t *testing.T) {
	// Point at a server that is already closed.
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := newClient(t, server.URL)
	res := client.ListJobs(context.Background())
	if res.OK {
		t.Fatal("expected failure result")
	}
	if res.Message == "" {
		t.Fatal("failure message should not be empty")
	}
}

func TestMalformedBodyNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	res := client.SystemStatus(context.Background())
	if res.OK {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(res.Message, "malformed") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestTimeoutSurfacesFailure(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		server.Close()
	})

	client := gateway.New(server.URL, 50*time.Millisecond, nil)
	res := client.ListJobs(context.Background())
	if res.OK {
		t.Fatal("expected timeout failure")
	}
}

func TestSystemEndpoints(t *testing.T) {
	fake := testsupport.NewScheduler(t)
	fake.SetOrder([]string{"a", "b", "c"})
	client := newClient(t, fake.URL())
	ctx := context.Background()

	status := client.SystemStatus(ctx)
	if !status.OK || !status.Status.Online() {
		t.Fatalf("SystemStatus = %+v (%s)", status.Status, status.Message)
	}

	workers := client.WorkerStats(ctx)
	if !workers.OK || workers.Stats.Total != 4 {
		t.Fatalf("WorkerStats = %+v (%s)", workers.Stats, workers.Message)
	}

	order := client.ExecutionOrder(ctx)
	if !order.OK || len(order.Order) != 3 || order.Order[0] != "a" {
		t.Fatalf("ExecutionOrder = %v (%s)", order.Order, order.Message)
	}

	stats := client.SchedulerStats(ctx)
	if !stats.OK {
		t.Fatalf("SchedulerStats failed: %s", stats.Message)
	}
}
