package friends

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/model"
)

func testGraph(t *testing.T) (*Graph, *directory.Memory, string, string) {
	t.Helper()
	dir := directory.NewMemory()
	ctx := context.Background()
	alice, err := dir.Register(ctx, "alice", "alice@example.com", "", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	bob, err := dir.Register(ctx, "bob", "bob@example.com", "", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return NewGraph(dir), dir, alice.ID, bob.ID
}

func TestGraph_SendRequest(t *testing.T) {
	g, _, alice, bob := testGraph(t)
	ctx := context.Background()

	edge, err := g.SendRequest(ctx, alice, bob)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if edge.Status != model.EdgePending || edge.SenderID != alice || edge.RecipientID != bob {
		t.Fatalf("unexpected edge: %+v", edge)
	}

	pending := g.ListPending(ctx, bob)
	if len(pending) != 1 || pending[0].ID != edge.ID {
		t.Fatalf("unexpected pending list: %+v", pending)
	}
	if got := g.ListPending(ctx, alice); len(got) != 0 {
		t.Fatalf("sender must not see the request inbound, got %+v", got)
	}
}

func TestGraph_SelfRequest(t *testing.T) {
	g, _, alice, _ := testGraph(t)
	if _, err := g.SendRequest(context.Background(), alice, alice); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}
}

func TestGraph_DuplicatePending(t *testing.T) {
	g, _, alice, bob := testGraph(t)
	ctx := context.Background()

	if _, err := g.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := g.SendRequest(ctx, alice, bob); !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}
	// One pending edge per unordered pair: the reverse direction conflicts too.
	if _, err := g.SendRequest(ctx, bob, alice); !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending for reverse request, got %v", err)
	}
}

func TestGraph_AcceptMakesFriends(t *testing.T) {
	g, dir, alice, bob := testGraph(t)
	ctx := context.Background()

	edge, _ := g.SendRequest(ctx, alice, bob)
	resolved, err := g.Respond(ctx, edge.ID, DecisionAccept)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if resolved.Status != model.EdgeAccepted || resolved.ResolvedAt == 0 {
		t.Fatalf("unexpected edge: %+v", resolved)
	}

	ok, _ := dir.AreFriends(ctx, alice, bob)
	if !ok {
		t.Fatalf("expected friendship applied")
	}

	// Edge retained for history.
	kept, found := g.Get(edge.ID)
	if !found || kept.Status != model.EdgeAccepted {
		t.Fatalf("expected resolved edge kept, got %+v found=%v", kept, found)
	}

	// Now AlreadyFriends blocks new requests in both directions.
	if _, err := g.SendRequest(ctx, alice, bob); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
	if _, err := g.SendRequest(ctx, bob, alice); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
}

func TestGraph_DeclineAllowsRetry(t *testing.T) {
	g, dir, alice, bob := testGraph(t)
	ctx := context.Background()

	edge, _ := g.SendRequest(ctx, alice, bob)
	resolved, err := g.Respond(ctx, edge.ID, DecisionDecline)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if resolved.Status != model.EdgeDeclined {
		t.Fatalf("expected declined, got %+v", resolved)
	}

	ok, _ := dir.AreFriends(ctx, alice, bob)
	if ok {
		t.Fatalf("decline must not create a friendship")
	}

	// A declined pair may be asked again.
	if _, err := g.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("SendRequest after decline: %v", err)
	}
}

func TestGraph_RespondNotFound(t *testing.T) {
	g, _, _, _ := testGraph(t)
	if _, err := g.Respond(context.Background(), "missing", DecisionAccept); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGraph_DoubleRespond(t *testing.T) {
	g, _, alice, bob := testGraph(t)
	ctx := context.Background()

	edge, _ := g.SendRequest(ctx, alice, bob)
	if _, err := g.Respond(ctx, edge.ID, DecisionAccept); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := g.Respond(ctx, edge.ID, DecisionAccept); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if _, err := g.Respond(ctx, edge.ID, DecisionDecline); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestGraph_AcceptRace(t *testing.T) {
	g, _, alice, bob := testGraph(t)
	ctx := context.Background()

	edge, _ := g.SendRequest(ctx, alice, bob)

	const racers = 8
	results := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = g.Respond(ctx, edge.ID, DecisionAccept)
		}(i)
	}
	wg.Wait()

	var wins, resolved int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyResolved):
			resolved++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || resolved != racers-1 {
		t.Fatalf("expected exactly one winner, got wins=%d resolved=%d", wins, resolved)
	}
}

func TestGraph_ListPendingOrderedOldestFirst(t *testing.T) {
	dir := directory.NewMemory()
	ctx := context.Background()
	target, _ := dir.Register(ctx, "carol", "carol@example.com", "", "pw")

	current := time.Unix(1000, 0)
	g := NewGraphWithNow(dir, func() time.Time { return current })

	var senders []string
	for _, name := range []string{"dave", "erin", "frank"} {
		u, _ := dir.Register(ctx, name, name+"@example.com", "", "pw")
		senders = append(senders, u.ID)
	}

	for _, sender := range senders {
		if _, err := g.SendRequest(ctx, sender, target.ID); err != nil {
			t.Fatalf("SendRequest: %v", err)
		}
		current = current.Add(time.Minute)
	}

	pending := g.ListPending(ctx, target.ID)
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	for i, edge := range pending {
		if edge.SenderID != senders[i] {
			t.Fatalf("wrong order at %d: %+v", i, pending)
		}
	}
}
