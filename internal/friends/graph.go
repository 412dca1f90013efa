// Package friends maintains the friend-request graph: pending edges between
// users, accept/decline transitions and the conflict checks around them.
// Resolved edges are kept for history. All mutations touching one unordered
// user pair are serialized behind a per-pair lock, so duplicate pending
// edges and double-accepts cannot race in.
package friends

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/model"
)

type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

type Graph struct {
	mu            sync.RWMutex
	edgesByID     map[string]model.FriendEdge
	pendingByPair map[string]string // unordered pair key -> edge id, pending edges only

	locksMu   sync.Mutex
	pairLocks map[string]*sync.Mutex

	dir directory.Directory
	now func() time.Time
}

func NewGraph(dir directory.Directory) *Graph {
	return NewGraphWithNow(dir, time.Now)
}

func NewGraphWithNow(dir directory.Directory, now func() time.Time) *Graph {
	return &Graph{
		edgesByID:     make(map[string]model.FriendEdge),
		pendingByPair: make(map[string]string),
		pairLocks:     make(map[string]*sync.Mutex),
		dir:           dir,
		now:           now,
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (g *Graph) lockPair(a, b string) *sync.Mutex {
	key := pairKey(a, b)

	g.locksMu.Lock()
	l := g.pairLocks[key]
	if l == nil {
		l = &sync.Mutex{}
		g.pairLocks[key] = l
	}
	g.locksMu.Unlock()

	l.Lock()
	return l
}

// SendRequest creates a pending edge from sender to recipient. Both ids must
// already be resolved; contact lookup is the directory's job.
func (g *Graph) SendRequest(ctx context.Context, senderID, recipientID string) (model.FriendEdge, error) {
	if senderID == recipientID {
		return model.FriendEdge{}, ErrSelfRequest
	}

	l := g.lockPair(senderID, recipientID)
	defer l.Unlock()

	already, err := g.dir.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return model.FriendEdge{}, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if already {
		return model.FriendEdge{}, ErrAlreadyFriends
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, pending := g.pendingByPair[pairKey(senderID, recipientID)]; pending {
		return model.FriendEdge{}, ErrDuplicatePending
	}

	edge := model.FriendEdge{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      model.EdgePending,
		SentAt:      g.now().UnixMilli(),
	}
	g.edgesByID[edge.ID] = edge
	g.pendingByPair[pairKey(senderID, recipientID)] = edge.ID
	return edge, nil
}

// Respond transitions a pending edge. Accepting applies the mutual
// friendship through the directory before the edge leaves the pending
// state, so a failed directory write leaves the request retryable. Under
// concurrent responses to the same edge exactly one caller wins; the rest
// get ErrAlreadyResolved.
func (g *Graph) Respond(ctx context.Context, edgeID string, decision Decision) (model.FriendEdge, error) {
	g.mu.RLock()
	edge, ok := g.edgesByID[edgeID]
	g.mu.RUnlock()
	if !ok {
		return model.FriendEdge{}, ErrNotFound
	}

	l := g.lockPair(edge.SenderID, edge.RecipientID)
	defer l.Unlock()

	g.mu.RLock()
	edge = g.edgesByID[edgeID]
	g.mu.RUnlock()
	if edge.Resolved() {
		return model.FriendEdge{}, ErrAlreadyResolved
	}

	if decision == DecisionAccept {
		if err := g.dir.AddFriend(ctx, edge.SenderID, edge.RecipientID); err != nil {
			return model.FriendEdge{}, fmt.Errorf("%w: %w", ErrTransient, err)
		}
		edge.Status = model.EdgeAccepted
	} else {
		edge.Status = model.EdgeDeclined
	}
	edge.ResolvedAt = g.now().UnixMilli()

	g.mu.Lock()
	g.edgesByID[edgeID] = edge
	delete(g.pendingByPair, pairKey(edge.SenderID, edge.RecipientID))
	g.mu.Unlock()

	return edge, nil
}

// ListPending returns the user's inbound pending requests, oldest first.
func (g *Graph) ListPending(_ context.Context, userID string) []model.FriendEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]model.FriendEdge, 0)
	for _, edge := range g.edgesByID {
		if edge.RecipientID == userID && edge.Status == model.EdgePending {
			result = append(result, edge)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SentAt != result[j].SentAt {
			return result[i].SentAt < result[j].SentAt
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Get returns an edge by id, resolved or not.
func (g *Graph) Get(edgeID string) (model.FriendEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edge, ok := g.edgesByID[edgeID]
	return edge, ok
}
