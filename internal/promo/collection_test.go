package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seenimoa/coinscope/internal/payment"
	"github.com/seenimoa/coinscope/internal/store"
	"github.com/seenimoa/coinscope/pkg/utils"
)

// stubConfirmer resolves every reference to a fixed receipt.
type stubConfirmer struct {
	paid   bool
	status string
	err    error
}

func (s *stubConfirmer) Confirm(ctx context.Context, ref string) (payment.Receipt, error) {
	if s.err != nil {
		return payment.Receipt{}, s.err
	}
	return payment.Receipt{Reference: ref, Paid: s.paid, Status: s.status}, nil
}

func newTestCollection(t *testing.T, confirmer payment.Confirmer) *Collection {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return NewCollection(st, confirmer)
}

func TestCollectionAdd(t *testing.T) {
	c := newTestCollection(t, nil)

	added, err := c.Add(item("", func(it *Item) { it.Privileged = true; it.SizeClass = "" }))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Fatal("Add did not assign an ID")
	}
	if added.SizeClass != SizeBanner {
		t.Fatalf("size class = %q, want default %q", added.SizeClass, SizeBanner)
	}

	items := c.List()
	if len(items) != 1 || items[0].ID != added.ID {
		t.Fatalf("List() = %+v, want the added item", items)
	}
}

func TestCollectionAddRejectsInvalid(t *testing.T) {
	c := newTestCollection(t, nil)

	_, err := c.Add(item("", func(it *Item) { it.Title = "" }))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Add: %v, want *ValidationError", err)
	}
	if len(c.List()) != 0 {
		t.Fatal("invalid item was persisted")
	}
}

func TestCollectionAddDefaultWindow(t *testing.T) {
	c := newTestCollection(t, nil)

	// Non-privileged items without an end get a 24-hour window from start.
	added, err := c.Add(item("", func(it *Item) { it.EndTime = "" }))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	end, err := utils.ParseInstant(added.EndTime)
	if err != nil {
		t.Fatalf("assigned end %q does not parse: %v", added.EndTime, err)
	}
	start, _ := utils.ParseInstant(added.StartTime)
	if got := end.Sub(start); got != 24*time.Hour {
		t.Fatalf("default window = %v, want 24h", got)
	}

	// Privileged items keep the open-ended window.
	added, err = c.Add(item("", func(it *Item) { it.EndTime = ""; it.Privileged = true }))
	if err != nil {
		t.Fatalf("Add privileged: %v", err)
	}
	if added.EndTime != "" {
		t.Fatalf("privileged end = %q, want empty", added.EndTime)
	}
}

func TestCollectionUpdate(t *testing.T) {
	c := newTestCollection(t, nil)
	added, err := c.Add(item("", func(it *Item) { it.Privileged = true }))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	edit := added
	edit.Title = "New Title"
	edit.Privileged = false // must not be user-settable on update
	updated, err := c.Update(edit)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "New Title" {
		t.Fatalf("title = %q, want %q", updated.Title, "New Title")
	}
	if !updated.Privileged {
		t.Fatal("Update changed the privileged flag")
	}

	if _, err := c.Update(item("no-such-id")); err == nil {
		t.Fatal("Update of unknown ID succeeded")
	} else {
		var nf *ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("Update: %v, want *ErrNotFound", err)
		}
	}
}

func TestCollectionRemove(t *testing.T) {
	c := newTestCollection(t, nil)
	added, err := c.Add(item("", func(it *Item) { it.Privileged = true }))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := c.Remove(added.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(c.List()) != 0 {
		t.Fatal("item still listed after Remove")
	}

	var nf *ErrNotFound
	if err := c.Remove(added.ID); !errors.As(err, &nf) {
		t.Fatalf("second Remove: %v, want *ErrNotFound", err)
	}
}

func TestCheckoutFlow(t *testing.T) {
	c := newTestCollection(t, &stubConfirmer{paid: true, status: "complete"})

	// Paid submissions are never privileged, whatever the form claims.
	ref, err := c.BeginCheckout(item("", func(it *Item) { it.Privileged = true; it.EndTime = "" }))
	if err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if ref == "" {
		t.Fatal("BeginCheckout returned empty reference")
	}
	if len(c.List()) != 0 {
		t.Fatal("pending item was persisted before payment")
	}

	persisted, err := c.CompleteCheckout(context.Background(), ref)
	if err != nil {
		t.Fatalf("CompleteCheckout: %v", err)
	}
	if persisted.Privileged {
		t.Fatal("paid item came out privileged")
	}
	if persisted.EndTime == "" {
		t.Fatal("paid item has no end time")
	}

	items := c.List()
	if len(items) != 1 || items[0].ID != persisted.ID {
		t.Fatalf("List() = %+v, want the paid item", items)
	}
}

func TestCheckoutUnpaidStaysPending(t *testing.T) {
	c := newTestCollection(t, &stubConfirmer{paid: false, status: "open"})

	ref, err := c.BeginCheckout(item(""))
	if err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}

	if _, err := c.CompleteCheckout(context.Background(), ref); err == nil {
		t.Fatal("CompleteCheckout succeeded without payment")
	}
	if len(c.List()) != 0 {
		t.Fatal("unpaid item was persisted")
	}

	// The session stays claimable; a later confirmation persists it.
	c.confirmer = &stubConfirmer{paid: true, status: "complete"}
	if _, err := c.CompleteCheckout(context.Background(), ref); err != nil {
		t.Fatalf("CompleteCheckout after payment: %v", err)
	}
	if len(c.List()) != 1 {
		t.Fatal("paid item was not persisted")
	}
}

func TestCheckoutUnknownReference(t *testing.T) {
	c := newTestCollection(t, &stubConfirmer{paid: true, status: "complete"})
	if _, err := c.CompleteCheckout(context.Background(), "nope"); err == nil {
		t.Fatal("CompleteCheckout with unknown reference succeeded")
	}
}

// gatedConfirmer holds every Confirm call until release closes, so multiple
// completions can be forced in flight at once.
type gatedConfirmer struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedConfirmer) Confirm(ctx context.Context, ref string) (payment.Receipt, error) {
	g.entered <- struct{}{}
	<-g.release
	return payment.Receipt{Reference: ref, Paid: true, Status: "complete"}, nil
}

func TestCheckoutCompletesExactlyOnce(t *testing.T) {
	g := &gatedConfirmer{entered: make(chan struct{}, 2), release: make(chan struct{})}
	c := newTestCollection(t, g)

	ref, err := c.BeginCheckout(item(""))
	if err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.CompleteCheckout(context.Background(), ref)
			results <- err
		}()
	}

	// Both completions pass the pending lookup and block inside the
	// confirmer before either claims the reference.
	<-g.entered
	<-g.entered
	close(g.release)

	var failed int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("%d of 2 completions failed, want exactly 1", failed)
	}
	if got := len(c.List()); got != 1 {
		t.Fatalf("persisted %d items, want 1", got)
	}
}
