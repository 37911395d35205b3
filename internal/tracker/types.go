package tracker

import (
	"context"
	"strings"
	"time"
)

// TrackedItem is a read-only snapshot of a remote issue-like object. The
// resolution engine ranks these; it never writes back through them.
type TrackedItem struct {
	Number   int
	Title    string
	State    string
	Labels   []string
	ClosedAt *time.Time
}

// IsOpen reports whether the item is still actionable. REST spells the
// state "closed", GraphQL "CLOSED".
func (i TrackedItem) IsOpen() bool {
	return !strings.EqualFold(i.State, "closed")
}

// CollectionRef identifies the repository that owns created items.
type CollectionRef struct {
	Owner string
	Repo  string
}

// ItemPayload is the creation request for a new tracked item.
type ItemPayload struct {
	Title  string
	Body   string
	Labels []string
}

// ItemRef identifies a freshly created item. NodeID is the GraphQL node id
// needed to add the item to a project board.
type ItemRef struct {
	Number int
	URL    string
	NodeID string
}

// Client is the remote tracker surface the sync core depends on. Retry of
// transient server failures is the implementation's concern, not the
// caller's.
type Client interface {
	CreateItem(ctx context.Context, collection CollectionRef, payload ItemPayload) (ItemRef, error)
	AddItemToCollection(ctx context.Context, collectionID, itemNodeID string) (string, error)
	SetItemField(ctx context.Context, collectionID, collectionItemID, fieldID, optionID string) error
	ListCollectionItems(ctx context.Context, collectionID string) ([]TrackedItem, error)
	GetItem(ctx context.Context, collection CollectionRef, number int) (*TrackedItem, error)
}
