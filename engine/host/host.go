// Package host defines the narrow interfaces the reconciliation core uses to
// talk to its external collaborators: the graph node store, the
// subscriber-group lookup, the GraphQL query runner, and the external
// transform sandbox. The core never imports the host system directly — it
// only depends on these boundaries, small per-concern interfaces rather
// than one fat client.
package host

import (
	"context"

	"github.com/infrahub-io/computed-attributes/pkg/tplengine"
)

// Node is the graph node surface the reconciliation workers operate on. It
// embeds tplengine.Node so any Node returned by a NodeStore can be rendered
// against directly.
type Node interface {
	tplengine.Node
	ID() string
	Kind() string
	// AttributeString returns the current stored string value of attribute
	// name, used by the equality guard.
	AttributeString(name string) (string, bool)
}

// NodeStore is the host's graph query/mutation surface.
type NodeStore interface {
	// FindByFilter returns every node of kind where filterKey equals value:
	// "query the host for nodes of kind d.kind where filter_key == source_id".
	FindByFilter(ctx context.Context, branch, kind, filterKey, value string) ([]Node, error)

	// Get fetches a single node by id, used by the TRANSFORM worker to
	// resolve the node a query result describes.
	Get(ctx context.Context, branch, kind, id string) (Node, error)

	// ListKind enumerates every node of kind on branch, used by the
	// initial-sweep driver.
	ListKind(ctx context.Context, branch, kind string) ([]Node, error)

	// UpdateComputedAttribute is the single mutation workers emit
	UpdateComputedAttribute(ctx context.Context, branch, kind, id, attribute, value string) error
}

// QueryRunner executes a transform's GraphQL query against the host.
type QueryRunner interface {
	Run(ctx context.Context, branch, queryName string, vars map[string]any) (map[string]any, error)
}

// TransformRunner invokes external transform code in its repository
// worktree.
type TransformRunner interface {
	Run(ctx context.Context, worktreeDir, filePath, className string, queryResult map[string]any) (string, error)
}

// Subscriber is one member of a subscriber group.
type Subscriber struct {
	ID   string
	Kind string
}

// Group is a subscriber group: the set of nodes whose values feed one
// transform's query result, recorded at process_transform time so that
// later changes to query-read nodes can be fanned back out.
type Group struct {
	ID          string
	Subscribers []Subscriber
}

// SubscriberGroups is the host's subscriber-group query surface.
type SubscriberGroups interface {
	// GroupsContaining returns every group that includes nodeID as a
	// member.
	GroupsContaining(ctx context.Context, branch, nodeID string) ([]Group, error)

	// AssociateMember records that nodeID is a member of the group that
	// subscribes to the query result feeding subscriberNodeID's transform
	// run — the write side of the query used by (b) and read by (c).
	AssociateMember(ctx context.Context, branch, subscriberNodeID, memberNodeID string) error
}

// RepositoryManager resolves a transform's repository working tree. It is
// the sandbox boundary for transform execution.
type RepositoryManager interface {
	// ResolveCommit returns the commit the repository is at for branch.
	ResolveCommit(ctx context.Context, repositoryID, repositoryName, branch string) (commit string, err error)

	// Checkout acquires a named lock on repositoryName and
	// checks out commit into a worktree, returning its directory and an
	// unlock function the caller must call when done.
	Checkout(
		ctx context.Context,
		repositoryID, repositoryName, commit string,
	) (worktreeDir string, unlock func(), err error)
}

// TransformStore resolves a transform reference to its executable location.
type TransformStore interface {
	// Lookup returns the file path and class name implementing
	// transformRef, or ok=false if the store has no such transform
	Lookup(ctx context.Context, transformRef string) (filePath, className string, ok bool)
}
