// Package depgraph orders desired tables into a safe creation/deletion
// sequence and isolates the foreign keys that cannot be created inline
// because their tables form a cycle (spec.md §4.4).
//
// Grounded on the teacher's schema/tsort.go topologicalSort (DFS with
// three-color marking) and schema/ddl_ordering.go's dependency-aware table
// ordering; this package keeps the same create-before-dependents shape but
// switches the sort itself to Kahn's algorithm with a sorted ready-queue,
// since spec.md §4.4 requires a deterministic, reproducible tie-break
// (case-sensitive name ascending) that a plain DFS emits in visit order
// rather than queue order.
package depgraph

import (
	"errors"
	"sort"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
)

// DeferredForeignKey names one foreign key pulled out of its owning
// table's inline definition because child and parent both sit inside a
// dependency cycle.
type DeferredForeignKey struct {
	Table      string
	ForeignKey catalog.ForeignKey
}

// Resolution is the Resolver's output.
type Resolution struct {
	CreateOrder []string
	DropOrder   []string
	Deferred    []DeferredForeignKey
}

var errUnresolvedCycle = errors.New("depgraph: cycle remained after deferring all detected cyclic foreign keys")

// Resolve implements spec.md §4.4.
func Resolve(tables []catalog.Table) (*Resolution, error) {
	names := make([]string, 0, len(tables))
	byQName := map[string]catalog.Table{}
	for _, t := range tables {
		q := t.QualifiedName()
		names = append(names, q)
		byQName[q] = t
	}
	sort.Strings(names)

	edges := buildEdgeSet(tables, byQName, nil)
	if order, ok := kahn(names, edges); ok {
		return &Resolution{CreateOrder: order, DropOrder: reverseOf(order)}, nil
	}

	cyclic := findCycleNodes(names, edges)

	deferredPairs := map[string]bool{}
	var deferred []DeferredForeignKey
	for _, t := range tables {
		child := t.QualifiedName()
		if !cyclic[child] {
			continue
		}
		for _, fk := range t.ForeignKeys {
			parent := referencedQualifiedName(fk, t.Schema)
			if parent == child || !cyclic[parent] {
				continue
			}
			deferred = append(deferred, DeferredForeignKey{Table: child, ForeignKey: fk})
			deferredPairs[child+"\x00"+parent] = true
		}
	}
	sort.Slice(deferred, func(i, j int) bool {
		if deferred[i].Table != deferred[j].Table {
			return deferred[i].Table < deferred[j].Table
		}
		return deferred[i].ForeignKey.ConstraintName < deferred[j].ForeignKey.ConstraintName
	})

	edges2 := buildEdgeSet(tables, byQName, deferredPairs)
	order2, ok2 := kahn(names, edges2)
	if !ok2 {
		return nil, &dbcore.InternalResolverError{Cause: errUnresolvedCycle}
	}
	return &Resolution{CreateOrder: order2, DropOrder: reverseOf(order2), Deferred: deferred}, nil
}

// buildEdgeSet returns child -> set-of-parents: a child table depends on
// (must be created after) each parent its non-self, non-external foreign
// keys reference. skipPairs removes specific child/parent pairs already
// marked deferred.
func buildEdgeSet(tables []catalog.Table, byQName map[string]catalog.Table, skipPairs map[string]bool) map[string]map[string]bool {
	edges := map[string]map[string]bool{}
	for _, t := range tables {
		child := t.QualifiedName()
		for _, fk := range t.ForeignKeys {
			if fk.External {
				continue
			}
			parent := referencedQualifiedName(fk, t.Schema)
			if parent == child {
				continue
			}
			if _, ok := byQName[parent]; !ok {
				continue
			}
			if skipPairs != nil && skipPairs[child+"\x00"+parent] {
				continue
			}
			if edges[child] == nil {
				edges[child] = map[string]bool{}
			}
			edges[child][parent] = true
		}
	}
	return edges
}

func referencedQualifiedName(fk catalog.ForeignKey, ownerSchema string) string {
	schema := fk.ReferencedSchema
	if schema == "" {
		schema = ownerSchema
	}
	if schema == "" {
		return fk.ReferencedTable
	}
	return schema + "." + fk.ReferencedTable
}

// kahn runs Kahn's topological sort with a sorted ready-queue so ties
// (several nodes simultaneously reaching in-degree zero) always break by
// name ascending, making the output reproducible across runs.
func kahn(names []string, edges map[string]map[string]bool) ([]string, bool) {
	indegree := map[string]int{}
	children := map[string][]string{}
	for _, n := range names {
		indegree[n] = 0
	}
	for child, parents := range edges {
		for parent := range parents {
			children[parent] = append(children[parent], child)
			indegree[child]++
		}
	}

	var queue []string
	for _, n := range names {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		var newlyZero []string
		for _, c := range children[n] {
			indegree[c]--
			if indegree[c] == 0 {
				newlyZero = append(newlyZero, c)
			}
		}
		if len(newlyZero) > 0 {
			sort.Strings(newlyZero)
			queue = append(queue, newlyZero...)
			sort.Strings(queue)
		}
	}
	return order, len(order) == len(names)
}

// findCycleNodes runs a DFS with an explicit recursion stack over the
// child->parent edges and collects every node that sits on some cycle.
func findCycleNodes(names []string, edges map[string]map[string]bool) map[string]bool {
	cyclic := map[string]bool{}
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string

	var dfs func(string)
	dfs = func(n string) {
		visited[n] = true
		onStack[n] = true
		stack = append(stack, n)

		parents := make([]string, 0, len(edges[n]))
		for p := range edges[n] {
			parents = append(parents, p)
		}
		sort.Strings(parents)

		for _, p := range parents {
			if onStack[p] {
				markCycle(stack, p, cyclic)
			} else if !visited[p] {
				dfs(p)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[n] = false
	}
	for _, n := range names {
		if !visited[n] {
			dfs(n)
		}
	}
	return cyclic
}

func markCycle(stack []string, start string, cyclic map[string]bool) {
	idx := -1
	for i, n := range stack {
		if n == start {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	for _, n := range stack[idx:] {
		cyclic[n] = true
	}
}

func reverseOf(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
