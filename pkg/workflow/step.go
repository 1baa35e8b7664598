package workflow

import "github.com/aaiaas/automation/pkg/models"

// Step is the record of one node visit and the visits of its resolved successors.
type Step struct {
	NodeID   string
	Result   any
	Children []*Step
}

// Collapse folds the step tree into the traversal result. A step without successors yields its
// own result, a single successor yields that successor's value unwrapped, and two or more yield
// the ordered list of their values. Fan-out and fan-in are not distinguishable by shape.
func (s *Step) Collapse() any {
	type entry struct {
		step     *Step
		expanded bool
	}

	values := make(map[*Step]any)
	stack := []entry{{step: s}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !top.expanded {
			stack = append(stack, entry{step: top.step, expanded: true})
			for _, child := range top.step.Children {
				stack = append(stack, entry{step: child})
			}

			continue
		}

		switch len(top.step.Children) {
		case 0:
			values[top.step] = top.step.Result
		case 1:
			values[top.step] = values[top.step.Children[0]]
		default:
			list := make([]any, len(top.step.Children))
			for i, child := range top.step.Children {
				list[i] = values[child]
			}

			values[top.step] = list
		}
	}

	return values[s]
}

// arena addresses the nodes of a definition by index.
type arena struct {
	nodes []*models.WorkflowNode
	index map[string]int
}

func newArena(nodes []*models.WorkflowNode) *arena {
	a := &arena{
		nodes: make([]*models.WorkflowNode, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}

		// the first node with a given id wins
		if _, exists := a.index[node.ID]; !exists {
			a.index[node.ID] = len(a.nodes)
		}

		a.nodes = append(a.nodes, node)
	}

	return a
}

func (a *arena) trigger() (int, bool) {
	for i, node := range a.nodes {
		if node.Type == models.NodeTypeTrigger {
			return i, true
		}
	}

	return 0, false
}

// successors resolves the next ids of a node in listed order and reports the ids that do not resolve.
func (a *arena) successors(i int) ([]int, []string) {
	next := a.nodes[i].Next

	resolved := make([]int, 0, len(next))

	var missing []string

	for _, id := range next {
		j, ok := a.index[id]
		if !ok {
			missing = append(missing, id)

			continue
		}

		resolved = append(resolved, j)
	}

	return resolved, missing
}

// cycle returns the node ids of a cycle reachable in the graph, or nil when it is acyclic.
func (a *arena) cycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)

	type frame struct {
		node int
		next int
	}

	state := make([]int, len(a.nodes))
	succ := make([][]int, len(a.nodes))

	for i := range a.nodes {
		succ[i], _ = a.successors(i)
	}

	for start := range a.nodes {
		if state[start] != unvisited {
			continue
		}

		stack := []frame{{node: start}}
		state[start] = visiting

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next == len(succ[top.node]) {
				state[top.node] = done
				stack = stack[:len(stack)-1]

				continue
			}

			child := succ[top.node][top.next]
			top.next++

			switch state[child] {
			case unvisited:
				state[child] = visiting
				stack = append(stack, frame{node: child})
			case visiting:
				path := []string{}
				onPath := false

				for _, f := range stack {
					if f.node == child {
						onPath = true
					}

					if onPath {
						path = append(path, a.nodes[f.node].ID)
					}
				}

				return append(path, a.nodes[child].ID)
			}
		}
	}

	return nil
}
