package engine

// tarjanSCC assigns every node in nodes a component index such that two nodes
// share an index iff each is reachable from the other via adj. Isolated nodes
// (no edges in or out) get their own singleton component. This is the
// textbook Tarjan algorithm; no graph library in the retrieved corpus offers
// an SCC routine, so it is implemented directly against the corpus's general
// map/slice idiom rather than reached for as a dependency.
func tarjanSCC(nodes []uint64, adj map[uint64][]uint64) map[uint64]int {
	st := &tarjanState{
		adj:     adj,
		index:   make(map[uint64]int, len(nodes)),
		lowlink: make(map[uint64]int, len(nodes)),
		onStack: make(map[uint64]bool, len(nodes)),
		comp:    make(map[uint64]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, visited := st.index[n]; !visited {
			st.strongconnect(n)
		}
	}
	return st.comp
}

type tarjanState struct {
	adj     map[uint64][]uint64
	index   map[uint64]int
	lowlink map[uint64]int
	onStack map[uint64]bool
	stack   []uint64
	counter int
	comp    map[uint64]int
	compID  int
}

func (st *tarjanState) strongconnect(v uint64) {
	st.index[v] = st.counter
	st.lowlink[v] = st.counter
	st.counter++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range st.adj[v] {
		if _, visited := st.index[w]; !visited {
			st.strongconnect(w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.lowlink[v] {
				st.lowlink[v] = st.index[w]
			}
		}
	}

	if st.lowlink[v] != st.index[v] {
		return
	}
	for {
		w := st.stack[len(st.stack)-1]
		st.stack = st.stack[:len(st.stack)-1]
		st.onStack[w] = false
		st.comp[w] = st.compID
		if w == v {
			break
		}
	}
	st.compID++
}
