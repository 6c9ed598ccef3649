package predictor

import "container/heap"

// pqItem is one candidate awaiting scoring (spec §4.5 step 5-6).
type pqItem struct {
	key, value, description string
	typ                     ResultType
	score                   int64
	seq                     int // insertion order, tie-break (SPEC_FULL §13 decision 2)
}

// priorityQueue is a max-heap on score, with insertion order as the
// deterministic tie-break among equal scores.
type priorityQueue struct {
	items []pqItem
}

func (pq *priorityQueue) Len() int { return len(pq.items) }
func (pq *priorityQueue) Less(i, j int) bool {
	if pq.items[i].score != pq.items[j].score {
		return pq.items[i].score > pq.items[j].score
	}
	return pq.items[i].seq < pq.items[j].seq
}
func (pq *priorityQueue) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }
func (pq *priorityQueue) Push(x any)    { pq.items = append(pq.items, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}

// init heapifies items already appended directly to pq.items.
func (pq *priorityQueue) init() { heap.Init(pq) }

func (pq *priorityQueue) pop() pqItem {
	return heap.Pop(pq).(pqItem)
}
