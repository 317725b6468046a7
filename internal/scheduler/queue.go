package scheduler

import (
	"container/heap"

	"myai/internal/model"
)

type queueItem struct {
	job *model.SyncJob
	seq uint64
}

// jobHeap orders by priority (lower first), ties broken by enqueue
// sequence.
type jobHeap []queueItem

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority < h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(queueItem)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem{}
	*h = old[:n-1]
	return item
}

func (h *jobHeap) push(job *model.SyncJob, seq uint64) {
	heap.Push(h, queueItem{job: job, seq: seq})
}

func (h *jobHeap) pop() *model.SyncJob {
	return heap.Pop(h).(queueItem).job
}

func (h jobHeap) peek() *model.SyncJob {
	return h[0].job
}
