package scanner

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/harrison/contextpacker/internal/models"
)

// LargeDirThreshold is the record count above which the heap-based sort is
// used. The heap keeps worst-case behavior predictable on very large trees;
// below the threshold a plain sort wins on constant factors.
const LargeDirThreshold = 1000

// sortKey orders folders before files, then by case-insensitive name.
func sortKey(r models.FileRecord) (int, string) {
	group := 1
	if r.Kind == models.KindFolder {
		group = 0
	}
	return group, strings.ToLower(r.Name)
}

func recordLess(a, b models.FileRecord) bool {
	ga, na := sortKey(a)
	gb, nb := sortKey(b)
	if ga != gb {
		return ga < gb
	}
	return na < nb
}

// recordHeap implements heap.Interface for heap-sorting large result sets.
type recordHeap []models.FileRecord

func (h recordHeap) Len() int            { return len(h) }
func (h recordHeap) Less(i, j int) bool  { return recordLess(h[i], h[j]) }
func (h recordHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *recordHeap) Push(x interface{}) { *h = append(*h, x.(models.FileRecord)) }
func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// sortRecords sorts in place: folders first, case-insensitive name
// ascending. Uses a heap above LargeDirThreshold entries.
func sortRecords(records []models.FileRecord) {
	if len(records) > LargeDirThreshold {
		h := make(recordHeap, len(records))
		copy(h, records)
		heap.Init(&h)
		for i := range records {
			records[i] = heap.Pop(&h).(models.FileRecord)
		}
		return
	}
	sort.Slice(records, func(i, j int) bool {
		return recordLess(records[i], records[j])
	})
}
