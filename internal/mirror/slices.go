package mirror

import (
	"sort"

	"github.com/flowtrack-dev/flowtrack/internal/types"
)

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func cloneSlice[T any](items []T) []T {
	return append(make([]T, 0, len(items)), items...)
}

func sortByCreated(comments []types.CommentResponse) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
