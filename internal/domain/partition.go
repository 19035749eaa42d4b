package domain

import (
	"fmt"

	apperrors "ingestq.io/ingestq/internal/pkg/errors"
)

// Partition splits ids into consecutive groups of at most size ids.
// Concatenating the groups reproduces ids; only the last group may be short.
// The returned groups do not share memory with ids.
func Partition(ids []int64, size int) ([][]int64, error) {
	if len(ids) == 0 {
		return nil, apperrors.EmptyIDs()
	}
	if size <= 0 {
		return nil, fmt.Errorf("partition: batch size must be positive, got %d", size)
	}

	groups := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		groups = append(groups, append([]int64(nil), ids[start:end]...))
	}
	return groups, nil
}
