package views

import (
	"errors"

	"github.com/ldi/daybook/pkg/models"
)

// NoDestination marks a drop outside any valid target.
const NoDestination = -1

var ErrInvalidMove = errors.New("invalid move")

// Reorder moves view[from] to position to within view and folds the result
// back into the canonical order: every task not in view keeps its relative
// order, followed by the reordered view. On an invalid move the canonical
// order is returned unchanged together with ErrInvalidMove.
func Reorder(canonical, view []models.Task, from, to int) ([]models.Task, error) {
	if from < 0 || from >= len(view) || to < 0 || to >= len(view) {
		return clone(canonical), ErrInvalidMove
	}

	items := clone(view)
	moved := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]models.Task{moved}, items[to:]...)...)

	inView := make(map[string]struct{}, len(view))
	for _, t := range view {
		inView[t.ID] = struct{}{}
	}

	out := make([]models.Task, 0, len(canonical))
	for _, t := range canonical {
		if _, ok := inView[t.ID]; ok {
			continue
		}
		out = append(out, t)
	}
	return append(out, items...), nil
}

func clone(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
