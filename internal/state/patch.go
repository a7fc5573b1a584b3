package state

import (
	"slices"

	"github.com/samber/lo"

	"clinic-console/internal/model"
)

type keyed interface {
	Key() model.ID
}

// The patch strategies below are the only ways stores change a collection.

// replaceAll swaps the whole collection for a list response.
func replaceAll[T any](dst *[]T, in []T) {
	if in == nil {
		in = []T{}
	}
	*dst = in
}

// appendCreated adds a freshly created entity at the end.
func appendCreated[T any](dst *[]T, v T) {
	*dst = append(*dst, v)
}

// replaceByResponse overwrites the entry whose key matches v, keeping its
// position. It reports whether an entry matched.
func replaceByResponse[T keyed](dst *[]T, v T) bool {
	_, i, ok := lo.FindIndexOf(*dst, func(x T) bool { return x.Key() == v.Key() })
	if !ok {
		return false
	}
	(*dst)[i] = v
	return true
}

// patchByRequestKey edits the entry named by the caller's id in place. The
// server's response is not consulted.
func patchByRequestKey[T keyed](dst *[]T, id model.ID, fn func(*T)) bool {
	_, i, ok := lo.FindIndexOf(*dst, func(x T) bool { return x.Key() == id })
	if !ok {
		return false
	}
	fn(&(*dst)[i])
	return true
}

func removeByKey[T keyed](dst *[]T, id model.ID) {
	*dst = lo.Reject(*dst, func(x T, _ int) bool { return x.Key() == id })
}

// syncSelected replaces the selected entity when it is the one v updates.
func syncSelected[T keyed](sel **T, v T) {
	if *sel != nil && (**sel).Key() == v.Key() {
		cp := v
		*sel = &cp
	}
}

func clone[T any](s []T) []T {
	return slices.Clone(s)
}

func cloneOne[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
