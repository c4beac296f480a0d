/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package collections

// Remove removes the first occurrence of toRemove from items.
// It reports whether an element was removed.
func Remove[T comparable](items []T, toRemove T) ([]T, bool) {
	for i, item := range items {
		if item == toRemove {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}
