package audit

import "reflect"

// Diff returns the before/after projections of the keys whose values differ.
// Keys present in only one map count as changed; everything equal is dropped.
func Diff(old, new map[string]any) (map[string]any, map[string]any) {
	oldChanged := make(map[string]any)
	newChanged := make(map[string]any)

	for key, oldVal := range old {
		newVal, ok := new[key]
		if !ok {
			oldChanged[key] = oldVal
			continue
		}
		if !reflect.DeepEqual(oldVal, newVal) {
			oldChanged[key] = oldVal
			newChanged[key] = newVal
		}
	}
	for key, newVal := range new {
		if _, ok := old[key]; !ok {
			newChanged[key] = newVal
		}
	}

	if len(oldChanged) == 0 {
		oldChanged = nil
	}
	if len(newChanged) == 0 {
		newChanged = nil
	}
	return oldChanged, newChanged
}
