package references

// Report collects broken references as entity type -> entity id -> field
// name -> delta -> target id. Buckets exist only where a broken reference
// landed, so a clean scan leaves the report without leaves at any level.
type Report map[string]map[int64]map[string]map[int]int64

// Add records one broken reference.
func (r Report) Add(entityType string, entityID int64, field string, delta int, targetID int64) {
	byID, ok := r[entityType]
	if !ok {
		byID = make(map[int64]map[string]map[int]int64)
		r[entityType] = byID
	}
	byField, ok := byID[entityID]
	if !ok {
		byField = make(map[string]map[int]int64)
		byID[entityID] = byField
	}
	byDelta, ok := byField[field]
	if !ok {
		byDelta = make(map[int]int64)
		byField[field] = byDelta
	}
	byDelta[delta] = targetID
}

// Empty reports whether no broken references were recorded.
func (r Report) Empty() bool {
	return len(r) == 0
}
