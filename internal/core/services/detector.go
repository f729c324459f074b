package services

import (
	"github.com/harborline/docsift/internal/core/domain"
)

// Detect compares a freshly fetched item set against the known
// fingerprint map and partitions it into new, modified and unchanged.
// Every input item lands in exactly one partition; nothing is ever
// silently dropped. The returned map holds the fingerprints of the
// current run for every item and replaces the persisted map once the
// load has completed.
func Detect(items []domain.SourceItem, known map[string]string) (domain.ChangeSet, map[string]string) {
	var cs domain.ChangeSet
	updated := make(map[string]string, len(items))

	for i := range items {
		item := items[i]
		id := item.Identifier(i)
		fp := domain.Fingerprint(&item)
		updated[id] = fp

		// Positional identifiers are resolved here, once, so every
		// later stage sees the same identity for the item.
		if item.ID == "" {
			item.ID = id
		}

		prev, seen := known[id]
		switch {
		case !seen:
			cs.New = append(cs.New, item)
		case prev != fp:
			cs.Modified = append(cs.Modified, item)
		default:
			cs.Unchanged = append(cs.Unchanged, item)
		}
	}

	return cs, updated
}
