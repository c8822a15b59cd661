package model

// Article is an encyclopedia entry a user has saved to their collection.
//
// OWNERSHIP:
// Every article belongs to exactly one user (OwnerID). The repository filters
// on owner_id for every read, update, and delete, so an article is never
// visible to, or mutable by, anyone but its owner.
//
// Tags is the ordered list of tags attached to the article. The order is the
// order of first occurrence in the request that last replaced them.
type Article struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	OwnerID int64  `json:"owner_id"`
	Tags    []Tag  `json:"tags"`
}

// Tag is a label shared across all articles that reference it.
//
// Tags live in a single global namespace: Name is unique across the whole
// system, created lazily the first time someone uses it, and never deleted
// (orphaned tags simply persist). Names are stored exactly as typed, the
// repository applies no case normalisation.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
