package domain

// UpsertResult reports the outcome of one idempotent batch upsert.
// Duplicates are rows the store's URL uniqueness constraint rejected.
type UpsertResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}
