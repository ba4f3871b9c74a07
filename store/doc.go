// Package store houses concrete implementations of the core.ThreadStore.
// The interface itself lives in the core package to centralize domain
// contracts. Keeping only implementations here prevents higher level packages
// (graph, facade) from depending on concrete storage.
//
// Add additional backends (Postgres, Firestore, etc.) in sub-packages without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate. A Redis backend ships in store/redis.
package store
