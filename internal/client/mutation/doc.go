// Package mutation runs writes against the backend while keeping the entity
// cache optimistically consistent.
//
// Every mutation goes through the same four stages:
//
//	prepare   cancel refetches of the affected keys, snapshot them, apply the optimistic patch
//	execute   validate the variables and call the backend
//	reconcile on success let the definition store server-confirmed data,
//	          on failure restore exactly the snapshots taken in prepare
//	finalize  run the settle hook and invalidate the affected scope once
//
// The engine has no notion of boards; services supply a Definition per
// mutation type.
package mutation
