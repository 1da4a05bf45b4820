/*
Package session tracks which lattice node each client has selected and which nodes
are currently shown as active.

A Manager serialises read-modify-write cycles per session with an in-process lock and,
when configured, a distributed lock, so that several replicas can share one store.
Selections are view state only: the lattice they refer to is never modified.
*/
package session
