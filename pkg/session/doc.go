/*
Package session implements draft persistence orchestration.

The Manager wraps a DraftStore so that every read and write of a session's snapshot
is serialized per session ID. Idle locks are dropped, and an optional DistributedLocker
extends the guarantee across replicas sharing one store. Saves refuse a snapshot whose
SessionID names another session and stamp SavedAt when the caller left it empty.
Manager itself satisfies ports.DraftStore, so a wizard controller can autosave through it.
*/
package session
