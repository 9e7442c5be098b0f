/*
Package domain contains the core domain models of the deal registration wizard.

It defines the entities the wizard core works with: the typed Draft assembled from
one section per step, the ordered Step sequence, duplicate Candidates, uploaded file
descriptors and the persisted Snapshot of a session. This package is kept pure and
free of I/O, following Hexagonal Architecture principles; adapters depend on it, never
the other way around.

# Key Entities

  - Draft: the in-progress registration, one typed section per step plus internal scratch state.
  - Patch: a partial, field-name keyed update merged into a Draft.
  - Step: one page of the wizard with its ordinal position and status.
  - Candidate: a previously submitted deal that may conflict with the current draft.
  - Snapshot: the recoverable, persisted form of a session.
  - LifecycleHooks: observability callbacks fired by the wizard controller.
*/
package domain
