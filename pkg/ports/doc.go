/*
Package ports defines the driven ports (interfaces) of the deal registration wizard.

These interfaces decouple the wizard core from external collaborators, allowing the
same controller to run against in-memory fakes, files, Redis or a real CRM.

# Key Interfaces

  - DuplicateLookup: finds previously submitted deals that may conflict with a draft.
  - FileStorage: stores uploaded blobs and returns their descriptors.
  - DraftStore: persists and loads session snapshots for autosave and resume.
  - Submitter: hands a sanitized payload to the system of record.
  - DistributedLocker: provides distributed locking for concurrent session access.
*/
package ports
