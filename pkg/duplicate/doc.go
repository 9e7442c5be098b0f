/*
Package duplicate watches the company name and domain of a draft and looks up
prior registrations that may conflict with it.

The Detector is armed while the company name is longer than 2 characters or the
domain is longer than 3. Every Observe call supersedes the previous one: the pending
debounce timer is stopped, any in-flight lookup has its context cancelled, and a
late result from a superseded lookup is discarded. A generation counter is the
cancellation token that makes this explicit.

Lookup failures never block the user. They degrade to an empty candidate list plus
a soft warning.
*/
package duplicate
