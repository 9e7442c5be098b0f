/*
Package sanitize turns a draft into the minimal payload sent to the submission collaborator.

Sanitize is pure and idempotent: the output only ever contains allow-listed fields,
with empty values dropped, strings trimmed and the domain lower-cased. Input guards
free text typed by users before it reaches a draft.
*/
package sanitize
