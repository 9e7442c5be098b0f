/*
Package wizard implements the step controller of the deal registration wizard.

A Controller owns one Draft and the position in the step sequence. Every mutation
goes through it and is applied as an explicit reducer step: UpdateDraft merges the
patch, recomputes the whole ErrorMap and returns it together with the duplicate
detector state, so any read after UpdateDraft reflects the patch.

Navigation is never gated by validation. Only Submit is, and only from the last
(review) step.

Basic usage:

	c, err := wizard.New(
		wizard.WithLookup(index),
		wizard.WithSubmitter(index),
		wizard.WithStore(store),
	)
	res, _ := c.UpdateDraft(ctx, domain.Patch{"companyName": "Acme Corp"})
	_ = c.Advance(ctx)
	id, err := c.Submit(ctx) // *domain.BoundaryError until the review step
*/
package wizard
