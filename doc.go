/*
Package dealreg is the core of a partner deal-registration intake wizard.

A partner registers a sales opportunity through five ordered steps: a quick duplicate
check, core partner and customer information, deal intelligence, documentation and a
final review. The library owns everything below the screens: step navigation, rule
based validation, debounced duplicate detection against prior registrations, and
sanitizing the accumulated draft into the payload handed to the system of record.

# Architecture

The wizard core is split into small packages, each usable on its own:

  - pkg/wizard: the StepController, single writer of one session.
  - pkg/validation: the rule engine producing a field to message ErrorMap.
  - pkg/duplicate: the debounced, cancellable duplicate detector.
  - pkg/sanitize: the allow-list payload sanitizer and free-text input guard.

Collaborators (draft store, duplicate lookup, file storage, submitter) are ports
(pkg/ports) with adapters for memory, the filesystem, Redis and external commands.
The Engine in this package wires them together and keeps track of live sessions.

# Usage

	eng, err := dealreg.New(dealreg.WithLookup(crm), dealreg.WithSubmitter(crm))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	wiz, err := eng.Start(ctx, "")
	if err != nil {
		log.Fatal(err)
	}

	res, _ := wiz.UpdateDraft(ctx, domain.Patch{"companyName": "Initech", "domain": "initech.com"})
	log.Println(res.Errors)

	// ...fill the remaining steps, then:
	for wiz.Advance(ctx) == nil {
	}
	id, err := wiz.Submit(ctx)
*/
package dealreg
