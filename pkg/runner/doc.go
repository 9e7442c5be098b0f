/*
Package runner drives a wizard session headlessly over JSON-Lines.

It is the bridge between a wizard.Controller and a line-oriented client such as a
script, a test harness or another process talking over stdin/stdout. Each input line
is one Command; each Command produces exactly one Response line.

# Commands

	{"op":"view"}
	{"op":"update","patch":{"companyName":"Acme"}}
	{"op":"advance"}
	{"op":"retreat"}
	{"op":"remove-file","fileId":"..."}
	{"op":"review"}
	{"op":"save"}
	{"op":"submit"}
	{"op":"quit"}

# Usage

	r := runner.New(controller, runner.WithIO(os.Stdin, os.Stdout))
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
