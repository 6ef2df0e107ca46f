// SPDX-License-Identifier: MPL-2.0

// Package provision (re)creates a single named container so that, after a
// successful run, exactly one container with that name exists, freshly created
// from the current spec, running, and attached.
//
// The routine is Existence Check -> Teardown -> Create -> Start -> Attach, with
// no retries and no rollback. Teardown calls (stop, remove) are best effort:
// their failures are recorded as Ignored entries on the Result and never abort
// the run. Create, start and attach failures abort with a *StepError.
package provision
