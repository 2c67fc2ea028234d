// Package bot wires the chat transport to the dialogue state machine, the
// session store, and the clip pipeline.
//
// Inbound updates are routed onto per-user lanes: every update from one user
// is handled in arrival order on that user's lane while different users run
// concurrently. Handlers translate messages and button presses into dialog
// events, commit them through session.Store.Mutate, and then perform the
// effects the transition asked for (retiring prompts, redrawing the preview,
// starting a run).
//
// A committed clip runs on its own goroutine so the user's lane stays free;
// later events from that user are answered with a busy notice until the run
// destroys the session. UI bookkeeping failures (a prompt that cannot be
// deleted, a status message that cannot be edited) are logged at WARN and
// never change the dialogue outcome.
package bot
