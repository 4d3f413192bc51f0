// Package domain holds the core types of the mint workflow: the inbound
// Instruction, the reserve snapshot consulted before issuance, the signed
// report payloads submitted per stage, and the WorkflowOutcome produced
// exactly once per run.
//
// Business outcomes (insufficient reserves, policy rejections, transport
// failures) are modelled as values and typed errors, never as panics. All
// on-wire amounts are decimal strings scaled to integer base units; no
// floating point is used past parsing.
package domain
