// Package pipeline implements the staged mint workflow: reserve check,
// signed mint report, optional signed cross-chain transfer report.
//
// Stages are strictly ordered and each must reach a definite result before
// the next begins. There is no compensation: a completed mint is never undone
// when the transfer leg fails, the outcome only reports precisely how far the
// pipeline got. The runner is stateless across runs; concurrent instructions
// are independent and share nothing.
package pipeline
