// Package chain adapts the external signed-report submission capability and
// the token ledger.
//
// The forwarder client delivers encoded report payloads to the submission
// endpoint and maps its responses to tagged receipts. The local submitter
// auto-confirms every payload for demo use. The supply client reads issued
// supply from the ledger for the supply-aware reserve policy.
package chain
