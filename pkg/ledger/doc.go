/*
Package ledger defines the ledger SDK collaborator boundary: account
queries, node create/update/delete, freeze/upgrade, and transfer
transactions as opaque request/response calls.

hivectl's orchestration decides when these run and with what parameters;
the SDK binding owns construction, signing, and receipt polling. The
Recording client stands in when no binding is linked: every transaction is
recorded and logged so dry runs stay observable and tests can assert on the
exact submission sequence.
*/
package ledger
