package types

// Version is the canonical project version.
// The CLI and the ledger record format share this version.
const Version = "0.3.0"
