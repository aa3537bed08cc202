package agentloop

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/isaid22/agentloop.Version=...".
var Version = "dev"
