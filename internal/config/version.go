package config

// Version is the access panel binary version.
// Set at build time via: -ldflags "-X github.com/accesspanel/accesspanel/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
