package types

// Version is the moontools release version. Overridden at build time with
// -ldflags "-X github.com/m-mizutani/moontools/pkg/domain/types.Version=..."
var Version = "dev"
