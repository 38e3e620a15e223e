package version

// Version is stamped at release time:
// go build -ldflags "-X github.com/shishobooks/shelfkeep/pkg/version.Version=1.2.0" ./cmd/api
var Version = "dev"
