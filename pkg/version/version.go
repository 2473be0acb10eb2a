package version

// Version is set at build time with -ldflags "-X github.com/cbodonnell/roomsync/pkg/version.Version=...".
var Version = "dev"

func Get() string {
	return Version
}
