package util

import "os"

// dockerMarker is created by the docker runtime in every container.
var dockerMarker = "/.dockerenv"

// IsRunningInDocker reports whether the process runs inside a container,
// where a sqlite database has to live on a mounted volume.
func IsRunningInDocker() bool {
	_, err := os.Stat(dockerMarker)
	return err == nil
}
