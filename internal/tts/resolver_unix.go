//go:build unix

package tts

import "golang.org/x/sys/unix"

func isExecutable(p string) bool {
	if _, ok := isRegular(p); !ok {
		return false
	}
	return unix.Access(p, unix.X_OK) == nil
}
