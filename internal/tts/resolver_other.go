//go:build !unix

package tts

func isExecutable(p string) bool {
	_, ok := isRegular(p)
	return ok
}
