// Package audio turns native engine output into deliverable files. It
// transcodes with ffmpeg, measures duration with pure Go decoders (falling
// back to ffprobe) and plays results through oto.
package audio
