package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/gopxl/beep"
	beepmp3 "github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// Decode opens path as a sample stream chosen by its extension. Closing the
// stream closes the file.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	format, ok := ttypes.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if !ok || format == ttypes.FormatM4A {
		return nil, beep.Format{}, fmt.Errorf("%w: cannot decode %s", tts.ErrUnsupportedFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s  beep.StreamSeekCloser
		bf beep.Format
	)
	switch format {
	case ttypes.FormatWAV:
		s, bf, err = wav.Decode(f)
	case ttypes.FormatOGG:
		s, bf, err = vorbis.Decode(f)
	case ttypes.FormatMP3:
		s, bf, err = beepmp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return s, bf, nil
}
