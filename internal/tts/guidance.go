package tts

// InstallGuidance returns Markdown setup instructions for an engine
func InstallGuidance(engine string) string {
	if g, ok := guidance[engine]; ok {
		return g
	}
	return "Unknown engine `" + engine + "`. Run `advtts engines` to list supported engines."
}

// FFmpegGuidance returns Markdown setup instructions for the transcoder
func FFmpegGuidance() string {
	return `ffmpeg is required to produce mp3, ogg and m4a output. To install:

    # Ubuntu/Debian
    sudo apt update && sudo apt install ffmpeg

    # Fedora
    sudo dnf install ffmpeg

    # macOS (Homebrew)
    brew install ffmpeg

    # Arch Linux
    sudo pacman -S ffmpeg

Or download from https://ffmpeg.org/download.html`
}

var guidance = map[string]string{
	"espeak-ng": `eSpeak NG is not installed. To install:

    # Ubuntu/Debian
    sudo apt install espeak-ng

    # Fedora
    sudo dnf install espeak-ng

    # macOS (Homebrew)
    brew install espeak-ng

Verify with ` + "`espeak-ng --version`.",

	"espeak": `eSpeak is not installed. To install:

    # Ubuntu/Debian
    sudo apt install espeak

    # macOS (Homebrew)
    brew install espeak

Most systems ship eSpeak NG instead; prefer the ` + "`espeak-ng`" + ` engine.`,

	"festival": `Festival is not installed. To install:

    # Ubuntu/Debian
    sudo apt install festival festvox-kallpc16k festvox-rablpc16k

    # Fedora
    sudo dnf install festival

The British voice requires the rab diphone database.`,

	"pico": `Pico TTS (pico2wave) is not installed. To install:

    # Ubuntu/Debian
    sudo apt install libttspico-utils

Pico supports en-US, en-GB, es-ES, fr-FR, de-DE and it-IT.`,

	"gtts": `gTTS (Google Text-to-Speech) is not installed. To install:

1. Install into the configured virtualenv (ADVTTS_PYTHON_VENV, default ~/.venvs/tts):

        python3 -m venv ~/.venvs/tts
        ~/.venvs/tts/bin/pip install gtts

   Or with pipx:

        pipx install gtts

2. Verify installation:

        gtts-cli --help

No API key is required, but gTTS needs an internet connection.`,

	"piper": `Piper TTS is not installed. To install:

1. Download the Piper binary from https://github.com/rhasspy/piper/releases
   and put it on PATH:

        wget https://github.com/rhasspy/piper/releases/latest/download/piper_linux_x86_64.tar.gz
        tar -xzf piper_linux_x86_64.tar.gz
        sudo cp piper/piper /usr/local/bin/

2. Download voice models into the models directory (engines.piper.models_dir):

        mkdir -p ~/.local/share/piper/models
        cd ~/.local/share/piper/models
        wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/lessac/medium/en_US-lessac-medium.onnx
        wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/lessac/medium/en_US-lessac-medium.onnx.json

Run ` + "`advtts models piper`" + ` to list the voices advtts knows about.`,

	"pyttsx3": `pyttsx3 needs a Python 3 interpreter with the pyttsx3 package.
The interpreter is looked up in the pyenv shims (ADVTTS_PYENV_ROOT, default ~/.pyenv) and then on PATH:

    pip install pyttsx3

    # Linux also needs a system speech backend
    sudo apt install espeak-ng libespeak1`,

	"coqui": `Coqui TTS is not installed. To install into a pyenv-managed Python:

    pyenv install 3.11
    pyenv global 3.11
    pip install TTS

Models are downloaded on first use. If synthesis fails with a weights
unpickling error, pin a compatible PyTorch release:

    pip install "torch<2.6"

advtts falls back to the configured secondary engine when it detects this class of failure.`,
}
