package ffmpeg

// VideoInfo contains metadata about a media file. Duration is in seconds,
// matching the unit used by the scheduling engine.
type VideoInfo struct {
	FilePath   string
	Duration   float64
	Width      int
	Height     int
	FPS        float64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// Progress represents ffmpeg encode status data
type Progress struct {
	Frame int
	Time  string
	Speed string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations
type ProgressFunc func(*Progress)

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "fast"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// EncodeProfile describes the codec parameters for a final render attempt.
type EncodeProfile struct {
	Name       string
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
}

// PrimaryProfile is the preferred encode configuration for finished outputs.
func PrimaryProfile() EncodeProfile {
	return EncodeProfile{
		Name:       "primary",
		VideoCodec: DefaultVideoCodec,
		AudioCodec: DefaultAudioCodec,
		Preset:     DefaultPreset,
		CRF:        DefaultCRF,
	}
}

// FallbackProfile is a minimal configuration used when the primary encode
// attempt fails; it leaves codec selection to ffmpeg defaults.
func FallbackProfile() EncodeProfile {
	return EncodeProfile{Name: "fallback"}
}
