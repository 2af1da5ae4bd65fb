package generator

// Options controls a single batch run.
type Options struct {
	OutputDir  string
	NumVideos  int
	Target     float64
	MinClips   int
	MaxClips   int
	MinClipDur float64
	MaxClipDur float64
	UseEffects bool
	UseText    bool
	CustomText string
	AudioFiles []string
	Seed       int64
}
