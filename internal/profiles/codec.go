package profiles

import "fmt"

// CodecParams holds the ffmpeg codec arguments for one container extension.
type CodecParams struct {
	Codec          string
	BitrateApplies bool
}

// codecTable maps container extensions to their ffmpeg codec parameters.
// Lossless containers do not take a bitrate argument.
var codecTable = map[string]CodecParams{
	"flac": {Codec: "flac"},
	"wav":  {Codec: "pcm_s16le"},
	"mp3":  {Codec: "mp3", BitrateApplies: true},
	"aac":  {Codec: "aac", BitrateApplies: true},
	"ogg":  {Codec: "libvorbis", BitrateApplies: true},
	"m4a":  {Codec: "aac", BitrateApplies: true},
}

// CodecFor returns the codec parameters for a container extension.
func CodecFor(extension string) (CodecParams, error) {
	params, ok := codecTable[extension]
	if !ok {
		return CodecParams{}, fmt.Errorf("no codec mapping for container %q", extension)
	}
	return params, nil
}

// EncoderArgs returns the codec portion of an ffmpeg invocation for the
// profile: the codec selector plus, for lossy tiers, the bitrate argument.
func (p Profile) EncoderArgs() ([]string, error) {
	params, err := CodecFor(p.Extension)
	if err != nil {
		return nil, err
	}
	args := []string{"-codec:a", params.Codec}
	if params.BitrateApplies && p.Bitrate != "" {
		args = append(args, "-b:a", p.Bitrate)
	}
	return args, nil
}
