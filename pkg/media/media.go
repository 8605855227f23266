// Package media drives the external ffmpeg binary to assemble slideshow
// videos from scene images and an optional narration track.
package media

// Resolution returns the output dimensions for an aspect ratio and
// quality tier. Unknown aspect ratios fall back to 16:9, unknown
// qualities to HD.
func Resolution(aspectRatio, quality string) (int, int) {
	type dims struct{ w, h int }

	table := map[string]map[string]dims{
		"16:9": {
			"4k":     {3840, 2160},
			"fullhd": {1920, 1080},
			"hd":     {1280, 720},
		},
		"9:16": {
			"4k":     {2160, 3840},
			"fullhd": {1080, 1920},
			"hd":     {720, 1280},
		},
		"1:1": {
			"4k":     {2160, 2160},
			"fullhd": {1080, 1080},
			"hd":     {720, 720},
		},
	}

	byQuality, ok := table[aspectRatio]
	if !ok {
		byQuality = table["16:9"]
	}

	d, ok := byQuality[quality]
	if !ok {
		d = byQuality["hd"]
	}

	return d.w, d.h
}

// CRF returns the x264 constant rate factor for a quality tier.
func CRF(quality string) string {
	switch quality {
	case "4k":
		return "18"
	case "fullhd":
		return "20"
	}

	return "23"
}

// ImageSize returns the provider image size matching an aspect ratio.
func ImageSize(aspectRatio string) string {
	switch aspectRatio {
	case "16:9":
		return "1792x1024"
	case "9:16":
		return "1024x1792"
	}

	return "1024x1024"
}
