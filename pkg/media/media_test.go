package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionTable(t *testing.T) {
	tests := []struct {
		aspect  string
		quality string
		width   int
		height  int
	}{
		{"16:9", "4k", 3840, 2160},
		{"16:9", "fullhd", 1920, 1080},
		{"16:9", "hd", 1280, 720},
		{"9:16", "fullhd", 1080, 1920},
		{"1:1", "hd", 720, 720},
		{"bogus", "bogus", 1280, 720},
	}

	for _, tc := range tests {
		w, h := Resolution(tc.aspect, tc.quality)
		assert.Equal(t, tc.width, w, "%s %s", tc.aspect, tc.quality)
		assert.Equal(t, tc.height, h, "%s %s", tc.aspect, tc.quality)
	}
}

func TestCRFByQuality(t *testing.T) {
	assert.Equal(t, "18", CRF("4k"))
	assert.Equal(t, "20", CRF("fullhd"))
	assert.Equal(t, "23", CRF("hd"))
	assert.Equal(t, "23", CRF(""))
}

func TestImageSizeByAspect(t *testing.T) {
	assert.Equal(t, "1792x1024", ImageSize("16:9"))
	assert.Equal(t, "1024x1792", ImageSize("9:16"))
	assert.Equal(t, "1024x1024", ImageSize("1:1"))
}

func TestConcatListRepeatsFinalFrame(t *testing.T) {
	list := concatList([]Slide{
		{ImagePath: "/tmp/a.png", Duration: 5},
		{ImagePath: "/tmp/b.png", Duration: 3},
	})

	expected := "file '/tmp/a.png'\n" +
		"duration 5\n" +
		"file '/tmp/b.png'\n" +
		"duration 3\n" +
		"file '/tmp/b.png'\n"
	assert.Equal(t, expected, list)
}

func TestBuildArgsWithNarration(t *testing.T) {
	args := buildArgs("/work/slides.txt", MuxInput{
		AudioPath:  "/work/narration.mp3",
		OutputPath: "/out/video.mp4",
		Width:      1920,
		Height:     1080,
		CRF:        "20",
	})

	assert.Contains(t, args, "-shortest")
	assert.Contains(t, args, "1:a:0")
	assert.Equal(t, "/out/video.mp4", args[len(args)-1])

	silent := buildArgs("/work/slides.txt", MuxInput{
		OutputPath: "/out/video.mp4",
		Width:      1280,
		Height:     720,
		CRF:        "23",
	})

	assert.NotContains(t, silent, "-shortest")
	assert.Contains(t, silent, "1280x720")
}
