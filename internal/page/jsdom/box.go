package jsdom

import (
	"strconv"
	"strings"
)

// box holds the computed vertical box metrics of an element, in pixels.
type box struct {
	borderBox     bool
	height        float64
	paddingTop    float64
	paddingBottom float64
	borderTop     float64
	borderBottom  float64
}

// computedBox reads the metrics through get, which returns computed style
// properties such as "height" or "padding-top".
func computedBox(get func(prop string) string) box {
	return box{
		borderBox:     get("box-sizing") == "border-box",
		height:        px(get("height")),
		paddingTop:    px(get("padding-top")),
		paddingBottom: px(get("padding-bottom")),
		borderTop:     px(get("border-top-width")),
		borderBottom:  px(get("border-bottom-width")),
	}
}

func (b box) extra() float64 {
	if !b.borderBox {
		return 0
	}
	return b.paddingTop + b.paddingBottom + b.borderTop + b.borderBottom
}

// content is the content height, whatever the box-sizing.
func (b box) content() float64 {
	return max(0, b.height-b.extra())
}

// styleHeight converts a content height into a value for style.height.
func (b box) styleHeight(content float64) float64 {
	return content + b.extra()
}

func px(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}
