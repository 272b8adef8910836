package prefix

// need says that browser releases from..to (inclusive, empty means
// unbounded) require prefix for a feature. name overrides the unprefixed
// property name when the prefixed form was spelled differently.
type need struct {
	prefix  string
	browser string
	from    string
	to      string
	name    string
}

type feature struct {
	props []string
	needs []need
}

const (
	webkit = "-webkit-"
	moz    = "-moz-"
	ms     = "-ms-"
	opera  = "-o-"
)

var prefixOrder = []string{webkit, moz, ms, opera}

var (
	transforms2d = feature{
		props: []string{"transform", "transform-origin"},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "35"},
			{prefix: webkit, browser: "safari", to: "8"},
			{prefix: webkit, browser: "ios_saf", to: "8.4"},
			{prefix: webkit, browser: "android", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "22"},
			{prefix: moz, browser: "firefox", from: "3.5", to: "15"},
			{prefix: ms, browser: "ie", from: "9", to: "9"},
			{prefix: opera, browser: "opera", from: "10.5", to: "12"},
		},
	}

	transforms3d = feature{
		props: []string{"perspective", "perspective-origin", "transform-style"},
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "12", to: "35"},
			{prefix: webkit, browser: "safari", from: "4", to: "8"},
			{prefix: webkit, browser: "ios_saf", to: "8.4"},
			{prefix: webkit, browser: "android", from: "3", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "22"},
			{prefix: moz, browser: "firefox", from: "10", to: "15"},
		},
	}

	backface = feature{
		props: []string{"backface-visibility"},
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "12", to: "35"},
			{prefix: webkit, browser: "safari", from: "4", to: "15.4"},
			{prefix: webkit, browser: "ios_saf", to: "15.4"},
			{prefix: webkit, browser: "android", from: "3", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "22"},
			{prefix: moz, browser: "firefox", from: "10", to: "15"},
		},
	}

	transitions = feature{
		props: []string{
			"transition", "transition-property", "transition-duration",
			"transition-timing-function", "transition-delay",
		},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "25"},
			{prefix: webkit, browser: "safari", to: "6"},
			{prefix: webkit, browser: "ios_saf", to: "6.1"},
			{prefix: webkit, browser: "android", to: "4.3"},
			{prefix: moz, browser: "firefox", from: "4", to: "15"},
			{prefix: opera, browser: "opera", from: "10.5", to: "12"},
		},
	}

	animations = feature{
		props: []string{
			"animation", "animation-name", "animation-duration", "animation-delay",
			"animation-direction", "animation-fill-mode", "animation-iteration-count",
			"animation-play-state", "animation-timing-function",
		},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "42"},
			{prefix: webkit, browser: "safari", to: "8"},
			{prefix: webkit, browser: "ios_saf", to: "8.4"},
			{prefix: webkit, browser: "android", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "29"},
			{prefix: moz, browser: "firefox", from: "5", to: "15"},
			{prefix: opera, browser: "opera", from: "12", to: "12"},
		},
	}

	boxShadow = feature{
		props: []string{"box-shadow"},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "9"},
			{prefix: webkit, browser: "safari", to: "5"},
			{prefix: webkit, browser: "ios_saf", to: "4.2"},
			{prefix: webkit, browser: "android", to: "3"},
			{prefix: moz, browser: "firefox", to: "3.6"},
		},
	}

	borderRadius = feature{
		props: []string{
			"border-radius", "border-top-left-radius", "border-top-right-radius",
			"border-bottom-right-radius", "border-bottom-left-radius",
		},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "4"},
			{prefix: webkit, browser: "safari", to: "4"},
			{prefix: webkit, browser: "ios_saf", to: "3.2"},
			{prefix: webkit, browser: "android", to: "2.1"},
			{prefix: moz, browser: "firefox", to: "3.6"},
		},
	}

	boxSizing = feature{
		props: []string{"box-sizing"},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "9"},
			{prefix: webkit, browser: "safari", to: "5"},
			{prefix: webkit, browser: "ios_saf", to: "4.2"},
			{prefix: webkit, browser: "android", to: "3"},
			{prefix: moz, browser: "firefox", to: "28"},
		},
	}

	userSelect = feature{
		props: []string{"user-select"},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "53"},
			{prefix: webkit, browser: "safari"},
			{prefix: webkit, browser: "ios_saf"},
			{prefix: webkit, browser: "android", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "40"},
			{prefix: moz, browser: "firefox", to: "68"},
			{prefix: ms, browser: "ie", from: "10"},
			{prefix: ms, browser: "edge", to: "18"},
		},
	}

	appearance = feature{
		props: []string{"appearance"},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "83"},
			{prefix: webkit, browser: "safari", to: "15.4"},
			{prefix: webkit, browser: "ios_saf", to: "15.4"},
			{prefix: webkit, browser: "android", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "69"},
			{prefix: webkit, browser: "edge", from: "12", to: "83"},
			{prefix: moz, browser: "firefox", to: "79"},
		},
	}

	hyphens = feature{
		props: []string{"hyphens"},
		needs: []need{
			{prefix: webkit, browser: "safari", from: "5.1", to: "16.6"},
			{prefix: webkit, browser: "ios_saf", from: "4.2", to: "16.6"},
			{prefix: moz, browser: "firefox", from: "6", to: "42"},
			{prefix: ms, browser: "ie", from: "10"},
			{prefix: ms, browser: "edge", to: "18"},
		},
	}

	multicolumn = feature{
		props: []string{
			"columns", "column-count", "column-gap", "column-rule", "column-rule-color",
			"column-rule-style", "column-rule-width", "column-width", "column-fill",
		},
		needs: []need{
			{prefix: webkit, browser: "chrome", to: "49"},
			{prefix: webkit, browser: "safari", to: "8"},
			{prefix: webkit, browser: "ios_saf", to: "8.4"},
			{prefix: webkit, browser: "android", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "36"},
			{prefix: moz, browser: "firefox", to: "51"},
		},
	}

	filters = feature{
		props: []string{"filter"},
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "18", to: "52"},
			{prefix: webkit, browser: "safari", from: "6", to: "9"},
			{prefix: webkit, browser: "ios_saf", from: "6", to: "9.3"},
			{prefix: webkit, browser: "android", from: "4.4", to: "4.4.3"},
			{prefix: webkit, browser: "opera", from: "15", to: "39"},
		},
	}

	// flexbox covers the final syntax; IE 10 used the 2012 draft names.
	flexbox = feature{
		props: []string{
			"flex", "flex-direction", "flex-wrap", "flex-flow", "flex-grow",
			"flex-shrink", "flex-basis", "order", "justify-content", "align-items",
			"align-self", "align-content",
		},
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "21", to: "28"},
			{prefix: webkit, browser: "safari", from: "6.1", to: "8"},
			{prefix: webkit, browser: "ios_saf", from: "7", to: "8.4"},
			{prefix: webkit, browser: "opera", from: "15", to: "16"},
		},
	}

	flexboxIE = []feature{
		{props: []string{"flex"}, needs: []need{{prefix: ms, browser: "ie", from: "10", to: "10"}}},
		{props: []string{"flex-direction"}, needs: []need{{prefix: ms, browser: "ie", from: "10", to: "10"}}},
		{props: []string{"flex-wrap"}, needs: []need{{prefix: ms, browser: "ie", from: "10", to: "10"}}},
		{props: []string{"flex-flow"}, needs: []need{{prefix: ms, browser: "ie", from: "10", to: "10"}}},
		{props: []string{"order"}, needs: []need{{prefix: ms, browser: "ie", from: "10", to: "10", name: "flex-order"}}},
	}

	gradients = feature{
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "10", to: "25"},
			{prefix: webkit, browser: "safari", from: "5.1", to: "6"},
			{prefix: webkit, browser: "ios_saf", from: "5", to: "6.1"},
			{prefix: webkit, browser: "android", from: "4", to: "4.3"},
			{prefix: moz, browser: "firefox", from: "3.6", to: "15"},
			{prefix: opera, browser: "opera", from: "11.1", to: "12"},
		},
	}

	// oldWebkitGradients are the releases that only understand the original
	// -webkit-gradient(linear, ...) syntax.
	oldWebkitGradients = feature{
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "4", to: "9"},
			{prefix: webkit, browser: "safari", from: "4", to: "5"},
			{prefix: webkit, browser: "ios_saf", from: "3.2", to: "4.2"},
			{prefix: webkit, browser: "android", from: "2.1", to: "3"},
		},
	}

	// display: flex values of the 2009 draft and of IE 10.
	displayFlex2009 = feature{
		needs: []need{
			{prefix: webkit, browser: "chrome", from: "4", to: "20"},
			{prefix: webkit, browser: "safari", from: "3.1", to: "6"},
			{prefix: webkit, browser: "ios_saf", from: "3.2", to: "6.1"},
			{prefix: webkit, browser: "android", from: "2.1", to: "4.3"},
		},
	}
	displayFlexIE = feature{
		needs: []need{{prefix: ms, browser: "ie", from: "10", to: "10"}},
	}
)

var propertyFeatures = []feature{
	transforms2d, transforms3d, backface, transitions, animations, boxShadow,
	borderRadius, boxSizing, userSelect, appearance, hyphens, multicolumn,
	filters, flexbox,
}

// gradientProps are the properties whose values are scanned for gradients.
var gradientProps = map[string]bool{
	"background": true, "background-image": true, "border-image": true,
	"list-style": true, "list-style-image": true, "mask-image": true,
}
