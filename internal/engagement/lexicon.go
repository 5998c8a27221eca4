package engagement

var defaultLexicon = map[string]float64{
	// positive
	"amazing":    0.6,
	"awesome":    1.0,
	"beautiful":  0.85,
	"best":       1.0,
	"brilliant":  0.9,
	"delicious":  1.0,
	"excellent":  1.0,
	"excited":    0.375,
	"exciting":   0.3,
	"fantastic":  0.4,
	"favorite":   0.5,
	"fresh":      0.3,
	"fun":        0.3,
	"glad":       0.5,
	"good":       0.7,
	"gorgeous":   0.7,
	"great":      0.8,
	"happy":      0.8,
	"incredible": 0.9,
	"inspiring":  0.5,
	"joy":        0.8,
	"love":       0.5,
	"lovely":     0.5,
	"nice":       0.6,
	"perfect":    1.0,
	"proud":      0.8,
	"stunning":   0.5,
	"success":    0.3,
	"sunny":      0.3,
	"sweet":      0.35,
	"thrilled":   0.6,
	"win":        0.8,
	"wonderful":  1.0,
	"wow":        0.1,
	"yay":        0.5,

	// negative
	"angry":        -0.5,
	"annoying":     -0.8,
	"awful":        -1.0,
	"bad":          -0.7,
	"boring":       -1.0,
	"broken":       -0.4,
	"cheap":        -0.1,
	"disappointed": -0.75,
	"disgusting":   -1.0,
	"fail":         -0.5,
	"hate":         -0.8,
	"horrible":     -1.0,
	"lost":         -0.3,
	"mediocre":     -0.5,
	"poor":         -0.4,
	"sad":          -0.5,
	"sorry":        -0.5,
	"terrible":     -1.0,
	"ugly":         -0.7,
	"worst":        -1.0,
	"wrong":        -0.5,
}

var defaultIntensifiers = map[string]float64{
	"absolutely": 1.3,
	"extremely":  1.5,
	"incredibly": 1.5,
	"really":     1.3,
	"so":         1.3,
	"super":      1.3,
	"totally":    1.3,
	"very":       1.3,
	"quite":      1.1,
	"somewhat":   0.7,
	"slightly":   0.5,
}

var defaultNegations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"isn't":   true,
	"aren't":  true,
	"wasn't":  true,
	"don't":   true,
	"doesn't": true,
	"didn't":  true,
	"can't":   true,
	"won't":   true,
}
