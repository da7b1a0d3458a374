package filter

// Rule pairs a lower-case name keyword with the reason reported when it hits.
type Rule struct {
	Keyword string
	Reason  string
}

// schoolRules catch school-tagged entries that are really studios. The
// keyword itself is the reason.
var schoolRules = keywordRules(
	"yoga",
	"pilates",
	"crossfit",
	"orangetheory",
	"f45 training",
	"pure barre",
	"curves",
	"martial arts academy",
	"karate academy",
	"dance studio",
	"ballet school",
	"montessori",
)

// clubRules apply to every non-school category. Order is significant: the
// earliest rule whose keyword appears in the name supplies the reason.
var clubRules = []Rule{
	// yoga, pilates, barre
	{"yoga", "yoga studio"},
	{"pilates", "pilates studio"},
	{"pure barre", "barre studio"},
	{"barre studio", "barre studio"},
	{"barre fitness", "barre studio"},

	// boutique fitness
	{"orangetheory", "Orangetheory"},
	{"orange theory", "Orangetheory"},
	{"f45 training", "F45"},
	{"f45 fitness", "F45"},
	{"crossfit", "CrossFit"},
	{"cross fit", "CrossFit"},
	{"curves for women", "Curves"},
	{"soul cycle", "SoulCycle"},
	{"soulcycle", "SoulCycle"},
	{"spin studio", "spin studio"},
	{"cycling studio", "cycling studio"},
	{"cycle bar", "CycleBar"},
	{"cyclebar", "CycleBar"},

	// martial arts
	{"martial arts academy", "martial arts"},
	{"karate academy", "karate"},
	{"karate school", "karate"},
	{"tae kwon do", "taekwondo"},
	{"taekwondo", "taekwondo"},
	{"jiu jitsu", "jiu jitsu"},
	{"judo club", "judo"},
	{"aikido", "aikido"},
	{"kung fu", "kung fu"},
	{"boxing gym", "boxing"},
	{"boxing club", "boxing"},
	{"mma gym", "MMA"},

	// dance
	{"dance studio", "dance studio"},
	{"dance academy", "dance studio"},
	{"ballet school", "ballet"},
	{"ballet academy", "ballet"},

	// swim-only
	{"swim center", "swim center"},
	{"swim club", "swim club"},
	{"swimming pool", "swimming pool"},
	{"aquatic center", "aquatic center"},
	{"aquatic centre", "aquatic center"},
	{"natatorium", "natatorium"},

	// senior centers
	{"senior center", "senior center"},
	{"senior centre", "senior center"},
	{"seniors center", "senior center"},

	// golf and tennis only
	{"golf course", "golf"},
	{"golf club", "golf"},
	{"tennis club", "tennis only"},
	{"tennis center", "tennis only"},
	{"racquet club", "racquet club"},
	{"racket club", "racquet club"},

	// medical and rehab
	{"physical therapy", "physical therapy"},
	{"rehabilitation center", "rehab"},
	{"chiropractic", "chiropractic"},

	// weight loss
	{"weight watchers", "weight watchers"},
	{"jenny craig", "weight loss"},
}

func keywordRules(keywords ...string) []Rule {
	rules := make([]Rule, len(keywords))
	for i, kw := range keywords {
		rules[i] = Rule{Keyword: kw, Reason: kw}
	}
	return rules
}
