package sanitize

// Default blocklists. Matching is case-insensitive substring containment,
// so shorter entries also catch longer official names.
var defaultOrganizations = []string{
	"federal bureau of investigation",
	"central intelligence agency",
	"national security agency",
	"internal revenue service",
	"department of homeland security",
	"secret service",
	"drug enforcement administration",
	"interpol",
	"europol",
	"mi5",
	"mi6",
	"gchq",
	"mossad",
	"hm revenue and customs",
	"hmrc",
	"fbi",
	"kgb",
	"fsb",
}

var defaultPublicFigures = []string{
	"elon musk",
	"donald trump",
	"joe biden",
	"barack obama",
	"vladimir putin",
	"xi jinping",
	"emmanuel macron",
	"king charles",
	"taylor swift",
	"jeff bezos",
	"bill gates",
	"mark zuckerberg",
}
