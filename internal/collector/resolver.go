package collector

import "strings"

const (
	// LocalSuffix marks instruments listed on the Buenos Aires exchange.
	LocalSuffix = ".BA"
	// ADRSuffix marks the domain alias of a depositary receipt.
	ADRSuffix = ".ADR"

	BenchmarkSymbol         = "MERVAL"
	BenchmarkProviderSymbol = "^MERV"
	ETFProviderSymbol       = "ARGT"
)

// Mapping pairs a domain ticker with its provider symbol.
type Mapping struct {
	Domain   string
	Provider string
}

// DefaultMappings is the static table of known tickers. Order matters for
// reverse lookups: the first domain symbol wins.
var DefaultMappings = []Mapping{
	// leading panel
	{"GGAL", "GGAL.BA"},
	{"PAMP", "PAMP.BA"},
	{"YPF", "YPFD.BA"},
	{"YPFD", "YPFD.BA"},
	{"TXAR", "TXAR.BA"},
	{"BYMA", "BYMA.BA"},
	{"BBAR", "BBAR.BA"},
	{"CEPU", "CEPU.BA"},
	{"TRAN", "TRAN.BA"},
	{"TGNO4", "TGNO4.BA"},
	{"TGSU2", "TGSU2.BA"},
	{"LOMA", "LOMA.BA"},
	{"BMA", "BMA.BA"},
	{"SUPV", "SUPV.BA"},
	{"CRES", "CRES.BA"},
	{"ALUA", "ALUA.BA"},
	{"COME", "COME.BA"},
	{"MIRG", "MIRG.BA"},
	{"HARG", "HARG.BA"},
	{"VALO", "VALO.BA"},

	// ADRs, quoted in USD
	{"GGAL.ADR", "GGAL"},
	{"YPF.ADR", "YPF"},
	{"BMA.ADR", "BMA"},
	{"SUPV.ADR", "SUPV"},
	{"LOMA.ADR", "LOMA"},
	{"BBAR.ADR", "BBAR"},
	{"PAM.ADR", "PAM"},
	{"TEO.ADR", "TEO"},
	{"TGS.ADR", "TGS"},

	{"ARGT", ETFProviderSymbol},
	{BenchmarkSymbol, BenchmarkProviderSymbol},
}

// DefaultOverrides corrects resolutions whose naive form is not the tradable
// line. Applied only where a tradable quote is requested.
var DefaultOverrides = map[string]string{
	"YPF": "YPFD.BA",
}

// Resolver maps domain tickers to provider symbols.
type Resolver struct {
	mappings  []Mapping
	byDomain  map[string]string
	known     map[string]bool
	overrides map[string]string
}

// NewResolver builds a resolver over the given table and overrides.
func NewResolver(mappings []Mapping, overrides map[string]string) *Resolver {
	r := &Resolver{
		mappings:  mappings,
		byDomain:  make(map[string]string, len(mappings)),
		known:     make(map[string]bool, len(mappings)),
		overrides: make(map[string]string, len(overrides)),
	}
	for _, m := range mappings {
		if _, dup := r.byDomain[m.Domain]; !dup {
			r.byDomain[m.Domain] = m.Provider
		}
		r.known[m.Provider] = true
	}
	for k, v := range overrides {
		r.overrides[k] = v
	}
	return r
}

// DefaultResolver uses DefaultMappings and DefaultOverrides.
func DefaultResolver() *Resolver {
	return NewResolver(DefaultMappings, DefaultOverrides)
}

// Resolve returns the provider symbol for domain. Unknown tickers without a
// recognized suffix get LocalSuffix appended as a guess; anything else is
// returned unchanged.
func (r *Resolver) Resolve(domain string) string {
	if p, ok := r.byDomain[domain]; ok {
		return p
	}
	if !strings.HasSuffix(domain, LocalSuffix) && !strings.HasSuffix(domain, ADRSuffix) {
		return domain + LocalSuffix
	}
	return domain
}

// ResolveTradable is Resolve followed by the override table.
func (r *Resolver) ResolveTradable(domain string) string {
	if p, ok := r.overrides[domain]; ok {
		return p
	}
	return r.Resolve(domain)
}

// Reverse returns the first domain symbol mapped to provider.
func (r *Resolver) Reverse(provider string) (string, bool) {
	for _, m := range r.mappings {
		if m.Provider == provider {
			return m.Domain, true
		}
	}
	return "", false
}

// Known reports whether provider appears in the mapping table.
func (r *Resolver) Known(provider string) bool {
	return r.known[provider]
}
