package model

// Granularity is the bucket size of a bar series. It is passed through to
// the provider as is; nothing is resampled locally.
type Granularity uint8

const (
	Minute1 Granularity = iota
	Minute2
	Minute5
	Minute15
	Minute30
	Minute60
	Minute90
	Hour1
	Day1
	Day5
	Week1
	Month1
	Month3
)

var granularityTokens = [...]string{
	Minute1:  "1m",
	Minute2:  "2m",
	Minute5:  "5m",
	Minute15: "15m",
	Minute30: "30m",
	Minute60: "60m",
	Minute90: "90m",
	Hour1:    "1h",
	Day1:     "1d",
	Day5:     "5d",
	Week1:    "1wk",
	Month1:   "1mo",
	Month3:   "3mo",
}

func (g Granularity) String() string { return tokenOf(granularityTokens[:], int(g)) }

func (g Granularity) MarshalText() ([]byte, error) {
	return marshalToken(granularityTokens[:], int(g), "granularity")
}

func (g *Granularity) UnmarshalText(b []byte) error {
	v, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// ParseGranularity maps a canonical token such as "1d" or "1wk" to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	i, err := parseToken(granularityTokens[:], s, "granularity")
	if err != nil {
		return 0, err
	}
	return Granularity(i), nil
}
