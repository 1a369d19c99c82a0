package domain

// ViralSignal is the scoring verdict for one RawContent item.
// It is ephemeral: signals live only for the cycle that produced them.
type ViralSignal struct {
	Content RawContent

	IsViral    bool
	ViralScore float64 // always clamped to [0, 1]
	GrowthRate float64 // percent over the configured baseline
	ElapsedH   float64 // hours since publication, floored at 0.1

	// Signals lists every threshold check that fired, e.g. "views:120000".
	Signals []string

	// Reason explains a negative verdict; empty when IsViral is true.
	Reason string
}
