package sources

// NewLYRA returns the Proba-2 LYRA client. Calibrated level 2 daily
// files are served unless the query asks for another level.
func NewLYRA() *Generic {
	return fromManifest("lyra")
}
