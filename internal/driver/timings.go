package driver

import (
	"encoding/json"
	"fmt"

	"lumen/internal/diag"
	"lumen/internal/observ"
)

// timingPayload is the machine-readable body of the timings diagnostic.
type timingPayload struct {
	Kind    string               `json:"kind"`
	Program string               `json:"program,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// AppendTimings attaches an informational diagnostic carrying the phase
// report, with the JSON payload in a note. The CLI surfaces it under
// --timings.
func AppendTimings(bag *diag.Bag, programName string, rep observ.Report) {
	if bag == nil {
		return
	}
	payload := timingPayload{
		Kind:    "analysis",
		Program: programName,
		TotalMS: rep.TotalMS,
		Phases:  rep.Phases,
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if programName != "" {
		msg = fmt.Sprintf("%s for %s", msg, programName)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, diag.Locus{}, msg).
		WithNote(diag.Locus{}, string(data))

	// Timings must survive a full bag; grow it through a merge when the
	// plain add is refused.
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
