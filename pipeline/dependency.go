package pipeline

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"obsqc/qc"
)

var INVALID_RULE_ERR error = errors.New("Malformed dependency rule")

// Wind below this is treated as calm
const CALM_EPSILON float64 = 1e-9

// Logger panel reference temperature
const PANEL_VARIABLE string = "PTemp_C_Avg"

// Rule forces a flag onto a target variable wherever any of the
// source variables resolved to one of the trigger codes at the same
// timestamp. Rules only escalate: a target already carrying a higher
// precedence flag keeps it.
type Rule struct {
	Target       string
	Sources      []string
	TriggerCodes []qc.Code
	SetCode      qc.Code
}

func (r *Rule) Validate() error {
	if r.Target == "" || len(r.Sources) == 0 {
		return fmt.Errorf("%w: needs a target and at least one source", INVALID_RULE_ERR)
	}
	if !r.SetCode.Valid() {
		return fmt.Errorf("%w: unknown code '%s'", INVALID_RULE_ERR, r.SetCode)
	}
	for _, code := range r.TriggerCodes {
		if !code.Valid() {
			return fmt.Errorf("%w: unknown trigger code '%s'", INVALID_RULE_ERR, code)
		}
	}
	return nil
}

// Apply rewrites the target series in place and returns the number of
// escalated results.
func (r *Rule) Apply(results map[string][]qc.Result) int {
	targets, ok := results[r.Target]
	if !ok {
		return 0
	}

	triggered := make(map[int64]bool)
	for _, source := range r.Sources {
		for _, res := range results[source] {
			if slices.Contains(r.TriggerCodes, res.Code) {
				triggered[res.Obstime.Unix()] = true
			}
		}
	}
	if len(triggered) == 0 {
		return 0
	}

	applied := 0
	for i := range targets {
		if triggered[targets[i].Obstime.Unix()] {
			applied += forceCode(&targets[i], r.SetCode)
		}
	}
	return applied
}

// sensorFaults are the codes that mark the source instrument itself
// as broken rather than the single reading.
var sensorFaults []qc.Code = []qc.Code{qc.FAIL, qc.NAN, qc.INF}

// DefaultRules covers the quantities the logger derives from other
// sensors on the same instrument. A derived value computed from a
// faulted input is discarded, a value whose correction input faulted
// is kept but marked suspect.
var DefaultRules []Rule = []Rule{
	{Target: "SWnet_Avg", Sources: []string{"SWin_Avg", "SWout_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "LWnet_Avg", Sources: []string{"LWin_Avg", "LWout_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "SWalbedo_Avg", Sources: []string{"SWin_Avg", "SWout_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "NR_Avg", Sources: []string{"SWin_Avg", "SWout_Avg", "LWin_Avg", "LWout_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "VP_hPa_Avg", Sources: []string{"RHT_C_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "RH", Sources: []string{"VP_hPa_Avg", "AirT_C_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "SlrTF_MJ_Tot", Sources: []string{"SlrFD_W_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "TCDT_Avg", Sources: []string{"DT_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
	{Target: "TCDT_Avg", Sources: []string{"AirT_C_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.SOFT},
	{Target: "DBTCDT_Avg", Sources: []string{"TCDT_Avg"}, TriggerCodes: sensorFaults, SetCode: qc.MISSING},
}

// PanelRules marks every other variable suspect wherever the logger
// panel reference failed, the panel temperature feeds the analog
// conversion of all channels.
func PanelRules(panel string, variables []string) []Rule {
	rules := make([]Rule, 0, len(variables))
	for _, variable := range variables {
		if variable == panel {
			continue
		}
		rules = append(rules, Rule{
			Target:       variable,
			Sources:      []string{panel},
			TriggerCodes: []qc.Code{qc.FAIL},
			SetCode:      qc.SOFT,
		})
	}
	return rules
}

// WindPair names a speed variable and the direction it steers.
type WindPair struct {
	Speed     string
	Direction string
}

var DefaultWindPairs []WindPair = []WindPair{
	{Speed: "WS_ms_Avg", Direction: "WindDir"},
}

// WindCascade nulls the direction wherever the paired speed is calm
// or was itself nullified. A vane without airflow reports an
// arbitrary angle, so the reading carries no information even when it
// looks plausible. Returns the number of forced results.
func WindCascade(results map[string][]qc.Result, pair WindPair) int {
	speeds, ok := results[pair.Speed]
	if !ok {
		return 0
	}
	targets, ok := results[pair.Direction]
	if !ok {
		return 0
	}

	calm := make(map[int64]bool)
	for _, res := range speeds {
		if res.Code.Nullifies() || (res.Corrected != nil && math.Abs(*res.Corrected) <= CALM_EPSILON) {
			calm[res.Obstime.Unix()] = true
		}
	}
	if len(calm) == 0 {
		return 0
	}

	applied := 0
	for i := range targets {
		if calm[targets[i].Obstime.Unix()] {
			applied += forceCode(&targets[i], qc.MISSING)
		}
	}
	return applied
}

func forceCode(res *qc.Result, code qc.Code) int {
	if !code.Outranks(res.Code) {
		return 0
	}
	res.Code = code
	if code.Nullifies() {
		res.Corrected = nil
	}
	return 1
}
