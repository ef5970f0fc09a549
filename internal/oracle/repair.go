package oracle

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/v0xg/vistest/internal/fault"
)

var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Repair normalizes near-JSON model output into valid JSON. The pipeline is
// deliberately bounded: strip code fences, trim to the outermost braces,
// then one pass of jsonrepair. Anything still invalid is an oracle fault,
// not something to keep patching around.
func Repair(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := fenceRE.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if json.Valid([]byte(s)) {
		return s, nil
	}

	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}
	if json.Valid([]byte(s)) {
		return s, nil
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil || !json.Valid([]byte(repaired)) {
		return "", fault.New(fault.Oracle, "response is not valid JSON after repair: %.200s", raw)
	}
	return repaired, nil
}

func decodeObject(raw string) (map[string]any, error) {
	s, err := Repair(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fault.Wrap(fault.Oracle, err, "response is not a JSON object: %.200s", s)
	}
	return obj, nil
}
