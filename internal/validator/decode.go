package validator

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/debrief/internal/condition"
)

// Response keys.
const (
	keyExplanations = "explanations"
	keyOverall      = "overall-eval"
	keyResult       = "result"
	keyFlags        = "flags"

	keyAskFirst            = "ask-first"
	keyAddressConfirmation = "address-confirmation"
	keyObtainedAddress     = "obtained-address"
	keyDoubleCheckingEnd   = "double-checking-end"

	keyAskPhone      = "ask-phone-number"
	keyPhoneFollowUp = "phone-follow-up"
	keyObtainedPhone = "obtained-phone"

	keyAskName      = "ask-full-name"
	keyNameFollowUp = "name-follow-up"
	keyObtainedName = "obtained-name"
)

// requiredKeys lists the keys each category's response must contain.
var requiredKeys = map[Category][]string{
	CategoryAddress:   {keyAskFirst, keyAddressConfirmation, keyObtainedAddress, keyDoubleCheckingEnd, keyOverall, keyExplanations},
	CategoryPhone:     {keyAskPhone, keyPhoneFollowUp, keyObtainedPhone, keyOverall, keyExplanations},
	CategoryName:      {keyAskName, keyNameFollowUp, keyObtainedName, keyOverall, keyExplanations},
	CategoryGeneral:   {keyResult, keyExplanations},
	CategoryCheck:     {keyResult, keyExplanations},
	CategoryFlags:     {keyFlags, keyExplanations},
	CategoryCondition: {keyResult, keyExplanations},
}

// response is a decoded JSON object with lazily typed values.
type response map[string]json.RawMessage

// parseResponse extracts the JSON object from raw model output, tolerating
// Markdown code fences and surrounding prose, and checks cat's required keys.
func parseResponse(cat Category, raw string) (response, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, malformed("no JSON object in response")
	}

	var r response
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}

	var missing []string
	for _, k := range requiredKeys[cat] {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, malformed("missing keys %s", strings.Join(missing, ", "))
	}
	return r, nil
}

func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// value returns the raw value of a required key. A null value is as
// malformed as a missing one.
func (r response) value(key string) ([]byte, error) {
	raw := bytes.TrimSpace(r[key])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, malformed("%s: value is null", key)
	}
	return raw, nil
}

// verdict accepts booleans and YES/NO/N/A style strings.
func (r response) verdict(key string) (Verdict, error) {
	raw, err := r.value(key)
	if err != nil {
		return "", err
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return VerdictYes, nil
		}
		return VerdictNo, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", malformed("%s: want boolean or YES/NO/N/A, got %s", key, raw)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return VerdictYes, nil
	case "no", "n", "false":
		return VerdictNo, nil
	case "n/a", "na", "not applicable":
		return VerdictNA, nil
	}
	return "", malformed("%s: unrecognized verdict %q", key, s)
}

// text accepts a string or a list of strings, joined with spaces.
func (r response) text(key string) (string, error) {
	raw := bytes.TrimSpace(r[key])
	if bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var parts []string
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", malformed("%s: want string or list of strings, got %s", key, raw)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, " "), nil
}

// codes accepts a list of strings or a comma separated string and upper
// cases every entry.
func (r response) codes(key string) ([]string, error) {
	raw, err := r.value(key)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, malformed("%s: want list of strings, got %s", key, raw)
		}
		list = strings.Split(s, ",")
	}
	out := make([]string, 0, len(list))
	for _, c := range list {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// ids accepts a list of integers, numeric strings allowed.
func (r response) ids(key string) ([]int, error) {
	raw, err := r.value(key)
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, malformed("%s: want list of condition IDs, got %s", key, raw)
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, malformed("%s: condition ID %s is not an integer", key, item)
			}
			n = json.Number(strings.TrimSpace(s))
		}
		id, err := strconv.Atoi(n.String())
		if err != nil {
			return nil, malformed("%s: condition ID %s is not an integer", key, item)
		}
		out = append(out, id)
	}
	return out, nil
}

// decoder collects the first error across several field reads.
type decoder struct {
	r   response
	err error
}

func (d *decoder) verdict(key string) Verdict {
	if d.err != nil {
		return ""
	}
	v, err := d.r.verdict(key)
	d.err = err
	return v
}

func (d *decoder) text(key string) string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.text(key)
	d.err = err
	return v
}

func decodeAddress(r response) (*AddressResult, error) {
	d := &decoder{r: r}
	res := &AddressResult{
		AskedFirst:    d.verdict(keyAskFirst),
		DoubleChecked: d.verdict(keyAddressConfirmation),
		Obtained:      d.verdict(keyObtainedAddress),
		CheckedAtEnd:  d.verdict(keyDoubleCheckingEnd),
		Overall:       d.verdict(keyOverall),
		Explanation:   d.text(keyExplanations),
	}
	return res, d.err
}

func decodePhone(r response) (*PhoneResult, error) {
	d := &decoder{r: r}
	res := &PhoneResult{
		Asked:       d.verdict(keyAskPhone),
		FollowUp:    d.verdict(keyPhoneFollowUp),
		Obtained:    d.verdict(keyObtainedPhone),
		Overall:     d.verdict(keyOverall),
		Explanation: d.text(keyExplanations),
	}
	return res, d.err
}

func decodeName(r response) (*NameResult, error) {
	d := &decoder{r: r}
	res := &NameResult{
		Asked:       d.verdict(keyAskName),
		FollowUp:    d.verdict(keyNameFollowUp),
		Obtained:    d.verdict(keyObtainedName),
		Overall:     d.verdict(keyOverall),
		Explanation: d.text(keyExplanations),
	}
	return res, d.err
}

func decodeJudgment(r response) (*Judgment, error) {
	d := &decoder{r: r}
	res := &Judgment{
		Result:      d.verdict(keyResult),
		Explanation: d.text(keyExplanations),
	}
	return res, d.err
}

func decodeFlags(r response) (*FlagsResult, error) {
	flags, err := r.codes(keyFlags)
	if err != nil {
		return nil, err
	}
	expl, err := r.text(keyExplanations)
	if err != nil {
		return nil, err
	}
	return &FlagsResult{Flags: flags, Explanation: expl}, nil
}

func decodeConditions(r response) (*ConditionsResult, error) {
	ids, err := r.ids(keyResult)
	if err != nil {
		return nil, err
	}
	expl, err := r.text(keyExplanations)
	if err != nil {
		return nil, err
	}
	return &ConditionsResult{Applied: condition.NewSet(ids...), Explanation: expl}, nil
}
