package httpproto

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"

	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/diff"
	"github.com/relentless-eng/relentless/internal/measure"
)

// Evaluate judges one repeat's per-destination results. It first checks
// every destination produced a Response (a non-Response result is a hard
// per-destination fail, recorded as a message); only then does it project
// the responses into status/header/body and run the three sub-acceptors,
// AND-ing their outcomes.
func Evaluate(results *destinations.Map[measure.Result[Reply]], spec Response) (bool, []string) {
	var messages []string
	ok := true

	replies := destinations.New[Reply]()
	for _, name := range results.Names() {
		r := results.MustGet(name)
		if resp, isResp := r.Response(); isResp {
			replies.Set(name, resp.Response)
			continue
		}
		ok = false
		messages = append(messages, fmt.Sprintf("%s: %s", name, classifyFailure(r)))
	}
	if !ok {
		return false, messages
	}

	statusValues := destinations.Map2(replies, func(_ string, r Reply) int { return r.StatusCode })
	pass, msgs := evalStatus(spec.Status, statusValues)
	ok = ok && pass
	messages = append(messages, msgs...)

	headerValues := destinations.Map2(replies, func(_ string, r Reply) map[string]string { return flattenHeader(r.Header) })
	pass, msgs = evalHeader(spec.Header, headerValues)
	ok = ok && pass
	messages = append(messages, msgs...)

	bodyValues := destinations.Map2(replies, func(_ string, r Reply) []byte { return r.Body })
	pass, msgs, err := evalBody(spec.Body, bodyValues)
	if err != nil {
		return false, append(messages, err.Error())
	}
	ok = ok && pass
	messages = append(messages, msgs...)

	return ok, messages
}

func classifyFailure(r measure.Result[Reply]) string {
	switch r.Kind() {
	case measure.KindTimeout:
		d, _ := r.Latency()
		return fmt.Sprintf("timed out after %s", d)
	case measure.KindNoReady:
		return fmt.Sprintf("not ready: %v", r.Err())
	case measure.KindFailToMakeRequest:
		return fmt.Sprintf("failed to make request: %v", r.Err())
	default:
		return fmt.Sprintf("inner service error: %v", r.Err())
	}
}

func flattenHeader(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func evalStatus(rule StatusRule, values *destinations.Map[int]) (bool, []string) {
	switch rule.Kind {
	case StatusIgnore:
		return true, nil
	// An unset rule defaults to OkOrEqual.
	case StatusOkOrEqual, "":
		if values.Len() == 1 {
			v := values.Values()[0]
			if v >= 200 && v < 300 {
				return true, nil
			}
			return false, []string{fmt.Sprintf("unacceptable status %d (not 2xx)", v)}
		}
		return pairwiseEqualInts(values)
	case StatusExpect:
		if rule.PerDestination != nil {
			var msgs []string
			pass := true
			values.Range(func(name string, v int) bool {
				want, ok := rule.PerDestination[name]
				if !ok || v != want {
					pass = false
					msgs = append(msgs, fmt.Sprintf("%s: unacceptable status %d (want %d)", name, v, want))
				}
				return true
			})
			return pass, msgs
		}
		want := 0
		if rule.Value != nil {
			want = *rule.Value
		}
		var msgs []string
		pass := true
		values.Range(func(name string, v int) bool {
			if v != want {
				pass = false
				msgs = append(msgs, fmt.Sprintf("%s: unacceptable status %d (want %d)", name, v, want))
			}
			return true
		})
		return pass, msgs
	default:
		return false, []string{fmt.Sprintf("unknown status rule %q", rule.Kind)}
	}
}

func pairwiseEqualInts(values *destinations.Map[int]) (bool, []string) {
	names := values.Names()
	pass := true
	var msgs []string
	for i := 0; i+1 < len(names); i++ {
		a, _ := values.Get(names[i])
		b, _ := values.Get(names[i+1])
		if a != b {
			pass = false
			msgs = append(msgs, fmt.Sprintf("%s (%d) != %s (%d)", names[i], a, names[i+1], b))
		}
	}
	return pass, msgs
}

func evalHeader(rule HeaderRule, values *destinations.Map[map[string]string]) (bool, []string) {
	switch rule.Kind {
	case HeaderIgnore:
		return true, nil
	// An unset rule defaults to AnyOrEqual.
	case HeaderAnyOrEqual, "":
		if values.Len() <= 1 {
			return true, nil
		}
		// Pivot to "destinations per header" so a mismatch names the
		// offending header instead of just the destination pair.
		byKey := destinations.TransposeKeyed(values)
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pass := true
		var msgs []string
		for _, k := range keys {
			dm := byKey[k]
			if dm.Len() != values.Len() {
				pass = false
				msgs = append(msgs, fmt.Sprintf("header %q missing on some destinations", k))
				continue
			}
			names := dm.Names()
			for i := 0; i+1 < len(names); i++ {
				a, _ := dm.Get(names[i])
				b, _ := dm.Get(names[i+1])
				if a != b {
					pass = false
					msgs = append(msgs, fmt.Sprintf("header %q differs between %s and %s", k, names[i], names[i+1]))
				}
			}
		}
		return pass, msgs
	case HeaderExpect:
		pass := true
		var msgs []string
		values.Range(func(name string, got map[string]string) bool {
			want := rule.Value
			if rule.PerDestination != nil {
				want = rule.PerDestination[name]
			}
			if !reflect.DeepEqual(got, want) {
				pass = false
				msgs = append(msgs, fmt.Sprintf("%s: unacceptable headers", name))
			}
			return true
		})
		return pass, msgs
	default:
		return false, []string{fmt.Sprintf("unknown header rule %q", rule.Kind)}
	}
}

func evalBody(rule BodyRule, values *destinations.Map[[]byte]) (bool, []string, error) {
	switch rule.Kind {
	case BodyRuleAnyOrEqual, "":
		if values.Len() <= 1 {
			return true, nil, nil
		}
		names := values.Names()
		pass := true
		var msgs []string
		for i := 0; i+1 < len(names); i++ {
			a, _ := values.Get(names[i])
			b, _ := values.Get(names[i+1])
			if string(a) != string(b) {
				pass = false
				msgs = append(msgs, fmt.Sprintf("body differs between %s and %s", names[i], names[i+1]))
			}
		}
		return pass, msgs, nil
	case BodyRulePlaintext:
		re, err := regexp.Compile(rule.Regex)
		if err != nil {
			return false, nil, fmt.Errorf("regex compile %q: %w", rule.Regex, err)
		}
		pass := true
		var msgs []string
		values.Range(func(name string, body []byte) bool {
			if !re.Match(body) {
				pass = false
				msgs = append(msgs, fmt.Sprintf("%s: body does not match %q", name, rule.Regex))
			}
			return true
		})
		return pass, msgs, nil
	case BodyRuleJSON:
		pass, diffMsgs, err := diff.Run(values, rule.toDiffConfig())
		if err != nil {
			return false, nil, err
		}
		msgs := make([]string, len(diffMsgs))
		for i, m := range diffMsgs {
			msgs[i] = fmt.Sprintf("diff at %s", m.Path)
		}
		return pass, msgs, nil
	default:
		return false, nil, fmt.Errorf("unknown body rule %q", rule.Kind)
	}
}
