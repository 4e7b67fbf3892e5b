package grpcproto

import (
	"fmt"

	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/diff"
	"github.com/relentless-eng/relentless/internal/measure"
)

// Evaluate judges one repeat's per-destination results. The gRPC response
// rule is structurally empty, so the only comparison is over the decoded
// response JSON: a single destination always passes (assault mode has
// nothing to validate against, absent a declared rule), two or more
// destinations must agree structurally (compare mode).
func Evaluate(results *destinations.Map[measure.Result[Reply]], _ Response) (bool, []string) {
	var messages []string
	ok := true

	replies := destinations.New[[]byte]()
	for _, name := range results.Names() {
		r := results.MustGet(name)
		if resp, isResp := r.Response(); isResp {
			replies.Set(name, resp.Response.JSON)
			continue
		}
		ok = false
		messages = append(messages, fmt.Sprintf("%s: %s", name, classifyFailure(r)))
	}
	if !ok {
		return false, messages
	}

	pass, diffMsgs, err := diff.Run(replies, diff.Config{})
	if err != nil {
		return false, append(messages, err.Error())
	}
	for _, m := range diffMsgs {
		messages = append(messages, fmt.Sprintf("diff at %s", m.Path))
	}
	return pass, messages
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
