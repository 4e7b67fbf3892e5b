package httpproto

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/measure"
)

func respResult(status int, body string) measure.Result[Reply] {
	return measure.OfResponse(measure.MeasuredResponse[Reply]{
		Response: Reply{StatusCode: status, Header: http.Header{}, Body: []byte(body)},
	})
}

func TestEvaluateAssaultStatus(t *testing.T) {
	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(200, ""))

	pass, msgs := Evaluate(results, Response{Status: StatusRule{Kind: StatusOkOrEqual}})
	require.True(t, pass)
	require.Empty(t, msgs)

	results = destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(503, ""))
	pass, msgs = Evaluate(results, Response{Status: StatusRule{Kind: StatusOkOrEqual}})
	require.False(t, pass)
	require.Len(t, msgs, 1)
}

// Equal non-2xx statuses pass in compare mode: agreement beats "not 2xx".
func TestEvaluateCompareStatus(t *testing.T) {
	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(418, ""))
	results.Set("expect", respResult(418, ""))
	pass, msgs := Evaluate(results, Response{Status: StatusRule{Kind: StatusOkOrEqual}})
	require.True(t, pass)
	require.Empty(t, msgs)

	results = destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(200, ""))
	results.Set("expect", respResult(201, ""))
	pass, msgs = Evaluate(results, Response{Status: StatusRule{Kind: StatusOkOrEqual}})
	require.False(t, pass)
	require.NotEmpty(t, msgs)
}

func TestEvaluateStatusExpectPerDestination(t *testing.T) {
	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(200, ""))
	results.Set("expect", respResult(201, ""))
	pass, msgs := Evaluate(results, Response{
		Status: StatusRule{Kind: StatusExpect, PerDestination: map[string]int{"actual": 200, "expect": 201}},
	})
	require.True(t, pass)
	require.Empty(t, msgs)
}

func TestEvaluateCompareHeadersByName(t *testing.T) {
	mk := func(v string) measure.Result[Reply] {
		return measure.OfResponse(measure.MeasuredResponse[Reply]{
			Response: Reply{StatusCode: 200, Header: http.Header{"X-Build": {v}}, Body: nil},
		})
	}

	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", mk("a1"))
	results.Set("expect", mk("a1"))
	pass, msgs := Evaluate(results, Response{Header: HeaderRule{Kind: HeaderAnyOrEqual}})
	require.True(t, pass)
	require.Empty(t, msgs)

	results = destinations.New[measure.Result[Reply]]()
	results.Set("actual", mk("a1"))
	results.Set("expect", mk("a2"))
	pass, msgs = Evaluate(results, Response{Header: HeaderRule{Kind: HeaderAnyOrEqual}})
	require.False(t, pass)
	require.Contains(t, msgs[0], `header "X-Build" differs between actual and expect`)
}

func TestEvaluateNonResponseIsFatal(t *testing.T) {
	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", measure.OfTimeout[Reply](50*time.Millisecond))
	pass, msgs := Evaluate(results, Response{Status: StatusRule{Kind: StatusOkOrEqual}})
	require.False(t, pass)
	require.Len(t, msgs, 1)
}

func TestEvaluateBodyJSONIgnore(t *testing.T) {
	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(200, `{"a":1,"t":"2024"}`))
	results.Set("expect", respResult(200, `{"a":1,"t":"2025"}`))

	body := Response{
		Status: StatusRule{Kind: StatusIgnore},
		Header: HeaderRule{Kind: HeaderIgnore},
		Body:   BodyRule{Kind: BodyRuleJSON, Ignore: []string{"/t"}},
	}
	pass, msgs := Evaluate(results, body)
	require.True(t, pass)
	require.Empty(t, msgs)

	body.Body.Ignore = nil
	pass, msgs = Evaluate(results, body)
	require.False(t, pass)
	require.Len(t, msgs, 1)
}

func TestEvaluateBodyPlaintextRegex(t *testing.T) {
	results := destinations.New[measure.Result[Reply]]()
	results.Set("actual", respResult(200, "hello world"))

	pass, msgs := Evaluate(results, Response{
		Status: StatusRule{Kind: StatusIgnore},
		Header: HeaderRule{Kind: HeaderIgnore},
		Body:   BodyRule{Kind: BodyRulePlaintext, Regex: "^hello"},
	})
	require.True(t, pass)
	require.Empty(t, msgs)

	pass, msgs = Evaluate(results, Response{
		Status: StatusRule{Kind: StatusIgnore},
		Header: HeaderRule{Kind: HeaderIgnore},
		Body:   BodyRule{Kind: BodyRulePlaintext, Regex: "^goodbye"},
	})
	require.False(t, pass)
	require.NotEmpty(t, msgs)
}
