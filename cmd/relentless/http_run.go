package main

import (
	"context"
	"net/http"
	"time"

	"github.com/relentless-eng/relentless/internal/config"
	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/measure"
	"github.com/relentless-eng/relentless/internal/protocol/httpproto"
	"github.com/relentless-eng/relentless/internal/record"
	"github.com/relentless-eng/relentless/internal/report"
	"github.com/relentless-eng/relentless/internal/runner"
	"github.com/relentless-eng/relentless/internal/template"
)

// buildHTTPWorker turns one decoded HTTP Config into a runner.WorkerFunc:
// every testcase's Setting is coalesced once against the worker Setting,
// and a CaseFunc closes over the coalesced request/response rules, a
// shared *http.Client, and the optional record.Config.
func buildHTTPWorker(cfg *config.Config[httpproto.Request, httpproto.Response], opts *config.CLIOptions, recordCfg *record.Config) runner.WorkerFunc {
	wc := cfg.WorkerConfig()
	destURIs := overlaidDestinations(wc.Destinations, opts)

	client := &http.Client{}

	caseFuncs := make([]runner.CaseFunc, len(cfg.Testcases))
	for i, tc := range cfg.Testcases {
		tc := tc
		setting := config.CoalesceSetting(wc.Setting, tc.Setting, httpproto.MergeRequest, httpproto.MergeResponse)
		template := setting.OrderedTemplate()
		timeout := setting.Timeout

		spec := runner.CaseSpec[httpproto.Reply]{
			Description:       tc.Description,
			Target:            tc.Target,
			RepeatTimes:       setting.Repeat.Times(),
			Attr:              report.Attr{Allow: tc.Attr.Allow},
			Percentiles:       opts.Percentiles,
			SequentialRepeats: opts.Sequential[config.LayerRepeats],
			Destinations:      destURIs.Names(),
			Call:              httpCall(client, destURIs, template, tc.Target, setting.Request, timeout, recordCfg),
			Evaluate: func(results *destinations.Map[measure.Result[httpproto.Reply]]) (bool, []string) {
				return httpproto.Evaluate(results, setting.Response)
			},
		}

		caseFuncs[i] = func(ctx context.Context) *report.CaseReport {
			return runner.RunCase(ctx, spec)
		}
	}

	name := wc.Name
	return func(ctx context.Context) *report.WorkerReport {
		return runner.RunWorker(ctx, name, caseFuncs, opts.Sequential[config.LayerTestcases])
	}
}

func httpCall(
	client *http.Client,
	destURIs *destinations.Map[string],
	templates *destinations.Map[template.Vars],
	target string,
	req httpproto.Request,
	timeout *time.Duration,
	recordCfg *record.Config,
) func(ctx context.Context, destination string) measure.Result[httpproto.Reply] {
	return func(ctx context.Context, name string) measure.Result[httpproto.Reply] {
		destURI, _ := destURIs.Get(name)
		vars, _ := templates.Get(name)

		built, err := httpproto.Produce(destURI, target, req, vars)
		if err != nil {
			return measure.OfFailToMakeRequest[httpproto.Reply](err)
		}

		do := func(ctx context.Context, b httpproto.BuiltRequest) (httpproto.Reply, error) {
			return httpproto.Do(client, ctx, b)
		}

		// Record sits outside the measured call: the request is dumped
		// before dispatch and the response after the measured result has
		// been captured, so disk writes never count against latency or
		// the timeout.
		record.DumpRequest(recordCfg, built.URL, httpproto.RequestCodec{}, built)
		result := measure.Call(ctx, timeout, nil, do, built)
		if resp, ok := result.Response(); ok {
			record.DumpResponse(recordCfg, built.URL, httpproto.ResponseCodec{}, resp.Response)
		}
		return result
	}
}
