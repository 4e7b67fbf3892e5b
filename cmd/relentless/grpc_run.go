package main

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/relentless-eng/relentless/internal/config"
	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/errs"
	"github.com/relentless-eng/relentless/internal/measure"
	"github.com/relentless-eng/relentless/internal/protocol/grpcproto"
	"github.com/relentless-eng/relentless/internal/record"
	"github.com/relentless-eng/relentless/internal/report"
	"github.com/relentless-eng/relentless/internal/runner"
	"github.com/relentless-eng/relentless/internal/template"
)

// buildGRPCWorker is buildHTTPWorker's gRPC twin: one *grpc.ClientConn per
// destination, dialed once and reused for every case/repeat (connections
// are cheaply shareable handles), coalesced per-case like HTTP.
func buildGRPCWorker(cfg *config.Config[grpcproto.Request, grpcproto.Response], opts *config.CLIOptions, recordCfg *record.Config) (runner.WorkerFunc, error) {
	wc := cfg.WorkerConfig()
	destURIs := overlaidDestinations(wc.Destinations, opts)

	conns := destinations.New[*grpc.ClientConn]()
	for _, name := range destURIs.Names() {
		uri, _ := destURIs.Get(name)
		conn, err := grpc.NewClient(uri, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, &errs.FactoryError{Msg: fmt.Sprintf("dial destination %q", name), Cause: err}
		}
		conns.Set(name, conn)
	}

	caseFuncs := make([]runner.CaseFunc, len(cfg.Testcases))
	for i, tc := range cfg.Testcases {
		tc := tc
		setting := config.CoalesceSetting(wc.Setting, tc.Setting, grpcproto.MergeRequest, grpcproto.MergeResponse)
		templ := setting.OrderedTemplate()
		timeout := setting.Timeout

		spec := runner.CaseSpec[grpcproto.Reply]{
			Description:       tc.Description,
			Target:            tc.Target,
			RepeatTimes:       setting.Repeat.Times(),
			Attr:              report.Attr{Allow: tc.Attr.Allow},
			Percentiles:       opts.Percentiles,
			SequentialRepeats: opts.Sequential[config.LayerRepeats],
			Destinations:      destURIs.Names(),
			Call:              grpcCall(conns, destURIs, templ, tc.Target, setting.Request, timeout, recordCfg),
			Evaluate: func(results *destinations.Map[measure.Result[grpcproto.Reply]]) (bool, []string) {
				return grpcproto.Evaluate(results, setting.Response)
			},
		}

		caseFuncs[i] = func(ctx context.Context) *report.CaseReport {
			return runner.RunCase(ctx, spec)
		}
	}

	name := wc.Name
	return func(ctx context.Context) *report.WorkerReport {
		return runner.RunWorker(ctx, name, caseFuncs, opts.Sequential[config.LayerTestcases])
	}, nil
}

func grpcCall(
	conns *destinations.Map[*grpc.ClientConn],
	destURIs *destinations.Map[string],
	templates *destinations.Map[template.Vars],
	target string,
	req grpcproto.Request,
	timeout *time.Duration,
	recordCfg *record.Config,
) func(ctx context.Context, destination string) measure.Result[grpcproto.Reply] {
	return func(ctx context.Context, name string) measure.Result[grpcproto.Reply] {
		conn, ok := conns.Get(name)
		if !ok {
			return measure.OfFailToMakeRequest[grpcproto.Reply](&errs.AssaultError{Service: name})
		}
		uri, _ := destURIs.Get(name)
		vars, _ := templates.Get(name)

		built, err := grpcproto.Produce(ctx, conn, uri, target, req, vars)
		if err != nil {
			return measure.OfFailToMakeRequest[grpcproto.Reply](err)
		}

		do := func(ctx context.Context, b grpcproto.BuiltRequest) (grpcproto.Reply, error) {
			return grpcproto.Do(ctx, conn, b)
		}

		// Record sits outside the measured call, same ordering as the
		// HTTP runner: dump the request, measure the dispatch, dump the
		// response.
		record.DumpRequest(recordCfg, built.FullMethod, grpcproto.RequestCodec{}, built)
		result := measure.Call(ctx, timeout, nil, do, built)
		if resp, ok := result.Response(); ok {
			record.DumpResponse(recordCfg, built.FullMethod, grpcproto.ResponseCodec{}, resp.Response)
		}
		return result
	}
}
