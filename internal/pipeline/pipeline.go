// Package pipeline runs the node transformation: normalize raw records,
// optionally enrich flags from geolocation, drop inactive nodes and render
// output records.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"nodectl/internal/model"
	"nodectl/internal/normalize"
	"nodectl/internal/rename"
)

// FlagResolver maps a node address to a country flag emoji. An empty
// string means unknown. *geo.Resolver implements it.
type FlagResolver interface {
	Flag(addr string) string
}

// Options controls one transformation batch.
type Options struct {
	// Pattern is the rename pattern applied to every surviving node.
	Pattern string
	// LatencyThresholdMs, when set, marks nodes with unknown latency or
	// latency above the threshold inactive.
	LatencyThresholdMs *float64
	// IncludeInactive keeps inactive nodes in the output.
	IncludeInactive bool
	// Workers > 1 processes records concurrently. Output order is input
	// order either way.
	Workers int
	// Flags optionally fills missing flags from the node IP. Nil disables
	// enrichment.
	Flags FlagResolver
}

// Transform normalizes and renders raws into output records. The pattern
// is compiled before any record is touched, so a bad pattern fails with a
// *rename.TemplateError and an untouched input. The returned slice is
// non-nil and in input order.
func Transform(ctx context.Context, raws []map[string]any, opts Options) ([]model.Record, error) {
	tpl, err := rename.Parse(opts.Pattern)
	if err != nil {
		return nil, err
	}

	all := make([]model.Record, len(raws))
	if opts.Workers > 1 && len(raws) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		chunk := (len(raws) + opts.Workers - 1) / opts.Workers
		for start := 0; start < len(raws); start += chunk {
			start := start
			end := min(start+chunk, len(raws))
			g.Go(func() error {
				for i := start; i < end; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					all[i] = opts.record(tpl, raws[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, raw := range raws {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			all[i] = opts.record(tpl, raw)
		}
	}

	records := make([]model.Record, 0, len(all))
	for _, rec := range all {
		if rec.Active || opts.IncludeInactive {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (o Options) record(tpl *rename.Template, raw map[string]any) model.Record {
	n := normalize.Node(raw, o.LatencyThresholdMs)
	if n.Flag == nil && n.IP != nil && o.Flags != nil {
		if flag := o.Flags.Flag(*n.IP); flag != "" {
			n.Flag = &flag
		}
	}
	return tpl.Record(n)
}
