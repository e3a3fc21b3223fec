package remote

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tracker/internal/classify"
	"tracker/internal/core"
)

var baseEventFields = map[string]bool{
	"id": true, "kind": true, "title": true, "notes": true,
	"set_date": true, "series_id": true, "series": true,
}

// listJoinedEvents fetches the base collection and the three variant
// collections concurrently. Any failure fails the whole list.
func (c *Client) listJoinedEvents(ctx context.Context) ([]core.Record, error) {
	collections := []string{
		core.CollectionEvents,
		core.CollectionMedicalEvents,
		core.CollectionWorkEvents,
		core.CollectionFinancialEvents,
	}
	results := make([][]core.Record, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	for i, coll := range collections {
		g.Go(func() error {
			recs, err := c.list(gctx, coll)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return joinEvents(results[0], results[1:], collections[1:]), nil
}

// joinEvents nests each variant row's own fields under the variant envelope
// of the base row with the same id. Variant rows without a base row are
// appended in collection order.
func joinEvents(base []core.Record, variants [][]core.Record, collections []string) []core.Record {
	out := make([]core.Record, len(base))
	index := make(map[string]int, len(base))
	for i, rec := range base {
		out[i] = rec.Clone()
		index[rec.ID()] = i
	}

	for vi, rows := range variants {
		v, _ := core.VariantForCollection(collections[vi])
		env := classify.For(v).Envelope
		for _, row := range rows {
			details := core.Record{}
			for k, val := range row {
				if !baseEventFields[k] {
					details[k] = val
				}
			}
			i, ok := index[row.ID()]
			if !ok {
				rec := row.Clone()
				rec["kind"] = string(v)
				out = append(out, rec)
				continue
			}
			out[i]["kind"] = string(v)
			out[i][env] = details
		}
	}
	return out
}
