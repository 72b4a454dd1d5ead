package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/solarpo-backend/internal/automation"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
)

type generator interface {
	Ensure(ctx context.Context, req automation.Request) (*automation.Outcome, error)
	Preview(ctx context.Context, jobID uuid.UUID) (*automation.Preview, error)
	Sweep(ctx context.Context, limit int) (*automation.SweepResult, error)
}

// runtime is what every subcommand runs against once Before has wired it.
type runtime struct {
	gate    generator
	closers []func() error
}

func (rt *runtime) close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type bootFunc func(c *cli.Context) (*runtime, error)

func newApp(boot bootFunc) *cli.App {
	var rt *runtime

	before := func(c *cli.Context) error {
		r, err := boot(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		rt = r
		return nil
	}
	after := func(*cli.Context) error {
		if rt == nil {
			return nil
		}
		return rt.close()
	}
	jsonFlag := &cli.BoolFlag{Name: "json", Usage: "Print the full result as JSON"}
	jobFlag := &cli.StringFlag{Name: "job", Aliases: []string{"j"}, Usage: "Installation job id", Required: true}

	return &cli.App{
		Name:  "materials",
		Usage: "Generate and inspect supplier purchase orders for installation jobs",
		Commands: []*cli.Command{
			{
				Name:   "ensure",
				Usage:  "Generate purchase orders for one job unless they already exist",
				Flags:  []cli.Flag{jobFlag, jsonFlag},
				Before: before,
				After:  after,
				Action: func(c *cli.Context) error {
					jobID, err := parseJobID(c.String("job"))
					if err != nil {
						return err
					}
					out, err := rt.gate.Ensure(c.Context, automation.Request{JobID: jobID, TriggeredBy: automation.TriggerCLI})
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if c.Bool("json") {
						return writeJSON(c.App.Writer, out)
					}
					printOutcome(c.App.Writer, out)
					return nil
				},
			},
			{
				Name:  "sweep",
				Usage: "Generate purchase orders for every ready job that has none",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum jobs to scan", Value: 100},
					jsonFlag,
				},
				Before: before,
				After:  after,
				Action: func(c *cli.Context) error {
					res, err := rt.gate.Sweep(c.Context, c.Int("limit"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if c.Bool("json") {
						if err := writeJSON(c.App.Writer, res); err != nil {
							return err
						}
					} else {
						printSweep(c.App.Writer, res)
					}
					if failures := res.Err(); failures != nil {
						return cli.Exit(fmt.Sprintf("%d job(s) failed: %v", len(res.Failures), failures), 2)
					}
					return nil
				},
			},
			{
				Name:   "preview",
				Usage:  "Show the bill of materials and supplier choices without writing anything",
				Flags:  []cli.Flag{jobFlag, jsonFlag},
				Before: before,
				After:  after,
				Action: func(c *cli.Context) error {
					jobID, err := parseJobID(c.String("job"))
					if err != nil {
						return err
					}
					p, err := rt.gate.Preview(c.Context, jobID)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if c.Bool("json") {
						return writeJSON(c.App.Writer, p)
					}
					printPreview(c.App.Writer, p)
					return nil
				},
			},
		},
	}
}

func parseJobID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, cli.Exit(fmt.Sprintf("invalid job id %q", raw), 1)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOutcome(w io.Writer, out *automation.Outcome) {
	if !out.Created {
		fmt.Fprintf(w, "job %s already has material orders (%d)\n", out.JobID, len(out.Orders))
		printOrders(w, out.Orders)
		return
	}
	fmt.Fprintf(w, "job %s: created %d order(s), total %s\n", out.JobID, out.Summary.TotalOrders, out.Summary.TotalCost.StringFixed(2))
	printOrders(w, out.Orders)
	if len(out.Unresolved) > 0 {
		fmt.Fprintf(w, "%d line(s) need manual pricing\n", len(out.Unresolved))
		for _, u := range out.Unresolved {
			fmt.Fprintf(w, "  - %s x%d %s\n", u.Item.Description(), u.Item.Quantity, u.Item.Unit)
		}
	}
	for _, e := range out.Errors {
		fmt.Fprintf(w, "error: %s\n", e.Error())
	}
}

func printOrders(w io.Writer, list []models.MaterialOrder) {
	if len(list) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PO\tSUPPLIER\tITEMS\tSUBTOTAL\tTAX\tTOTAL\tSTATUS")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			o.PONumber, o.SupplierName, len(o.Items),
			o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Total.StringFixed(2), o.Status)
	}
	_ = tw.Flush()
}

func printSweep(w io.Writer, res *automation.SweepResult) {
	fmt.Fprintf(w, "scanned %d job(s): %d created, %d existing, %d failed\n",
		res.Scanned, len(res.Created), res.Existing, len(res.Failures))
	for _, out := range res.Created {
		fmt.Fprintf(w, "  %s: %d order(s), total %s\n", out.JobID, out.Summary.TotalOrders, out.Summary.TotalCost.StringFixed(2))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  %s (%s): %v\n", f.JobNumber, f.JobID, f.Err)
	}
}

func printPreview(w io.Writer, p *automation.Preview) {
	fmt.Fprintf(w, "job %s (%s), strategy %s\n", p.JobID, p.JobStatus, p.Strategy)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tITEM\tQTY\tSUPPLIER\tUNIT COST\tREASON")
	for _, line := range p.Lines {
		supplier, cost, reason := "-", "-", line.Error
		if line.Selection != nil {
			supplier = line.Selection.Selected.SupplierName
			cost = line.Selection.Selected.UnitCost.StringFixed(2)
			reason = line.Selection.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%d %s\t%s\t%s\t%s\n",
			line.Item.Category, line.Item.Description(), line.Item.Quantity, line.Item.Unit, supplier, cost, reason)
	}
	_ = tw.Flush()
	printOrders(w, p.Drafts)
	fmt.Fprintf(w, "draft total %s, %d unresolved, %d error(s)\n",
		p.Summary.TotalCost.StringFixed(2), len(p.Unresolved), len(p.Errors))
}
