package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/orderdesk/orderdesk/internal/data"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/http/uiutil"
	"github.com/orderdesk/orderdesk/internal/service"
)

type ordersReportOptions struct {
	Timeout time.Duration
	Limit   int
	Status  string
}

func parseOrdersReportFlags(args []string) (ordersReportOptions, error) {
	fs := flag.NewFlagSet("orders-report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := ordersReportOptions{Timeout: time.Minute, Limit: 10}
	fs.DurationVar(&opts.Timeout, "timeout", time.Minute,
		"Maximum duration to wait for the report queries")
	fs.IntVar(&opts.Limit, "limit", 10, "Number of recent orders to list")
	fs.StringVar(&opts.Status, "status", "",
		"Restrict the recent-orders list to one status (pending, paid, shipped, cancelled, refunded)")

	if err := fs.Parse(args); err != nil {
		return ordersReportOptions{}, err
	}
	if opts.Timeout <= 0 {
		return ordersReportOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Limit <= 0 || opts.Limit > 100 {
		return ordersReportOptions{}, errors.New("--limit must be between 1 and 100")
	}
	if opts.Status != "" {
		if _, ok := model.ParseOrderStatus(opts.Status); !ok {
			return ordersReportOptions{}, fmt.Errorf("unknown status %q", opts.Status)
		}
	}
	return opts, nil
}

func runOrdersReport(cmdCtx *commandContext, args []string) error {
	opts, err := parseOrdersReportFlags(args)
	if err != nil {
		return err
	}

	return cmdCtx.withDatabase(opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		svc := service.NewOrderService(service.OrderServiceOptions{
			Orders: data.NewOrderRepo(db),
			Logger: cmdCtx.Logger,
		})

		counts, err := svc.StatusCounts(ctx)
		if err != nil {
			return fmt.Errorf("status counts: %w", err)
		}

		listOpts := model.OrdersListOptions{
			Limit: opts.Limit,
			Sort:  "placed_at",
			Dir:   "desc",
		}
		if opts.Status != "" {
			status, _ := model.ParseOrderStatus(opts.Status)
			listOpts.Status = &status
		}
		page, err := svc.List(ctx, service.OrdersPageOptions{OrdersListOptions: listOpts})
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		return printOrdersReport(os.Stdout, counts, page.Items)
	})
}

// printOrdersReport renders the status-count summary and the recent orders
// table. Split out from runOrdersReport so output can be tested.
func printOrdersReport(w io.Writer, counts map[model.OrderStatus]int, orders []*model.OrderWithCustomer) error {
	if err := writef(w, "Orders by status\n"); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	total := 0
	for _, status := range model.OrderStatuses() {
		n := counts[status]
		total += n
		if _, err := fmt.Fprintf(tw, "  %s\t%d\n", status, n); err != nil {
			return fmt.Errorf("write status row: %w", err)
		}
	}
	if _, err := fmt.Fprintf(tw, "  total\t%d\n", total); err != nil {
		return fmt.Errorf("write total row: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush status table: %w", err)
	}

	if err := writef(w, "\nRecent orders (%d)\n", len(orders)); err != nil {
		return err
	}
	if len(orders) == 0 {
		return writef(w, "  none\n")
	}

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "  NUMBER\tCUSTOMER\tSTATUS\tTOTAL\tPLACED\n"); err != nil {
		return fmt.Errorf("write order header: %w", err)
	}
	for _, o := range orders {
		if _, err := fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			o.Number,
			o.CustomerName,
			o.Status,
			uiutil.FormatMoney(o.TotalCents, o.Currency),
			o.PlacedAt.Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("write order row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush order table: %w", err)
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
