// Command lendctl is a command line client for the library lending server.
//
//	lendctl [-server URL] items [-q text] [-category Book|DVD|Magazine] [-availability available|borrowed]
//	lendctl item <id>
//	lendctl member <id>
//	lendctl borrow <itemId> <memberId> <YYYY-MM-DD>
//	lendctl return <itemId>
//	lendctl history [-limit n]
//	lendctl stats
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/clients"
)

var errUsage = errors.New("usage: lendctl [-server URL] items|item|member|borrow|return|history|stats ...")

func main() {
	if err := mainImpl(os.Stdout, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "lendctl: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func mainImpl(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("lendctl", flag.ContinueOnError)
	serverURL := fs.String("server", envOr("LENDCTL_SERVER", "http://localhost:8080"), "Server base URL")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := clients.NewLendingClient(strings.TrimRight(*serverURL, "/"), nil)
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "items":
		return cmdItems(ctx, out, c, rest)
	case "item":
		return cmdItem(ctx, out, c, rest)
	case "member":
		return cmdMember(ctx, out, c, rest)
	case "borrow":
		return cmdBorrow(ctx, out, c, rest)
	case "return":
		return cmdReturn(ctx, out, c, rest)
	case "history":
		return cmdHistory(ctx, out, c, rest)
	case "stats":
		return cmdStats(ctx, out, c, rest)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func cmdItems(ctx context.Context, out io.Writer, c *clients.LendingClient, args []string) error {
	fs := flag.NewFlagSet("items", flag.ContinueOnError)
	q := fs.String("q", "", "Search title, author, director, publisher")
	category := fs.String("category", "", "Book, DVD or Magazine")
	availability := fs.String("availability", "", "available or borrowed")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	f := catalog.Filter{Query: *q}
	if *category != "" {
		cat, err := catalog.ParseCategory(*category)
		if err != nil {
			return err
		}
		f.Category = cat
	}
	av, err := catalog.ParseAvailability(*availability)
	if err != nil {
		return err
	}
	f.Availability = av

	items, err := c.ListItems(ctx, f)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tSTATUS\tDUE")
	for _, it := range items {
		status, due := "available", ""
		if !it.IsAvailable {
			status = "borrowed by " + strconv.Itoa(it.BorrowedBy)
			due = catalog.FormatDate(it.DueDate)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ID, it.Category(), it.Title, status, due)
	}
	return tw.Flush()
}

func cmdItem(ctx context.Context, out io.Writer, c *clients.LendingClient, args []string) error {
	ids, err := intArgs(args, 1)
	if err != nil {
		return err
	}
	view, err := c.GetItem(ctx, ids[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, view.Details)
	if view.Item.IsAvailable {
		fmt.Fprintln(out, "Available")
		return nil
	}
	fmt.Fprintf(out, "Borrowed by member %d, due %s", view.Item.BorrowedBy, catalog.FormatDate(view.Item.DueDate))
	if view.Overdue {
		fmt.Fprint(out, " (OVERDUE)")
	}
	fmt.Fprintln(out)
	return nil
}

func cmdMember(ctx context.Context, out io.Writer, c *clients.LendingClient, args []string) error {
	ids, err := intArgs(args, 1)
	if err != nil {
		return err
	}
	m, err := c.GetMember(ctx, ids[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s <%s> %s member, %d of %d items\n", m.Name, m.Email, m.Tier, m.BorrowedCount, m.MaxBorrowLimit)
	items, err := c.MemberItems(ctx, m.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(out, "  %d\t%s\tdue %s\n", it.ID, it.Title, catalog.FormatDate(it.DueDate))
	}
	return nil
}

func cmdBorrow(ctx context.Context, out io.Writer, c *clients.LendingClient, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: borrow <itemId> <memberId> <YYYY-MM-DD>", errUsage)
	}
	ids, err := intArgs(args[:2], 2)
	if err != nil {
		return err
	}
	tx, err := c.Borrow(ctx, ids[0], ids[1], args[2])
	if err != nil {
		return err
	}
	printTransaction(out, tx)
	return nil
}

func cmdReturn(ctx context.Context, out io.Writer, c *clients.LendingClient, args []string) error {
	ids, err := intArgs(args, 1)
	if err != nil {
		return err
	}
	tx, err := c.Return(ctx, ids[0])
	if err != nil {
		return err
	}
	printTransaction(out, tx)
	return nil
}

func cmdHistory(ctx context.Context, out io.Writer, c *clients.LendingClient, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "Number of transactions")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	txs, err := c.Transactions(ctx, *limit)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		printTransaction(out, tx)
	}
	return nil
}

func cmdStats(ctx context.Context, out io.Writer, c *clients.LendingClient, _ []string) error {
	st, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "items %d (available %d, borrowed %d, overdue %d)\nmembers %d\ntransactions %d\n",
		st.TotalItems, st.Available, st.Borrowed, st.Overdue, st.Members, st.Transactions)
	return nil
}

func printTransaction(out io.Writer, tx circulation.Transaction) {
	due := ""
	if !tx.DueDate.IsZero() {
		due = " due " + catalog.FormatDate(tx.DueDate)
	}
	fmt.Fprintf(out, "#%d %s item %d member %d at %s%s\n",
		tx.ID, tx.Action, tx.ItemID, tx.MemberID, tx.Timestamp.Format("2006-01-02 15:04"), due)
}

func intArgs(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: expected %d id argument(s)", errUsage, n)
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
