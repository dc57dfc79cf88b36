// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/toeirei/seatmaster/internal/core"
	"github.com/toeirei/seatmaster/internal/i18n"
	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/internal/model"
)

// copyToClipboard is swapped out by tests.
var copyToClipboard = clipboard.WriteAll

func newCustomersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Work with the customer list",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List customers, refreshing from the remote source first",
		Long: `Lists all customers. Unless --offline is given, the remote customer list
is fetched and stored first; if that fails the cached list is shown.

Examples:
  seatmaster customers list
  seatmaster customers list --search "marilyn"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offline, _ := cmd.Flags().GetBool("offline")
			search, _ := cmd.Flags().GetString("search")

			state, err := svc.refreshOrLocal(cmd.Context(), offline)
			if err != nil {
				return err
			}
			customers := state.Customers
			if search != "" {
				if customers, err = svc.store.SearchCustomers(cmd.Context(), search); err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
			}
			if len(customers) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("customers.empty"))
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, i18n.T("customers.header"))
			for _, c := range customers {
				table := "-"
				if r, ok := state.ReservationFor(c.ID); ok {
					table = strconv.Itoa(r.TableNumber)
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.String(), table)
			}
			return w.Flush()
		},
	}
	list.Flags().String("search", "", "Only show customers whose name matches every word")
	list.Flags().Bool("offline", false, "Use the cached data without contacting the remote source")
	cmd.AddCommand(list)
	return cmd
}

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Work with the table map",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List tables and whether they are free",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offline, _ := cmd.Flags().GetBool("offline")
			onlyAvailable, _ := cmd.Flags().GetBool("available")

			state, err := svc.refreshOrLocal(cmd.Context(), offline)
			if err != nil {
				return err
			}
			tables := state.Tables
			if onlyAvailable {
				tables = state.AvailableTables()
			}
			if len(tables) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("tables.none_available"))
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range tables {
				status := i18n.T("tables.occupied")
				if t.Available {
					status = i18n.T("tables.available")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", i18n.T("tables.table", t.Number), status)
			}
			return w.Flush()
		},
	}
	list.Flags().Bool("available", false, "Only show free tables")
	list.Flags().Bool("offline", false, "Use the cached data without contacting the remote source")
	cmd.AddCommand(list)
	return cmd
}

func newReserveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserve <customer-id> <table-number>",
		Short: "Reserve a free table for a customer",
		Long: `Reserves the given table for the given customer. The reservation is only
stored when the customer holds no other active reservation and the table
is still free. Reservations expire after reservation.ttl.

Example:
  seatmaster reserve 3 7 --copy`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(i18n.T("reserve.invalid_customer", args[0]))
			}
			tableNumber, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New(i18n.T("reserve.invalid_table", args[1]))
			}
			offline, _ := cmd.Flags().GetBool("offline")
			copyResult, _ := cmd.Flags().GetBool("copy")

			state, err := svc.refreshOrLocal(cmd.Context(), offline)
			if err != nil {
				return err
			}
			res, err := svc.reserver.Confirm(cmd.Context(), customerID, tableNumber)
			if err != nil {
				return errors.New(i18n.T("reserve.failed", err))
			}

			name := fmt.Sprintf("#%d", customerID)
			if c, ok := state.Customer(customerID); ok {
				name = c.String()
			}
			msg := i18n.T("reserve.success", name, res.TableNumber)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, msg)
			_, _ = fmt.Fprintln(out, i18n.T("reserve.details", res.ID, res.ExpiresAt.Local().Format(time.Kitchen)))
			if copyResult {
				if err := copyToClipboard(msg); err != nil {
					logging.Warnf("%s", i18n.T("tui.copy_failed", err))
				} else {
					_, _ = fmt.Fprintln(out, i18n.T("tui.copied"))
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("copy", false, "Copy the confirmation to the clipboard")
	cmd.Flags().Bool("offline", false, "Use the cached data without contacting the remote source")
	return cmd
}

func newReservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List or cancel reservations",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reservations, err := svc.store.ListReservations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list reservations: %w", err)
			}
			if len(reservations) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("reservations.empty"))
				return nil
			}
			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, i18n.T("reservations.header"))
			for _, r := range reservations {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.ID, r.CustomerID, r.TableNumber, expiryLabel(r, now))
			}
			return w.Flush()
		},
	}
	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a reservation and free its table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.reserver.Cancel(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, core.ErrReservationNotFound) {
					return errors.New(i18n.T("reservations.not_found", args[0]))
				}
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("reservations.cancelled", args[0]))
			return nil
		},
	}
	cmd.AddCommand(list, cancel)
	return cmd
}

func expiryLabel(r model.Reservation, now time.Time) string {
	if r.Expired(now) {
		return i18n.T("reservations.expired")
	}
	return r.ExpiresAt.Local().Format(time.RFC3339)
}

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run one reservation cleanup pass now",
		Long: `Clears reservations and marks their tables as free, exactly like one pass of
the periodic cleanup job. By default every reservation is cleared; with
--expired-only (or cleanup.expired_only in the config) only expired ones are.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reaper := svc.reaper
			if cmd.Flags().Changed("expired-only") {
				expiredOnly, _ := cmd.Flags().GetBool("expired-only")
				reaper = core.NewReaper(svc.store, core.ReaperConfig{
					Interval:    appConfig.Cleanup.Interval,
					ExpiredOnly: expiredOnly,
				})
			}
			n, err := reaper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cleanup.done", map[string]any{"Count": n}))
			return nil
		},
	}
	cmd.Flags().Bool("expired-only", false, "Only clear reservations that have expired")
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch customers and tables from the remote source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := svc.repo.Refresh(cmd.Context())
			if err != nil {
				return errors.New(i18n.T("sync.failed", err))
			}
			details := fmt.Sprintf("customers=%d tables=%d", len(state.Customers), len(state.Tables))
			if err := svc.store.LogAction(cmd.Context(), core.ActionSync, details); err != nil {
				logging.Warnf("sync: failed to write audit entry: %v", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("sync.done", map[string]any{
				"Customers": len(state.Customers),
				"Tables":    len(state.Tables),
				"Available": len(state.AvailableTables()),
			}))
			return nil
		},
	}
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := svc.store.ListAuditLog(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read audit log: %w", err)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("audit.empty"))
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.RFC3339), e.Username, e.Action, e.Details)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of entries (0 shows all)")
	return cmd
}
