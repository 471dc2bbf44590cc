package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
)

var (
	reconcileLimit   int
	reconcileResolve uint
	reconcileNote    string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "List or resolve payment incidents",
	Long: `Payment incidents record money that may have moved without a matching
order: payments whose signature failed to verify, orders whose compensation
failed, and captures reported by the gateway webhook for unknown orders.

Without flags the unresolved incidents are listed, oldest first. Use
--resolve with --note once an incident has been handled (refund issued,
order recreated by hand).`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 50, "Maximum number of incidents to list")
	reconcileCmd.Flags().UintVar(&reconcileResolve, "resolve", 0, "Mark the incident with this ID as resolved")
	reconcileCmd.Flags().StringVar(&reconcileNote, "note", "", "Resolution note, required with --resolve")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileResolve != 0 && reconcileNote == "" {
		return fmt.Errorf("--note is required with --resolve")
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	reconciler := payment.NewReconciler(
		payment.NewIncidentRepository(db.GetDB()),
		order.NewRepository(db.GetDB()),
		nil,
		log,
	)

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if reconcileResolve != 0 {
		if err := reconciler.Resolve(ctx, reconcileResolve, reconcileNote); err != nil {
			return err
		}
		fmt.Fprintf(out, "Incident %d resolved\n", reconcileResolve)
		return nil
	}

	incidents, err := reconciler.Unresolved(ctx, reconcileLimit)
	if err != nil {
		return err
	}
	if len(incidents) == 0 {
		fmt.Fprintln(out, "No unresolved payment incidents")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTORE\tGATEWAY ORDER\tPAYMENT\tAMOUNT\tCREATED\tDETAIL")
	for _, inc := range incidents {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s %s\t%s\t%s\n",
			inc.ID,
			inc.Kind,
			inc.StoreID,
			inc.GatewayOrderID,
			inc.GatewayPaymentID,
			product.FormatPrice(inc.Amount),
			inc.Currency,
			inc.CreatedAt.Format("2006-01-02 15:04"),
			inc.Detail,
		)
	}
	return w.Flush()
}
