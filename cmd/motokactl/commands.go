package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sweepCmd(open coreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep over pending payments and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, closeCore, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCore()

			stats, err := core.Sweeper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d changed=%d failed=%d\n",
				stats.Scanned, stats.Changed, stats.Failed)
			return nil
		},
	}
}

func verifyCmd(open coreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <transaction-id>",
		Short: "Re-verify a payment with its gateway, bypassing the owner check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, closeCore, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCore()

			outcome, err := core.Payments.Reverify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outcome.Payment == nil {
				return fmt.Errorf("gateway result did not match payment %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transaction=%s status=%s changed=%t\n",
				outcome.Payment.TransactionID, outcome.Payment.Status, outcome.Changed)
			if outcome.Order != nil {
				fmt.Fprintf(out, "order=%s type=%s\n", outcome.Order.ID, outcome.Order.OrderType)
			}
			return nil
		},
	}
}

func redispatchCmd(open coreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "redispatch <transaction-id>",
		Short: "Re-run completion effects for a completed payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, closeCore, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCore()

			order, err := core.Payments.Redispatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "order=%s type=%s status=%s\n", order.ID, order.OrderType, order.Status)
			return nil
		},
	}
}
