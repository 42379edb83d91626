package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rpitems/internal/message"
)

func giveCmd() *cobra.Command {
	var give message.Give
	var trade bool
	var show bool
	cmd := &cobra.Command{
		Use:   "give <player> <guid>",
		Short: "Send an item reference to another player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if trade && show {
				return fmt.Errorf("--trade and --show are mutually exclusive")
			}
			give.Target = args[0]
			give.GUID = args[1]
			if err := message.CheckFields(give.Target, give.GUID, give.CustomMessage, give.CustomText); err != nil {
				return err
			}

			var msg string
			switch {
			case show:
				msg = message.BuildShowMessage(give.Target, give.GUID, give.CustomText, give.CustomNumber)
			case trade:
				msg = message.BuildTradeMessage(give.Target, give.GUID, give.CustomMessage, give.CustomText, give.CustomNumber)
			default:
				msg = message.BuildGiveMessage(give.Target, give.GUID, give.CustomMessage, give.CustomText, give.CustomNumber)
			}
			return runPublish(msg)
		},
	}
	cmd.Flags().StringVar(&give.CustomMessage, "message", "", "Message shown with the item")
	cmd.Flags().StringVar(&give.CustomText, "text", "", "Custom text substituted into the item template")
	cmd.Flags().IntVar(&give.CustomNumber, "counter", 0, "Instance counter (item default when 0)")
	cmd.Flags().BoolVar(&trade, "trade", false, "Send as a trade")
	cmd.Flags().BoolVar(&show, "show", false, "Only show the item")
	return cmd
}

func runPublish(msg string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ch, err := openChannel(ctx, cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Publish(ctx, msg); err != nil {
		return err
	}
	log.Debugf("action: publish | result: success | message: %s", msg)
	return nil
}
