// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/spf13/cobra"

	"github.com/ava-labs/enveloping/client"
)

var receiptCmd = &cobra.Command{
	Use:   "receipt [options] [id]",
	Short: "Prints a receipt, or the most recent ones",
	RunE:  receiptFunc,
}

func receiptFunc(cmd *cobra.Command, args []string) error {
	cli := client.New(uri, requestTimeout)
	if len(args) == 0 {
		receipts, err := cli.RecentReceipts()
		if err != nil {
			return err
		}
		for _, r := range receipts {
			printReceipt(r)
		}
		return nil
	}

	id, err := ids.FromString(args[0])
	if err != nil {
		return err
	}
	r, err := cli.Receipt(id)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}
