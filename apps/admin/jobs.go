package main

import (
	"context"
	"fmt"
	"time"
)

func (cli *commandLine) generateBills(at time.Time) error {
	res, err := cli.billingSvc.GenerateMonthlyBills(context.Background(), at)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "billing month %s: %d created, %d skipped\n", res.BillingMonth, res.Created, res.Skipped)
	return nil
}

func (cli *commandLine) markMissedSessions(at time.Time) error {
	res, err := cli.attendanceSvc.MarkMissedSessions(context.Background(), at)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(
		cli.out, "%s: %d marked missed, %d schedules checked, %d failed\n",
		res.Date, res.MarkedCount, res.TotalSchedulesChecked, res.FailedCount,
	)
	if !res.Success {
		return fmt.Errorf("%d session(s) could not be marked", res.FailedCount)
	}
	return nil
}
