package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"p4-dashboard/internal/report"
)

var (
	gapNPSN string
	gapOut  string
)

func init() {
	rootCmd.AddCommand(gapCmd)
	gapCmd.Flags().StringVar(&gapNPSN, "npsn", "", "只看一所学校")
	gapCmd.Flags().StringVarP(&gapOut, "out", "o", "", "写入 xlsx 文件而不是打印")
	addFilterFlags(gapCmd)
}

var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "打印 Dapodik 名册中尚未参训的人员（Rekomendasi）",
	RunE: withStack(func(ctx context.Context, st *stack, _ []string) error {
		q, err := recordQuery()
		if err != nil {
			return err
		}

		if gapOut != "" {
			buf, _, err := st.svc.Export.ExportRecommendations(ctx, gapNPSN, q.Filter)
			if err != nil {
				return err
			}
			return os.WriteFile(gapOut, buf.Bytes(), 0o644)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		if gapNPSN != "" {
			gap, err := st.svc.Report.SchoolGap(ctx, gapNPSN, q.Filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s (%s)\tstatus=%s\tdapodik=%d\tpeserta=%d\tsudah=%d\n",
				gap.SchoolName, gap.NPSN, gap.Status, gap.RosterCount, gap.TrainedCount, gap.CoveredCount)
			for _, name := range gap.Remaining {
				fmt.Fprintf(tw, "\t%s\n", name)
			}
			return nil
		}

		gaps, err := st.svc.Report.Gaps(ctx, q.Filter)
		if err != nil {
			return err
		}
		if gaps.Status == report.GapRosterUnavailable {
			return fmt.Errorf("data Dapodik tidak tersedia")
		}
		fmt.Fprintf(tw, "status=%s\tdapodik=%d\tsudah=%d\tbelum=%d\n",
			gaps.Status, gaps.RosterCount, gaps.CoveredCount, len(gaps.Entries))
		fmt.Fprintln(tw, "NAMA_SEKOLAH\tNPSN\tNAMA_PESERTA\t")
		for _, e := range gaps.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", e.SchoolName, e.NPSN, e.Name)
		}
		return nil
	}),
}
